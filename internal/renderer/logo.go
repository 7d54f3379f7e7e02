package renderer

import (
	"os"
	"path/filepath"
	"strings"
)

// LogoResolver maps a company id to a logo file
type LogoResolver interface {
	Resolve(companyID string) (string, bool)
}

// DefaultLogoExtensions are tried in order
var DefaultLogoExtensions = []string{"png", "jpg", "jpeg", "gif", "webp", "bmp", "tiff"}

// DirResolver finds <dir>/<companyID>.<ext>
type DirResolver struct {
	Dir        string
	Extensions []string
}

// NewDirResolver creates a resolver over dir
func NewDirResolver(dir string) *DirResolver {
	return &DirResolver{Dir: dir, Extensions: DefaultLogoExtensions}
}

// Resolve returns the first existing regular file. Ids that could
// escape the directory never resolve.
func (r *DirResolver) Resolve(companyID string) (string, bool) {
	if r.Dir == "" || companyID == "" || companyID == "." || companyID == ".." ||
		strings.ContainsAny(companyID, `/\`) {
		return "", false
	}

	for _, ext := range r.Extensions {
		path := filepath.Join(r.Dir, companyID+"."+ext)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

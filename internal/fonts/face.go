// Package fonts measures text for layout decisions.
package fonts

import "strings"

// PointToMM converts PostScript points to millimetres
const PointToMM = 25.4 / 72

// Face identifies a font family, an fpdf style ("", "B", "I", "BI") and a size in points
type Face struct {
	Family string
	Style  string
	Size   float64
}

// WithSize returns a copy of the face with another size
func (f Face) WithSize(size float64) Face {
	f.Size = size
	return f
}

// Bold returns a copy of the face with bold style added
func (f Face) Bold() Face {
	if !strings.Contains(f.Style, "B") {
		f.Style = "B" + f.Style
	}
	return f
}

// Key returns the family/style key used by metric tables
func (f Face) Key() string {
	return strings.ToLower(f.Family) + ":" + normalizeStyle(f.Style)
}

// Metrics measures rendered text width in millimetres
type Metrics interface {
	Width(face Face, text string) float64
}

var postScriptStyles = map[string]string{
	"":            "",
	"roman":       "",
	"regular":     "",
	"bold":        "B",
	"italic":      "I",
	"oblique":     "I",
	"bolditalic":  "BI",
	"boldoblique": "BI",
}

// ParseFace turns a PostScript name such as "Helvetica-Bold" into a face
func ParseFace(name string, size float64) Face {
	family, suffix, _ := strings.Cut(strings.TrimSpace(name), "-")
	style, ok := postScriptStyles[strings.ToLower(suffix)]
	if !ok {
		return Face{Family: strings.TrimSpace(name), Size: size}
	}
	if strings.EqualFold(family, "Arial") {
		family = "Helvetica"
	}
	return Face{Family: family, Style: style, Size: size}
}

// IsCore reports whether the family is one of the standard PDF text fonts
func IsCore(family string) bool {
	switch strings.ToLower(family) {
	case "helvetica", "arial", "times", "courier":
		return true
	}
	return false
}

func normalizeStyle(style string) string {
	s := strings.ToUpper(style)
	b := strings.Contains(s, "B")
	i := strings.Contains(s, "I")
	switch {
	case b && i:
		return "BI"
	case b:
		return "B"
	case i:
		return "I"
	}
	return ""
}

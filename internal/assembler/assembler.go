// Package assembler turns a rendered page stream into a PDF/A-3b document
// carrying the structured invoice XML as an associated file.
package assembler

import (
	"bytes"
	"crypto/md5"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	errs "github.com/weareuntitled/fixundfertig/internal/model"
)

const (
	// DefaultAttachmentName is the file name Factur-X readers look for
	DefaultAttachmentName = "factur-x.xml"

	// RelationshipAlternative marks the XML as equivalent to the visual document
	RelationshipAlternative = "Alternative"

	// DefaultConformance is the Factur-X level written to the XMP metadata
	DefaultConformance = "BASIC"

	// pdfVersion is the catalog version override. PDF/A-3 is based on PDF 1.7.
	pdfVersion = "1.7"
)

// srgbProfile is the default output intent profile
//
//go:embed icc/sRGB.icc
var srgbProfile []byte

// Metadata describes the attachment and optional output intent
type Metadata struct {
	AttachmentName string
	Description    string
	Conformance    string
	ModDate        string // PDF date; the info ModDate is used when empty
	ICCProfilePath string // overrides the built-in sRGB profile
}

func (m Metadata) withDefaults() Metadata {
	if m.AttachmentName == "" {
		m.AttachmentName = DefaultAttachmentName
	}
	if m.Description == "" {
		m.Description = "Factur-X invoice"
	}
	if m.Conformance == "" {
		m.Conformance = DefaultConformance
	}
	return m
}

// Assembler appends the PDF/A-3 parts to a page stream
type Assembler struct {
	logger *slog.Logger
}

// Option configures an Assembler
type Option func(*Assembler)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Assembler
func New(opts ...Option) *Assembler {
	a := &Assembler{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var configOnce sync.Once

func readContext(data []byte) (*model.Context, error) {
	configOnce.Do(api.DisableConfigDir)
	return api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
}

// Assemble embeds xml into pages and returns the complete document. The
// input must be a full PDF, anything else is a ContractError.
func (a *Assembler) Assemble(pages, xml []byte, meta Metadata) ([]byte, error) {
	meta = meta.withDefaults()

	if err := checkComplete(pages); err != nil {
		return nil, err
	}
	prev, err := lastStartXref(pages)
	if err != nil {
		return nil, errs.NewContractError("assemble", "page stream has no cross reference table", err)
	}

	ctx, err := readContext(pages)
	if err != nil {
		return nil, errs.NewContractError("assemble", "page stream is not a readable PDF", err)
	}
	xt := ctx.XRefTable
	if xt.Root == nil || xt.Size == nil {
		return nil, errs.NewContractError("assemble", "page stream has no catalog", nil)
	}

	catalog, err := xt.DereferenceDict(*xt.Root)
	if err != nil || catalog == nil {
		return nil, errs.NewContractError("assemble", "catalog is not a dictionary", err)
	}

	info := types.Dict{}
	if xt.Info != nil {
		if d, err := xt.DereferenceDict(*xt.Info); err == nil && d != nil {
			info = d
		}
	}
	entry := func(key string) string {
		o, found := info.Find(key)
		if !found {
			return ""
		}
		v, derr := xt.Dereference(o)
		if derr != nil {
			return ""
		}
		return text(v)
	}

	created := zoned(entry("CreationDate"))
	modified := zoned(entry("ModDate"))

	modDate := zoned(meta.ModDate)
	if modDate == "" {
		modDate = modified
	}

	xmp, err := renderXMP(xmpFields{
		Title:       entry("Title"),
		Author:      entry("Author"),
		Subject:     entry("Subject"),
		Keywords:    entry("Keywords"),
		Creator:     entry("Creator"),
		Producer:    entry("Producer"),
		CreateDate:  xmpDate(created),
		ModifyDate:  xmpDate(modified),
		FileName:    meta.AttachmentName,
		Conformance: meta.Conformance,
	})
	if err != nil {
		return nil, errs.NewRenderError("assemble", "failed to build XMP metadata", err)
	}

	icc := srgbProfile
	if meta.ICCProfilePath != "" {
		if icc, err = os.ReadFile(meta.ICCProfilePath); err != nil {
			return nil, errs.NewRenderError("assemble", "failed to read ICC profile", err)
		}
	}

	u := newUpdate(pages, *xt.Size)

	sum := md5.Sum(xml)
	fileRef := u.addStream(fmt.Sprintf("/Type /EmbeddedFile /Subtype %s /Params <</Size %d /CheckSum <%s> /ModDate %s>>",
		name("text/xml"), len(xml), hex.EncodeToString(sum[:]), textString(modDate)), xml)

	specRef := u.addObject(fmt.Sprintf("<</Type /Filespec /F %s /UF %s /Desc %s /AFRelationship /%s /EF <</F %d 0 R /UF %d 0 R>>>>",
		textString(meta.AttachmentName), textString(meta.AttachmentName), textString(meta.Description),
		RelationshipAlternative, fileRef, fileRef))

	metaRef := u.addStream("/Type /Metadata /Subtype /XML", xmp)

	iccRef := u.addStream("/N 3", icc)
	outputIntent := u.addObject(fmt.Sprintf("<</Type /OutputIntent /S /GTS_PDFA1 /OutputConditionIdentifier (sRGB) /Info (sRGB IEC61966-2.1) /DestOutputProfile %d 0 R>>", iccRef))

	newCatalog := types.Dict{}
	for k, v := range catalog {
		newCatalog[k] = v
	}

	names := types.Dict{}
	if o, found := catalog.Find("Names"); found {
		if d, err := xt.DereferenceDict(o); err == nil && d != nil {
			for k, v := range d {
				names[k] = v
			}
		}
	}
	names["EmbeddedFiles"] = types.Dict{
		"Names": types.Array{stringObject(meta.AttachmentName), ref(specRef)},
	}
	newCatalog["Names"] = names
	newCatalog["AF"] = types.Array{ref(specRef)}
	newCatalog["Metadata"] = ref(metaRef)
	newCatalog["Version"] = types.Name(pdfVersion)
	newCatalog["OutputIntents"] = types.Array{ref(outputIntent)}

	var cat bytes.Buffer
	writeDict(&cat, newCatalog)
	u.replace(int(xt.Root.ObjectNumber), int(xt.Root.GenerationNumber), cat.String())

	// the info dates must carry the same zone as the XMP dates
	if xt.Info != nil && len(info) > 0 {
		newInfo := types.Dict{}
		for k, v := range info {
			newInfo[k] = v
		}
		if created != "" {
			newInfo["CreationDate"] = types.StringLiteral(created)
		}
		if modified != "" {
			newInfo["ModDate"] = types.StringLiteral(modified)
		}
		var buf bytes.Buffer
		writeDict(&buf, newInfo)
		u.replace(int(xt.Info.ObjectNumber), int(xt.Info.GenerationNumber), buf.String())
	}

	id := documentID(pages, xml)
	out := u.finish(prev, *xt.Root, xt.Info, id)

	a.logger.Debug("document assembled",
		"attachment", meta.AttachmentName,
		"xml_bytes", len(xml),
		"bytes", len(out),
		"icc_bytes", len(icc))

	return out, nil
}

func ref(n int) types.IndirectRef {
	return types.IndirectRef{ObjectNumber: types.Integer(n)}
}

// stringObject wraps s as a literal or hex string object
func stringObject(s string) types.Object {
	enc := textString(s)
	if enc[0] == '(' {
		return types.StringLiteral(enc[1 : len(enc)-1])
	}
	return types.HexLiteral(enc[1 : len(enc)-1])
}

// documentID derives the trailer /ID from the content so equal input
// produces equal output.
func documentID(pages, xml []byte) string {
	h := md5.New()
	h.Write(pages)
	h.Write(xml)
	return hex.EncodeToString(h.Sum(nil))
}

func checkComplete(data []byte) error {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return errs.NewContractError("assemble", "page stream does not start with a PDF header", nil)
	}
	tail := data[max(0, len(data)-1024):]
	if !bytes.Contains(tail, []byte("%%EOF")) {
		return errs.NewContractError("assemble", "page stream is truncated, no end-of-file marker", nil)
	}
	return nil
}

func lastStartXref(data []byte) (int, error) {
	i := bytes.LastIndex(data, []byte("startxref"))
	if i < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	fields := bytes.Fields(data[i+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("startxref without offset")
	}
	off, err := strconv.Atoi(string(fields[0]))
	if err != nil || off <= 0 || off >= len(data) {
		return 0, fmt.Errorf("invalid startxref offset %q", fields[0])
	}
	return off, nil
}

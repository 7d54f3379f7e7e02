package assembler

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	errs "github.com/weareuntitled/fixundfertig/internal/model"
)

// ErrAttachmentNotFound is returned when the name tree has no such file
var ErrAttachmentNotFound = errors.New("attachment not found")

// Attachment is one embedded file
type Attachment struct {
	Name         string
	Description  string
	Relationship string
	Data         []byte
}

// Report summarises a finished document
type Report struct {
	Version      string   `json:"version,omitempty"`
	Pages        int      `json:"pages"`
	Attachments  []string `json:"attachments,omitempty"`
	Metadata     bool     `json:"metadata"`
	PDFA3        bool     `json:"pdfa3"`
	OutputIntent bool     `json:"output_intent"`
}

// Extract returns the embedded file called name and its relationship
func Extract(pdf []byte, name string) ([]byte, string, error) {
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, "", errs.NewContractError("extract", "not a readable PDF", err)
	}

	files, err := attachments(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, f := range files {
		if f.Name == name {
			return f.Data, f.Relationship, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s", ErrAttachmentNotFound, name)
}

// Inspect reads the structural facts a PDF/A-3 invoice should have
func Inspect(pdf []byte) (*Report, error) {
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, errs.NewContractError("inspect", "not a readable PDF", err)
	}

	catalog, err := ctx.XRefTable.Catalog()
	if err != nil {
		return nil, errs.NewContractError("inspect", "catalog is not a dictionary", err)
	}
	r := &Report{Pages: pageCount(ctx.XRefTable, catalog)}
	if v, found := catalog.Find("Version"); found {
		r.Version = text(v)
	}
	_, r.OutputIntent = catalog.Find("OutputIntents")
	if m, found := catalog.Find("Metadata"); found {
		r.Metadata = true
		if data, err := streamData(ctx, m); err == nil {
			r.PDFA3 = containsPDFA3(data)
		}
	}

	files, err := attachments(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		r.Attachments = append(r.Attachments, f.Name)
	}
	return r, nil
}

func containsPDFA3(xmp []byte) bool {
	return bytes.Contains(xmp, []byte("<pdfaid:part>3</pdfaid:part>")) ||
		bytes.Contains(xmp, []byte(`pdfaid:part="3"`))
}

func pageCount(xt *model.XRefTable, catalog types.Dict) int {
	o, found := catalog.Find("Pages")
	if !found {
		return 0
	}
	pages, err := xt.DereferenceDict(o)
	if err != nil || pages == nil {
		return 0
	}
	c, found := pages.Find("Count")
	if !found {
		return 0
	}
	if c, err = xt.Dereference(c); err != nil {
		return 0
	}
	if n, ok := c.(types.Integer); ok {
		return int(n)
	}
	return 0
}

// attachments walks the EmbeddedFiles name tree
func attachments(ctx *model.Context) ([]Attachment, error) {
	xt := ctx.XRefTable
	catalog, err := xt.Catalog()
	if err != nil {
		return nil, errs.NewContractError("extract", "catalog is not a dictionary", err)
	}

	o, found := catalog.Find("Names")
	if !found {
		return nil, nil
	}
	names, err := xt.DereferenceDict(o)
	if err != nil || names == nil {
		return nil, nil
	}
	tree, found := names.Find("EmbeddedFiles")
	if !found {
		return nil, nil
	}

	var out []Attachment
	if err := walkNameTree(ctx, tree, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkNameTree(ctx *model.Context, node types.Object, depth int, out *[]Attachment) error {
	if depth > 32 {
		return errs.NewContractError("extract", "name tree too deep", nil)
	}
	xt := ctx.XRefTable
	d, err := xt.DereferenceDict(node)
	if err != nil || d == nil {
		return nil
	}

	if kids, found := d.Find("Kids"); found {
		arr, err := xt.DereferenceArray(kids)
		if err != nil {
			return errs.NewContractError("extract", "invalid name tree kids", err)
		}
		for _, kid := range arr {
			if err := walkNameTree(ctx, kid, depth+1, out); err != nil {
				return err
			}
		}
	}

	pairs, found := d.Find("Names")
	if !found {
		return nil
	}
	arr, err := xt.DereferenceArray(pairs)
	if err != nil {
		return errs.NewContractError("extract", "invalid name tree entries", err)
	}
	for i := 0; i+1 < len(arr); i += 2 {
		key, err := xt.Dereference(arr[i])
		if err != nil {
			continue
		}
		a, err := fileSpec(ctx, arr[i+1])
		if err != nil {
			return err
		}
		a.Name = text(key)
		*out = append(*out, a)
	}
	return nil
}

func fileSpec(ctx *model.Context, o types.Object) (Attachment, error) {
	xt := ctx.XRefTable
	spec, err := xt.DereferenceDict(o)
	if err != nil || spec == nil {
		return Attachment{}, errs.NewContractError("extract", "file specification is not a dictionary", err)
	}

	var a Attachment
	if v, found := spec.Find("Desc"); found {
		if v, err := xt.Dereference(v); err == nil {
			a.Description = text(v)
		}
	}
	if v, found := spec.Find("AFRelationship"); found {
		if v, err := xt.Dereference(v); err == nil {
			a.Relationship = text(v)
		}
	}

	efObj, found := spec.Find("EF")
	if !found {
		return a, nil
	}
	ef, err := xt.DereferenceDict(efObj)
	if err != nil || ef == nil {
		return a, nil
	}
	file, found := ef.Find("F")
	if !found {
		if file, found = ef.Find("UF"); !found {
			return a, nil
		}
	}
	if a.Data, err = streamData(ctx, file); err != nil {
		return a, errs.NewContractError("extract", "embedded file stream unreadable", err)
	}
	return a, nil
}

func streamData(ctx *model.Context, o types.Object) ([]byte, error) {
	v, err := ctx.XRefTable.Dereference(o)
	if err != nil {
		return nil, err
	}

	var sd *types.StreamDict
	switch s := v.(type) {
	case types.StreamDict:
		sd = &s
	case *types.StreamDict:
		sd = s
	default:
		return nil, fmt.Errorf("object is %T, not a stream", v)
	}

	if sd.Content == nil {
		if len(sd.FilterPipeline) == 0 {
			return sd.Raw, nil
		}
		if err := sd.Decode(); err != nil {
			return nil, err
		}
	}
	return sd.Content, nil
}

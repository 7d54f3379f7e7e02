// Package renderer wires totals, structured XML, layout and assembly into
// one render call.
package renderer

import (
	"context"
	"io"
	"log/slog"

	"github.com/weareuntitled/fixundfertig/internal/assembler"
	"github.com/weareuntitled/fixundfertig/internal/facturx"
	"github.com/weareuntitled/fixundfertig/internal/layout"
	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/totals"
)

// Result is a finished invoice
type Result struct {
	PDF      []byte
	XML      []byte
	Totals   model.TotalsResult
	Pages    int
	Warnings []string
}

// Pipeline renders invoices. It holds no per-document state.
type Pipeline struct {
	calculator *totals.Calculator
	layout     *layout.Engine
	assembler  *assembler.Assembler
	logos      LogoResolver
	logger     *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger for the pipeline and its stages
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLogoResolver sets how company logos are found
func WithLogoResolver(r LogoResolver) Option {
	return func(p *Pipeline) {
		p.logos = r
	}
}

// NewPipeline creates a render pipeline
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		calculator: totals.NewCalculator(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.layout = layout.NewEngine(layout.WithLogger(p.logger))
	p.assembler = assembler.New(assembler.WithLogger(p.logger))
	return p
}

// Totals computes the invoice sums under cfg
func (p *Pipeline) Totals(doc *model.InvoiceDocument, cfg layout.Config) (model.TotalsResult, error) {
	if doc == nil {
		return model.TotalsResult{}, model.NewValidationError("document", nil, "required", "document is required")
	}
	return p.calculator.Calculate(doc.Items, totals.Options{
		VATEnabled:    cfg.VATEnabled,
		SmallBusiness: doc.SmallBusiness,
		AllowNegative: cfg.AllowNegative,
	})
}

// EncodeXML returns the Factur-X XML and the totals it was built from
func (p *Pipeline) EncodeXML(doc *model.InvoiceDocument, cfg layout.Config) ([]byte, model.TotalsResult, error) {
	sums, err := p.Totals(doc, cfg)
	if err != nil {
		return nil, model.TotalsResult{}, err
	}
	xml, err := encoder(cfg).Encode(doc, sums)
	if err != nil {
		return nil, model.TotalsResult{}, err
	}
	return xml, sums, nil
}

// Render produces the PDF/A-3b invoice. Validation happens before any
// layout, so a rejected document yields no bytes.
func (p *Pipeline) Render(ctx context.Context, doc *model.InvoiceDocument, cfg layout.Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	xml, sums, err := p.EncodeXML(doc, cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logo := p.logoPath(doc)
	page, err := p.layout.Render(layout.Input{
		Document: doc,
		Totals:   sums,
		Config:   cfg,
		LogoPath: logo,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf, err := p.assembler.Assemble(page.PDF, xml, assembler.Metadata{
		AttachmentName: facturx.FileName,
		Description:    "Factur-X " + doc.DocumentNumber(),
		ICCProfilePath: cfg.ICCProfilePath,
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("invoice rendered",
		"number", doc.DocumentNumber(),
		"items", len(doc.Items),
		"gross", sums.Gross.StringFixed(2),
		"pages", page.Pages,
		"warnings", len(page.Warnings),
		"logo", logo != "")

	return &Result{
		PDF:      pdf,
		XML:      xml,
		Totals:   sums,
		Pages:    page.Pages,
		Warnings: page.Warnings,
	}, nil
}

// RenderInput converts wire input and renders it. Item conversion
// warnings come first in the result.
func (p *Pipeline) RenderInput(ctx context.Context, in *model.InvoiceInput, cfg layout.Config) (*Result, error) {
	if in == nil {
		return nil, model.NewValidationError("document", nil, "required", "document is required")
	}
	doc, warnings, err := in.ToDocument()
	if err != nil {
		return nil, err
	}
	res, err := p.Render(ctx, doc, cfg)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

// logoPath prefers a path set by a library caller. Decoded input never
// carries one, so request data only reaches logos through the resolver.
func (p *Pipeline) logoPath(doc *model.InvoiceDocument) string {
	if doc.LogoPath != "" {
		return doc.LogoPath
	}
	if p.logos == nil || doc.CompanyID == "" {
		return ""
	}
	path, ok := p.logos.Resolve(doc.CompanyID)
	if !ok {
		p.logger.Debug("no logo for company", "company_id", doc.CompanyID)
		return ""
	}
	return path
}

func encoder(cfg layout.Config) *facturx.Encoder {
	fc := facturx.DefaultConfig()
	fc.Currency = cfg.Currency
	fc.DueDays = cfg.DueDays
	return facturx.NewEncoder(fc)
}

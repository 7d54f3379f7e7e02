// Package layout renders the human readable invoice page stream with fpdf.
package layout

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/weareuntitled/fixundfertig/internal/fonts"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

const (
	// Producer is written to the document info dictionary
	Producer = "fixundfertig"

	// Creator names the generating application
	Creator = "fixundfertig invoice renderer"

	// unicodeFamily is the fpdf family name for embedded TrueType fonts
	unicodeFamily = "invoicebody"
)

// Input is everything the engine needs for one document
type Input struct {
	Document *model.InvoiceDocument
	Totals   model.TotalsResult
	Config   Config
	LogoPath string
}

// Output is a complete PDF page stream
type Output struct {
	PDF      []byte
	Pages    int
	Warnings []string
}

// Engine lays out invoices. It keeps no per-document state, so one engine
// may render concurrently.
type Engine struct {
	logger *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a layout engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render produces the page stream for one invoice
func (e *Engine) Render(in Input) (*Output, error) {
	if in.Document == nil {
		return nil, model.NewRenderError("layout", "nil document", nil)
	}
	if err := in.Config.Validate(); err != nil {
		return nil, err
	}

	r := newPage(in, e.logger)
	if err := r.run(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, model.NewRenderError("layout", "failed to write PDF", err)
	}

	e.logger.Debug("layout finished",
		"pages", r.pdf.PageNo(),
		"bytes", buf.Len(),
		"warnings", len(r.warn.list))

	return &Output{
		PDF:      buf.Bytes(),
		Pages:    r.pdf.PageNo(),
		Warnings: r.warn.list,
	}, nil
}

// page holds the state of a single render
type page struct {
	cfg    Config
	doc    *model.InvoiceDocument
	totals model.TotalsResult
	logo   string
	logger *slog.Logger

	pdf     *fpdf.Fpdf
	c       *canvas
	warn    *warnings
	regular fonts.Face
	bold    fonts.Face
}

func newPage(in Input, logger *slog.Logger) *page {
	cfg := in.Config
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: cfg.PageWidth, Ht: cfg.PageHeight},
	})
	pdf.SetMargins(cfg.MarginX, cfg.MarginTop, cfg.MarginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.AliasNbPages("")

	p := &page{
		cfg:    cfg,
		doc:    in.Document,
		totals: in.Totals,
		logo:   in.LogoPath,
		logger: logger,
		pdf:    pdf,
		warn:   &warnings{},
	}
	p.c = &canvas{pdf: pdf, warn: p.warn}
	return p
}

func (p *page) run() error {
	p.setupFonts()
	p.setupInfo()
	p.pdf.SetFooterFunc(p.drawFooter)

	p.addPage()

	headerBottom := p.drawHeader()
	addressBottom := p.drawAddress()
	metaBottom := p.drawMeta(headerBottom)

	y := max(addressBottom, metaBottom) + p.cfg.BodyGap
	y = p.drawIntro(y)

	y, err := p.drawTable(y)
	if err != nil {
		return err
	}
	p.drawTotals(y)

	if p.pdf.Err() {
		return model.NewRenderError("layout", "fpdf failed", p.pdf.Error())
	}
	return nil
}

// setupFonts embeds TrueType fonts, the Go fonts unless font files are
// configured. CoreFonts selects the standard fonts named in the config.
func (p *page) setupFonts() {
	if !p.cfg.CoreFonts {
		if regular, ok := p.embedFonts(); ok {
			p.regular = fonts.Face{Family: unicodeFamily, Size: p.cfg.TextFontSize}
			p.bold = fonts.Face{Family: unicodeFamily, Style: "B", Size: p.cfg.TextFontSize}
			p.c.unicode = true
			p.c.metrics = fonts.NewDocumentMetrics(p.pdf)
			if cov, err := fonts.NewCoverage(regular); err == nil {
				p.c.coverage = cov
			}
			return
		}
		p.warn.add("font: embedding failed, using standard fonts")
	}

	p.regular = fonts.ParseFace(p.cfg.FontRegular, p.cfg.TextFontSize)
	p.bold = fonts.ParseFace(p.cfg.FontBold, p.cfg.TextFontSize)
	if !fonts.IsCore(p.regular.Family) {
		p.warn.add("font %q is not a standard PDF font, using Helvetica", p.cfg.FontRegular)
		p.regular = fonts.Face{Family: "Helvetica", Size: p.cfg.TextFontSize}
	}
	if !fonts.IsCore(p.bold.Family) {
		p.warn.add("font %q is not a standard PDF font, using Helvetica-Bold", p.cfg.FontBold)
		p.bold = fonts.Face{Family: "Helvetica", Style: "B", Size: p.cfg.TextFontSize}
	}
	p.c.metrics = fonts.Core()
}

// embedFonts registers the font pair and returns the regular font data.
// A configured regular font without a bold file is used for both styles.
func (p *page) embedFonts() ([]byte, bool) {
	regular, bold := goregular.TTF, gobold.TTF
	if p.cfg.FontRegularFile != "" {
		if b, err := os.ReadFile(p.cfg.FontRegularFile); err != nil {
			p.warn.add("font: %v", err)
		} else {
			regular, bold = b, b
		}
	}
	if p.cfg.FontBoldFile != "" {
		if b, err := os.ReadFile(p.cfg.FontBoldFile); err != nil {
			p.warn.add("font: %v", err)
		} else {
			bold = b
		}
	}

	// fpdf errors are sticky, so fonts are tried on a scratch document first
	scratch := fpdf.New("P", "mm", "A4", "")
	scratch.AddUTF8FontFromBytes(unicodeFamily, "", regular)
	scratch.AddUTF8FontFromBytes(unicodeFamily, "B", bold)
	if scratch.Err() {
		p.warn.add("font: %v", scratch.Error())
		return nil, false
	}

	p.pdf.AddUTF8FontFromBytes(unicodeFamily, "", regular)
	p.pdf.AddUTF8FontFromBytes(unicodeFamily, "B", bold)
	return regular, true
}

func (p *page) setupInfo() {
	d := p.doc
	if title := strings.TrimSpace(d.Title + " " + d.Number); title != "" {
		p.pdf.SetTitle(title, true)
	}
	if d.Seller.Name != "" {
		p.pdf.SetAuthor(d.Seller.Name, true)
	}
	p.pdf.SetSubject(strings.TrimSpace("Rechnung "+d.DocumentNumber()+" "+d.Buyer()), true)
	p.pdf.SetKeywords("Rechnung Factur-X ZUGFeRD", true)
	p.pdf.SetCreator(Creator, true)
	p.pdf.SetProducer(Producer, true)
	p.pdf.SetLang("de-DE")
	p.pdf.SetCreationDate(d.IssueDate)
	p.pdf.SetModificationDate(d.IssueDate)
}

func (p *page) addPage() {
	p.pdf.AddPage()
	p.drawMarks()
}

func (p *page) lineHeight(size float64) float64 {
	return p.cfg.LineHeight(size)
}

// baseline places text vertically centred in a line box starting at top
func (p *page) baseline(top, size float64) float64 {
	return top + p.lineHeight(size)/2 + 0.35*size*fonts.PointToMM
}

// bodyBottom is the lowest y body content may reach
func (p *page) bodyBottom() float64 {
	return min(p.cfg.FooterTop()-p.lineHeight(p.cfg.SmallFontSize), p.cfg.PageHeight-p.cfg.MarginBottom)
}

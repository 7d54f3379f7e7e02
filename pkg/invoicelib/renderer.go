package invoicelib

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/weareuntitled/fixundfertig/internal/assembler"
	"github.com/weareuntitled/fixundfertig/internal/facturx"
	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/renderer"
)

// Result is a rendered invoice
type Result = renderer.Result

// Options configures a Renderer
type Options struct {
	Config      RenderConfig
	LogoDir     string       // resolves <LogoDir>/<company_id>.<ext>
	Logger      *slog.Logger // nil discards logs
	Concurrency int          // batch workers, 0 means GOMAXPROCS
}

// DefaultOptions returns default renderer options
func DefaultOptions() Options {
	return Options{
		Config:      DefaultRenderConfig(),
		Concurrency: runtime.GOMAXPROCS(0),
	}
}

// Renderer renders invoices. It is safe for concurrent use.
type Renderer struct {
	pipeline *renderer.Pipeline
	options  Options
}

// NewRenderer creates a renderer with the given options
func NewRenderer(opts Options) *Renderer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}

	var pipelineOpts []renderer.Option
	if opts.Logger != nil {
		pipelineOpts = append(pipelineOpts, renderer.WithLogger(opts.Logger))
	}
	if opts.LogoDir != "" {
		pipelineOpts = append(pipelineOpts, renderer.WithLogoResolver(renderer.NewDirResolver(opts.LogoDir)))
	}

	return &Renderer{
		pipeline: renderer.NewPipeline(pipelineOpts...),
		options:  opts,
	}
}

// NewDefaultRenderer creates a renderer with default options
func NewDefaultRenderer() *Renderer {
	return NewRenderer(DefaultOptions())
}

// Render renders a document
func (r *Renderer) Render(ctx context.Context, doc *InvoiceDocument) (*Result, error) {
	return r.pipeline.Render(ctx, doc, r.options.Config)
}

// RenderInput renders the wire shape, merging conversion warnings
func (r *Renderer) RenderInput(ctx context.Context, in *InvoiceInput) (*Result, error) {
	return r.pipeline.RenderInput(ctx, in, r.options.Config)
}

// RenderJSON reads a JSON invoice and renders it
func (r *Renderer) RenderJSON(ctx context.Context, rd io.Reader) (*Result, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("read invoice: %w", err)
	}
	in, err := model.ParseInput(data)
	if err != nil {
		return nil, err
	}
	return r.RenderInput(ctx, in)
}

// RenderBatch renders inputs concurrently. Results keep the input order;
// the first failure cancels the remaining renders.
func (r *Renderer) RenderBatch(ctx context.Context, inputs []*InvoiceInput) ([]*Result, error) {
	results := make([]*Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.options.Concurrency)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := r.RenderInput(ctx, in)
			if err != nil {
				return &BatchError{Index: i, Err: err}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// BatchError reports which input of a batch failed
type BatchError struct {
	Index int // zero-based position in the batch
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("invoice %d: %v", e.Index+1, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// ExtractXML returns the Factur-X attachment of a rendered invoice
func ExtractXML(pdf []byte) ([]byte, error) {
	data, _, err := assembler.Extract(pdf, facturx.FileName)
	return data, err
}

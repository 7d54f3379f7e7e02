package renderer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weareuntitled/fixundfertig/internal/assembler"
	"github.com/weareuntitled/fixundfertig/internal/facturx"
	"github.com/weareuntitled/fixundfertig/internal/layout"
	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/renderer"
)

func loadInput(t *testing.T) *model.InvoiceInput {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "invoice.json"))
	require.NoError(t, err)
	in, err := model.ParseInput(data)
	require.NoError(t, err)
	return in
}

func loadDocument(t *testing.T) *model.InvoiceDocument {
	t.Helper()
	doc, warnings, err := loadInput(t).ToDocument()
	require.NoError(t, err)
	require.Empty(t, warnings)
	return doc
}

func TestNewPipeline(t *testing.T) {
	p := renderer.NewPipeline(
		renderer.WithLogger(nil),
		renderer.WithLogoResolver(renderer.NewDirResolver(t.TempDir())),
	)
	require.NotNil(t, p)
}

func TestRender_EndToEnd(t *testing.T) {
	res, err := renderer.NewPipeline().Render(context.Background(), loadDocument(t), layout.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "25.00", res.Totals.Net.StringFixed(2))
	assert.Equal(t, "4.15", res.Totals.VAT.StringFixed(2))
	assert.Equal(t, "29.15", res.Totals.Gross.StringFixed(2))
	assert.Equal(t, 1, res.Pages)

	xml, rel, err := assembler.Extract(res.PDF, facturx.FileName)
	require.NoError(t, err)
	assert.Equal(t, res.XML, xml)
	assert.Equal(t, assembler.RelationshipAlternative, rel)

	summary, err := facturx.Parse(xml)
	require.NoError(t, err)
	assert.Equal(t, "RE-2026-0042", summary.ID)
	assert.Equal(t, facturx.ProfileBasic, summary.Profile)
	assert.True(t, summary.Gross.Equal(res.Totals.Gross))
}

func TestRender_PDFA(t *testing.T) {
	tests := []struct {
		name     string
		core     bool
		embedded bool
	}{
		{name: "default fonts", embedded: true},
		{name: "core fonts", core: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := layout.DefaultConfig()
			cfg.CoreFonts = tt.core
			res, err := renderer.NewPipeline().Render(context.Background(), loadDocument(t), cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.embedded, bytes.Contains(res.PDF, []byte("/FontFile2")))
			assert.True(t, bytes.Contains(res.PDF, []byte("/OutputIntents")))

			api.DisableConfigDir()
			conf := pdfmodel.NewDefaultConfiguration()
			conf.ValidationMode = pdfmodel.ValidationStrict
			_, err = api.ReadAndValidate(bytes.NewReader(res.PDF), conf)
			assert.NoError(t, err)
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	p := renderer.NewPipeline()
	a, err := p.Render(context.Background(), loadDocument(t), layout.DefaultConfig())
	require.NoError(t, err)
	b, err := p.Render(context.Background(), loadDocument(t), layout.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a.PDF, b.PDF)
}

func TestRender_ValidationBeforeLayout(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*model.InvoiceDocument, *layout.Config)
		field  string
	}{
		{
			name:   "negative quantity",
			modify: func(d *model.InvoiceDocument, _ *layout.Config) { d.Items[0].Quantity = decimal.NewFromInt(-1) },
			field:  "items[0].quantity",
		},
		{
			name:   "bad ratios",
			modify: func(_ *model.InvoiceDocument, c *layout.Config) { c.PriceRatio = 0.5 },
			field:  "column_ratios",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadDocument(t)
			cfg := layout.DefaultConfig()
			tt.modify(doc, &cfg)

			res, err := renderer.NewPipeline().Render(context.Background(), doc, cfg)
			assert.Nil(t, res)

			var ve *model.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := renderer.NewPipeline().Render(ctx, loadDocument(t), layout.DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderInput_MergesWarnings(t *testing.T) {
	in := loadInput(t)
	in.Items = append(in.Items, model.ItemInput{
		Description: "Kaputt",
		Quantity:    json.RawMessage(`"zwei"`),
		UnitPrice:   json.RawMessage(`1`),
	})
	in.Recipient.Name = "Kunde ☃ AG"

	res, err := renderer.NewPipeline().RenderInput(context.Background(), in, layout.DefaultConfig())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Warnings), 2)
	assert.Contains(t, res.Warnings[0], "item 3")
	assert.Contains(t, res.Warnings[1], "recipient.name")
	assert.Equal(t, "29.15", res.Totals.Gross.StringFixed(2))
}

func TestRender_LogoResolver(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "muster.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 10, 10))))
	require.NoError(t, f.Close())

	p := renderer.NewPipeline(renderer.WithLogoResolver(renderer.NewDirResolver(dir)))
	res, err := p.Render(context.Background(), loadDocument(t), layout.DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	doc := loadDocument(t)
	doc.LogoPath = filepath.Join(dir, "missing.png")
	res, err = p.Render(context.Background(), doc, layout.DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "logo:")
}

func TestDirResolver(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.jpg"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.png"), 0o700))

	r := renderer.NewDirResolver(dir)
	tests := []struct {
		id    string
		found bool
	}{
		{"acme", true},
		{"unknown", false},
		{"folder", false},
		{"", false},
		{"../acme", false},
		{"..", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			path, ok := r.Resolve(tt.id)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, filepath.Join(dir, "acme.jpg"), path)
			}
		})
	}
}

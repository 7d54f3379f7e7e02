package invoicelib_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weareuntitled/fixundfertig/pkg/invoicelib"
)

func loadInput(t *testing.T) *invoicelib.InvoiceInput {
	t.Helper()
	data, err := os.ReadFile("testdata/invoice.json")
	require.NoError(t, err)
	in, err := invoicelib.ParseInput(data)
	require.NoError(t, err)
	return in
}

func TestNewRenderer(t *testing.T) {
	r := invoicelib.NewRenderer(invoicelib.Options{Config: invoicelib.DefaultRenderConfig()})
	require.NotNil(t, r)
}

func TestDefaultOptions(t *testing.T) {
	opts := invoicelib.DefaultOptions()

	assert.Positive(t, opts.Concurrency)
	assert.Empty(t, opts.LogoDir)
	assert.Equal(t, "EUR", opts.Config.Currency)
	assert.NoError(t, opts.Config.Validate())
}

func TestRenderJSON(t *testing.T) {
	data, err := os.ReadFile("testdata/invoice.json")
	require.NoError(t, err)

	res, err := invoicelib.NewDefaultRenderer().RenderJSON(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(res.PDF, []byte("%PDF-")))
	assert.Equal(t, "29.15", res.Totals.Gross.StringFixed(2))
	assert.Equal(t, 1, res.Pages)

	xml, err := invoicelib.ExtractXML(res.PDF)
	require.NoError(t, err)
	assert.Equal(t, res.XML, xml)
}

func TestRenderJSON_Malformed(t *testing.T) {
	_, err := invoicelib.NewDefaultRenderer().RenderJSON(context.Background(), bytes.NewReader([]byte("{")))
	require.Error(t, err)
}

func TestRenderBatch(t *testing.T) {
	var inputs []*invoicelib.InvoiceInput
	for i := 1; i <= 5; i++ {
		in := loadInput(t)
		in.Number = fmt.Sprintf("RE-%d", i)
		inputs = append(inputs, in)
	}

	opts := invoicelib.DefaultOptions()
	opts.Concurrency = 2
	results, err := invoicelib.NewRenderer(opts).RenderBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, results, len(inputs))

	for i, res := range results {
		require.NotNil(t, res)
		assert.Contains(t, string(res.XML), fmt.Sprintf("<ram:ID>RE-%d</ram:ID>", i+1))
	}
}

func TestRenderBatch_Failure(t *testing.T) {
	good := loadInput(t)
	bad := loadInput(t)
	bad.Items[0].Quantity = json.RawMessage(`-1`)

	_, err := invoicelib.NewDefaultRenderer().RenderBatch(context.Background(), []*invoicelib.InvoiceInput{good, bad})
	require.Error(t, err)

	var validation *invoicelib.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "items[0].quantity", validation.Field)
	assert.Contains(t, err.Error(), "invoice 2")

	var batch *invoicelib.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, 1, batch.Index)
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := loadInput(t)
	doc, _, err := in.ToDocument()
	require.NoError(t, err)

	_, err = invoicelib.NewDefaultRenderer().Render(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractXML_NotPDF(t *testing.T) {
	_, err := invoicelib.ExtractXML([]byte("plain text"))

	var contract *invoicelib.ContractError
	assert.ErrorAs(t, err, &contract)
}

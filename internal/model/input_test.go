package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weareuntitled/fixundfertig/internal/model"
)

const sampleInput = `{
  "title": "Rechnung",
  "number": "RE-1",
  "issue_date": "2026-03-01",
  "delivery_date": "28.02.2026",
  "seller": {"name": "Fix & Fertig", "city": "Köln"},
  "recipient": {"name": "Erika Musterfrau"},
  "items": [
    {"description": "Beratung", "quantity": 2, "unit_price": "10,00", "tax_rate": 19},
    {"description": "Fahrt", "quantity": "1", "unit_price": 5, "tax_rate": "7"}
  ]
}`

func TestParseInput_ToDocument(t *testing.T) {
	in, err := model.ParseInput([]byte(sampleInput))
	require.NoError(t, err)

	doc, warnings, err := in.ToDocument()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "RE-1", doc.Number)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	require.NotNil(t, doc.DeliveryDate)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), *doc.DeliveryDate)

	require.Len(t, doc.Items, 2)
	assert.True(t, doc.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, doc.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, doc.Items[1].TaxRate.Equal(decimal.NewFromInt(7)))
}

func TestParseInput_LogoPathNotDecoded(t *testing.T) {
	in, err := model.ParseInput([]byte(`{"issue_date": "2026-03-01", "company_id": "acme", "logo_path": "/etc/passwd"}`))
	require.NoError(t, err)

	doc, _, err := in.ToDocument()
	require.NoError(t, err)
	assert.Empty(t, doc.LogoPath)
	assert.Equal(t, "acme", doc.CompanyID)

	var decoded model.InvoiceDocument
	require.NoError(t, json.Unmarshal([]byte(`{"logo_path": "/etc/passwd"}`), &decoded))
	assert.Empty(t, decoded.LogoPath)
}

func TestToDocument_BadItemIsolated(t *testing.T) {
	in := &model.InvoiceInput{
		IssueDate: "2026-03-01",
		Items: []model.ItemInput{
			{Description: "ok", Quantity: []byte(`1`), UnitPrice: []byte(`"9,99"`), TaxRate: []byte(`19`)},
			{Description: "broken", Quantity: []byte(`"zwei"`), UnitPrice: []byte(`5`), TaxRate: []byte(`19`)},
		},
	}

	doc, warnings, err := in.ToDocument()
	require.NoError(t, err)
	require.Len(t, doc.Items, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "item 2: quantity")

	assert.Equal(t, "broken", doc.Items[1].Description)
	assert.True(t, doc.Items[1].Net().IsZero())
	assert.True(t, doc.Items[0].UnitPrice.Equal(decimal.RequireFromString("9.99")))
}

func TestToDocument_BadDate(t *testing.T) {
	tests := []struct {
		name  string
		input model.InvoiceInput
		field string
	}{
		{"issue date", model.InvoiceInput{IssueDate: "01/03/2026"}, "issue_date"},
		{"empty issue date", model.InvoiceInput{}, "issue_date"},
		{"delivery date", model.InvoiceInput{IssueDate: "2026-03-01", DeliveryDate: "gestern"}, "delivery_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _, err := tt.input.ToDocument()
			require.Error(t, err)
			assert.Nil(t, doc)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestToInput_RoundTrip(t *testing.T) {
	in, err := model.ParseInput([]byte(sampleInput))
	require.NoError(t, err)
	doc, _, err := in.ToDocument()
	require.NoError(t, err)

	back, _, err := doc.ToInput().ToDocument()
	require.NoError(t, err)
	assert.Equal(t, doc.IssueDate, back.IssueDate)
	assert.Equal(t, *doc.DeliveryDate, *back.DeliveryDate)
	require.Len(t, back.Items, 2)
	assert.True(t, back.Items[0].UnitPrice.Equal(doc.Items[0].UnitPrice))
}

func TestParseInput_Invalid(t *testing.T) {
	_, err := model.ParseInput([]byte(`{"items": 3}`))
	require.Error(t, err)
}

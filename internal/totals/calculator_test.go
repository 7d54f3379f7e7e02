package totals_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/totals"
)

func item(qty, price, rate string) model.LineItem {
	return model.LineItem{
		Description: "Position",
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		TaxRate:     decimal.RequireFromString(rate),
	}
}

var vat = totals.Options{VATEnabled: true}

func TestCalculate_Fixtures(t *testing.T) {
	tests := []struct {
		name  string
		items []model.LineItem
		opts  totals.Options
		net   string
		vat   string
		gross string
		rate  string
	}{
		{
			name:  "single line",
			items: []model.LineItem{item("1", "9.99", "19")},
			opts:  vat,
			net:   "9.99", vat: "1.90", gross: "11.89", rate: "19",
		},
		{
			name:  "mixed rates",
			items: []model.LineItem{item("2", "10", "19"), item("1", "5", "7")},
			opts:  vat,
			net:   "25.00", vat: "4.15", gross: "29.15", rate: "16.6",
		},
		{
			name:  "empty",
			items: nil,
			opts:  vat,
			net:   "0.00", vat: "0.00", gross: "0.00", rate: "0",
		},
		{
			name:  "small business",
			items: []model.LineItem{item("3", "100", "19")},
			opts:  totals.Options{VATEnabled: true, SmallBusiness: true},
			net:   "300.00", vat: "0.00", gross: "300.00", rate: "0",
		},
		{
			name:  "vat disabled",
			items: []model.LineItem{item("1", "50", "19")},
			opts:  totals.Options{},
			net:   "50.00", vat: "0.00", gross: "50.00", rate: "0",
		},
		{
			name:  "zero rate line",
			items: []model.LineItem{item("1", "10", "0"), item("1", "10", "19")},
			opts:  vat,
			net:   "20.00", vat: "1.90", gross: "21.90", rate: "19",
		},
		{
			name:  "exact sum before rounding",
			items: []model.LineItem{item("3", "0.333", "0"), item("3", "0.333", "0")},
			opts:  vat,
			net:   "2.00", vat: "0.00", gross: "2.00", rate: "0",
		},
	}

	calc := totals.NewCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := calc.Calculate(tt.items, tt.opts)
			require.NoError(t, err)

			assert.Equal(t, tt.net, res.Net.StringFixed(2))
			assert.Equal(t, tt.vat, res.VAT.StringFixed(2))
			assert.Equal(t, tt.gross, res.Gross.StringFixed(2))
			assert.True(t, res.TaxRate.Equal(decimal.RequireFromString(tt.rate)),
				"rate: got %s, want %s", res.TaxRate, tt.rate)
			assert.Equal(t, !res.VAT.IsZero(), res.TaxApplied)
		})
	}
}

func TestCalculate_Rates(t *testing.T) {
	res, err := totals.NewCalculator().Calculate(
		[]model.LineItem{item("1", "1", "19"), item("1", "1", "7"), item("1", "1", "19")}, vat)
	require.NoError(t, err)

	require.Len(t, res.Rates, 2)
	assert.True(t, res.Rates[0].Equal(decimal.NewFromInt(7)))
	assert.True(t, res.Rates[1].Equal(decimal.NewFromInt(19)))
}

func TestCalculate_GrossEqualsNetPlusVAT(t *testing.T) {
	prices := []string{"0.01", "0.05", "0.99", "1.005", "3.333", "9.99", "12.345", "99.995", "1234.567"}
	quantities := []string{"1", "0.5", "2", "3", "7.25", "13"}
	rates := []string{"0", "7", "19"}

	calc := totals.NewCalculator()
	cent := decimal.RequireFromString("0.01")

	for _, p := range prices {
		for _, q := range quantities {
			var items []model.LineItem
			for _, r := range rates {
				items = append(items, item(q, p, r))
			}

			res, err := calc.Calculate(items, vat)
			require.NoError(t, err)

			diff := res.Gross.Sub(res.Net.Add(res.VAT)).Abs()
			assert.True(t, diff.LessThanOrEqual(cent), "price %s qty %s: diff %s", p, q, diff)
			assert.Equal(t, int32(-2), res.Net.Exponent())
		}
	}
}

func TestCalculate_NegativeRejected(t *testing.T) {
	tests := []struct {
		name  string
		items []model.LineItem
		field string
	}{
		{"quantity", []model.LineItem{item("-1", "10", "19")}, "items[0].quantity"},
		{"price", []model.LineItem{item("1", "10", "19"), item("1", "-5", "19")}, "items[1].unit_price"},
		{"rate", []model.LineItem{item("1", "10", "-19")}, "items[0].tax_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := totals.NewCalculator().Calculate(tt.items, vat)
			require.Error(t, err)
			assert.Equal(t, model.TotalsResult{}, res)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, "non_negative", verr.Rule)
		})
	}
}

func TestCalculate_NegativeAllowed(t *testing.T) {
	opts := totals.Options{VATEnabled: true, AllowNegative: true}
	res, err := totals.NewCalculator().Calculate([]model.LineItem{item("-1", "10", "19")}, opts)
	require.NoError(t, err)

	assert.Equal(t, "-10.00", res.Net.StringFixed(2))
	assert.Equal(t, "-1.90", res.VAT.StringFixed(2))
	assert.Equal(t, "-11.90", res.Gross.StringFixed(2))
}

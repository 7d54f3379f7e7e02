// Package totals computes invoice sums with exact decimal arithmetic.
package totals

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	money "github.com/weareuntitled/fixundfertig/internal/decimal"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

// Options controls how tax is applied
type Options struct {
	VATEnabled    bool
	SmallBusiness bool
	AllowNegative bool
}

// Calculator computes TotalsResult values. It holds no state.
type Calculator struct{}

// NewCalculator creates a new calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate sums line nets exactly, accumulates tax per line and quantizes
// net, tax and gross independently to cents.
func (c *Calculator) Calculate(items []model.LineItem, opts Options) (model.TotalsResult, error) {
	if !opts.AllowNegative {
		if err := checkNonNegative(items); err != nil {
			return model.TotalsResult{}, err
		}
	}

	taxing := opts.VATEnabled && !opts.SmallBusiness

	net := money.Zero
	tax := money.Zero
	taxedNet := money.Zero
	var rates []decimal.Decimal

	for _, item := range items {
		lineNet := item.Net()
		net = net.Add(lineNet)

		if taxing && money.IsPositive(item.TaxRate) {
			tax = tax.Add(money.Percent(lineNet, item.TaxRate))
			taxedNet = taxedNet.Add(lineNet)
			rates = addRate(rates, item.TaxRate)
		}
	}

	result := model.TotalsResult{
		Net:   money.RoundCents(net),
		VAT:   money.RoundCents(tax),
		Gross: money.RoundCents(net.Add(tax)),
		Rates: rates,
	}
	result.TaxApplied = !result.VAT.IsZero()
	result.TaxRate = effectiveRate(result, rates)

	return result, nil
}

func checkNonNegative(items []model.LineItem) error {
	for i, item := range items {
		checks := []struct {
			field string
			value decimal.Decimal
		}{
			{"quantity", item.Quantity},
			{"unit_price", item.UnitPrice},
			{"tax_rate", item.TaxRate},
		}
		for _, chk := range checks {
			if money.IsNegative(chk.value) {
				return model.NewValidationError(
					fmt.Sprintf("items[%d].%s", i, chk.field),
					chk.value.String(),
					"non_negative",
					"negative amounts are not allowed",
				)
			}
		}
	}
	return nil
}

func addRate(rates []decimal.Decimal, rate decimal.Decimal) []decimal.Decimal {
	for _, r := range rates {
		if r.Equal(rate) {
			return rates
		}
	}
	rates = append(rates, rate)
	sort.Slice(rates, func(i, j int) bool { return rates[i].LessThan(rates[j]) })
	return rates
}

func effectiveRate(result model.TotalsResult, rates []decimal.Decimal) decimal.Decimal {
	switch {
	case len(rates) == 0:
		return money.Zero
	case len(rates) == 1:
		return rates[0]
	case result.Net.IsZero():
		return money.Zero
	default:
		return result.VAT.Div(result.Net).Mul(money.Hundred).Round(money.CentPlaces)
	}
}

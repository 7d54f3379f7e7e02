package decimal

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Hundred is used for percent arithmetic
var Hundred = decimal.NewFromInt(100)

// CentPlaces is the number of fractional digits of a euro amount
const CentPlaces = 2

// FromString parses decimal from string.
// Accepts German notation ("1.234,56", "9,99") as well as plain ("1234.56").
// When both separators are present the last one is the decimal separator.
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(normalize(s))
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(s)

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

// RoundCents quantizes to 2 places, half away from zero (commercial rounding)
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// Percent computes amount * (rate/100) without rounding
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(Hundred)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// Cent is the smallest euro amount
var Cent = decimal.New(1, -CentPlaces)

// AllocateCents rounds every value to cents so that the parts add up to
// the rounded exact sum. The cents lost or gained by rounding each value
// go to the values with the largest rounding error, earlier values first.
func AllocateCents(values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = RoundCents(v)
	}

	diff := RoundCents(Sum(values)).Sub(Sum(out))
	if diff.IsZero() {
		return out
	}

	step := Cent
	if diff.IsNegative() {
		step = Cent.Neg()
	}
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	// residual in the direction of the correction, largest first
	residual := func(i int) decimal.Decimal {
		return values[i].Sub(out[i]).Mul(decimal.NewFromInt(int64(step.Sign())))
	}
	sort.SliceStable(order, func(a, b int) bool {
		return residual(order[a]).GreaterThan(residual(order[b]))
	})

	n := int(diff.Div(step).IntPart())
	for k := 0; k < n && k < len(order); k++ {
		out[order[k]] = out[order[k]].Add(step)
	}
	return out
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// IsNegative returns true if decimal is less than zero
func IsNegative(d decimal.Decimal) bool {
	return d.LessThan(Zero)
}

// FormatAmount renders a money amount in German notation: 1.234,56
func FormatAmount(d decimal.Decimal) string {
	fixed := RoundCents(d).StringFixed(CentPlaces)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(intPart) + "," + frac
}

// FormatEUR renders a euro amount: 1.234,56 €
func FormatEUR(d decimal.Decimal) string {
	return FormatAmount(d) + " €"
}

// FormatQuantity renders a quantity without trailing zeros: 1,5
func FormatQuantity(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

// FormatPercent renders a tax rate: 19 %, 7,5 %
func FormatPercent(d decimal.Decimal) string {
	return FormatQuantity(d) + " %"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

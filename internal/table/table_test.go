package table_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weareuntitled/fixundfertig/internal/fonts"
	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/table"
)

// monoMetrics measures every rune as 1mm
type monoMetrics struct{}

func (monoMetrics) Width(_ fonts.Face, text string) float64 {
	return float64(utf8.RuneCountInString(text))
}

func newFormatter(t *testing.T, width float64) *table.Formatter {
	t.Helper()
	f, err := table.NewFormatter(table.Config{
		ContentWidth:     width,
		DescriptionRatio: 0.6,
		QuantityRatio:    0.15,
		PriceRatio:       0.25,
		Padding:          2,
		LineHeight:       5,
		MinRowHeight:     7,
	}, fonts.Face{Family: "Helvetica", Size: 10}, monoMetrics{})
	require.NoError(t, err)
	return f
}

func TestWidths(t *testing.T) {
	f := newFormatter(t, 170)
	w := f.Widths()
	assert.InDelta(t, 102, w.Description, 1e-9)
	assert.InDelta(t, 25.5, w.Quantity, 1e-9)
	assert.InDelta(t, 42.5, w.Price, 1e-9)
	assert.InDelta(t, 170, w.Total(), 1e-9)
}

func TestNewFormatter_Ratios(t *testing.T) {
	tests := []struct {
		name    string
		ratios  [3]float64
		wantErr bool
	}{
		{"exact", [3]float64{0.6, 0.15, 0.25}, false},
		{"within tolerance", [3]float64{0.6, 0.15, 0.255}, false},
		{"sum too small", [3]float64{0.5, 0.15, 0.25}, true},
		{"sum too large", [3]float64{0.7, 0.15, 0.25}, true},
		{"zero column", [3]float64{0.75, 0, 0.25}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.NewFormatter(table.Config{
				ContentWidth:     100,
				DescriptionRatio: tt.ratios[0],
				QuantityRatio:    tt.ratios[1],
				PriceRatio:       tt.ratios[2],
				LineHeight:       5,
			}, fonts.Face{}, monoMetrics{})
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "column_ratios", verr.Field)
		})
	}
}

func TestWrap(t *testing.T) {
	f := newFormatter(t, 170)

	tests := []struct {
		name     string
		text     string
		width    float64
		expected []string
	}{
		{"fits", "Beratung vor Ort", 24, []string{"Beratung vor Ort"}},
		{"wraps at words", "Beratung vor Ort und Anfahrt", 24, []string{"Beratung vor Ort und", "Anfahrt"}},
		{"long word alone", "kurz Donaudampfschifffahrtsgesellschaft x", 14, []string{"kurz", "Donaudampfschifffahrtsgesellschaft", "x"}},
		{"hard newline", "Zeile eins\nZeile zwei", 100, []string{"Zeile eins", "Zeile zwei"}},
		{"blank line kept", "a\n\nb", 100, []string{"a", "", "b"}},
		{"empty", "", 100, []string{""}},
		{"collapses spaces", "a   b", 100, []string{"a b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Wrap(tt.text, tt.width))
		})
	}
}

func TestWrap_NeverSplitsWords(t *testing.T) {
	f := newFormatter(t, 170)
	text := "Lieferung und Montage einer Einbauküche inklusive Arbeitsplatte Spüle und Elektrogeräte"

	for width := 8.0; width <= 60; width += 3 {
		lines := f.Wrap(text, width)
		assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
		for _, line := range lines {
			if strings.Contains(line, " ") {
				assert.LessOrEqual(t, monoMetrics{}.Width(fonts.Face{}, line), width-4)
			}
		}
	}
}

func TestRows(t *testing.T) {
	f := newFormatter(t, 50) // description column 30mm, 26mm usable
	items := []model.LineItem{
		{Description: "Kurz", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.5")},
		{Description: "eins zwei drei vier fünf sechs sieben acht neun zehn elf", Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.NewFromInt(1000)},
	}

	rows := f.Rows(items)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"Kurz"}, rows[0].Lines)
	assert.Equal(t, "2", rows[0].Quantity)
	assert.Equal(t, "21,00 €", rows[0].Amount)
	assert.Equal(t, 7.0, rows[0].Height)

	assert.Len(t, rows[1].Lines, 3)
	assert.Equal(t, "1,5", rows[1].Quantity)
	assert.Equal(t, "1.500,00 €", rows[1].Amount)
	assert.Equal(t, 15.0, rows[1].Height)
}

func TestRows_AmountsAddUpToNet(t *testing.T) {
	f := newFormatter(t, 170)
	half := decimal.RequireFromString("0.005")
	items := []model.LineItem{
		{Description: "a", Quantity: decimal.NewFromInt(1), UnitPrice: half},
		{Description: "b", Quantity: decimal.NewFromInt(1), UnitPrice: half},
	}

	rows := f.Rows(items)
	require.Len(t, rows, 2)
	assert.Equal(t, "0,00 €", rows[0].Amount)
	assert.Equal(t, "0,01 €", rows[1].Amount)
	assert.True(t, rows[0].Net.Equal(half), "Net stays unrounded")
}

func TestRowHeight_Linear(t *testing.T) {
	f := newFormatter(t, 170)
	assert.Equal(t, 7.0, f.RowHeight(0))
	assert.Equal(t, 7.0, f.RowHeight(1))
	for n := 2; n < 10; n++ {
		assert.Equal(t, float64(n)*5, f.RowHeight(n))
	}
}

func rowsOf(n int, height float64, net int64) []table.Row {
	rows := make([]table.Row, n)
	for i := range rows {
		rows[i] = table.Row{Lines: []string{"x"}, Height: height, Net: decimal.NewFromInt(net)}
	}
	return rows
}

func TestPaginate_SinglePage(t *testing.T) {
	p := table.Paginate(rowsOf(3, 10, 5), 100, table.Frame{Top: 20, Bottom: 270, Reserved: 5, HeaderHeight: 8})

	assert.Equal(t, 1, p.Pages)
	assert.Equal(t, []table.Header{{Page: 0, Y: 100}}, p.Headers)
	assert.Empty(t, p.PageBreaks())
	assert.Equal(t, 108.0, p.Placements[0].Y)
	assert.Equal(t, 138.0, p.EndY)
	assert.True(t, p.Net.Equal(decimal.NewFromInt(15)))
}

func TestPaginate_HeaderRepeatedOnBreak(t *testing.T) {
	frame := table.Frame{Top: 20, Bottom: 270, Reserved: 6, HeaderHeight: 8}
	p := table.Paginate(rowsOf(30, 10, 10), 100, frame)

	require.Greater(t, p.Pages, 1)
	require.Len(t, p.Headers, p.Pages)
	for _, h := range p.Headers[1:] {
		assert.Equal(t, frame.Top, h.Y)
	}

	breaks := p.PageBreaks()
	require.Len(t, breaks, p.Pages-1)

	first := breaks[0]
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, frame.Top+frame.HeaderHeight, first.Y)
	assert.True(t, first.Carry.Equal(decimal.NewFromInt(int64(first.Row)*10)))

	for _, pl := range p.Placements {
		assert.LessOrEqual(t, pl.Y+10+frame.Reserved, frame.Bottom)
	}
}

func TestPaginate_OversizedRowDoesNotLoop(t *testing.T) {
	frame := table.Frame{Top: 20, Bottom: 100, HeaderHeight: 8}
	p := table.Paginate(rowsOf(2, 500, 1), 20, frame)

	assert.Equal(t, 2, p.Pages)
	assert.False(t, p.Placements[0].Break)
	assert.True(t, p.Placements[1].Break)
}

func TestPaginate_WidthsStableAcrossBreaks(t *testing.T) {
	f := newFormatter(t, 170)
	before := f.Widths()

	rows := f.Rows([]model.LineItem{
		{Description: strings.Repeat("Wort ", 200), Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)},
		{Description: strings.Repeat("Wort ", 200), Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)},
	})
	p := table.Paginate(rows, 200, table.Frame{Top: 20, Bottom: 270, HeaderHeight: 8})

	assert.Greater(t, p.Pages, 1)
	assert.Equal(t, before, f.Widths())
}

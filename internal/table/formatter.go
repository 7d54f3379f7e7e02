// Package table lays out the invoice item table: column widths, word
// wrapping, row heights and page breaks.
package table

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	money "github.com/weareuntitled/fixundfertig/internal/decimal"
	"github.com/weareuntitled/fixundfertig/internal/fonts"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

// RatioTolerance is how far the column ratios may sum away from 1.0
const RatioTolerance = 0.01

// Config holds table geometry in millimetres
type Config struct {
	ContentWidth     float64
	DescriptionRatio float64
	QuantityRatio    float64
	PriceRatio       float64
	Padding          float64
	LineHeight       float64
	MinRowHeight     float64
}

// Widths are the absolute column widths
type Widths struct {
	Description float64
	Quantity    float64
	Price       float64
}

// Total returns the sum of all columns
func (w Widths) Total() float64 {
	return w.Description + w.Quantity + w.Price
}

// Row is one formatted item
type Row struct {
	Lines    []string
	Quantity string
	Amount   string
	Net      decimal.Decimal
	Height   float64
}

// Formatter formats items for a fixed column layout
type Formatter struct {
	cfg     Config
	face    fonts.Face
	metrics fonts.Metrics
}

// NewFormatter validates the geometry and creates a formatter
func NewFormatter(cfg Config, face fonts.Face, metrics fonts.Metrics) (*Formatter, error) {
	if err := ValidateRatios(cfg.DescriptionRatio, cfg.QuantityRatio, cfg.PriceRatio); err != nil {
		return nil, err
	}
	if cfg.ContentWidth <= 0 {
		return nil, model.NewValidationError("content_width", cfg.ContentWidth, "positive", "content width must be positive")
	}
	if cfg.LineHeight <= 0 {
		return nil, model.NewValidationError("line_height", cfg.LineHeight, "positive", "line height must be positive")
	}
	return &Formatter{cfg: cfg, face: face, metrics: metrics}, nil
}

// ValidateRatios checks that the three column ratios are positive and sum to 1
func ValidateRatios(description, quantity, price float64) error {
	for _, r := range []float64{description, quantity, price} {
		if r <= 0 {
			return model.NewValidationError("column_ratios", r, "positive", "column ratios must be positive")
		}
	}
	sum := description + quantity + price
	if math.Abs(sum-1) > RatioTolerance {
		return model.NewValidationError("column_ratios", fmt.Sprintf("%.4f", sum), "sum_to_one",
			"column ratios must sum to 1.0")
	}
	return nil
}

// Widths returns the absolute column widths
func (f *Formatter) Widths() Widths {
	return Widths{
		Description: f.cfg.ContentWidth * f.cfg.DescriptionRatio,
		Quantity:    f.cfg.ContentWidth * f.cfg.QuantityRatio,
		Price:       f.cfg.ContentWidth * f.cfg.PriceRatio,
	}
}

// Padding returns the horizontal cell padding
func (f *Formatter) Padding() float64 {
	return f.cfg.Padding
}

// Wrap breaks text into lines that fit width minus padding on both sides.
// Words are never split; a word wider than the cell gets its own line.
// Newlines in text are hard breaks.
func (f *Formatter) Wrap(text string, width float64) []string {
	return WrapText(f.metrics, f.face, text, width-2*f.cfg.Padding)
}

// WrapText greedily packs words into lines no wider than avail
func WrapText(metrics fonts.Metrics, face fonts.Face, text string, avail float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			if current == "" {
				current = word
				continue
			}
			candidate := current + " " + word
			if metrics.Width(face, candidate) <= avail {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

// RowHeight returns the height of a row with n lines
func (f *Formatter) RowHeight(n int) float64 {
	return math.Max(f.cfg.MinRowHeight, float64(n)*f.cfg.LineHeight)
}

// Rows formats every item. The amount column shows the line total in
// cents, allocated so the column adds up to the rounded net.
func (f *Formatter) Rows(items []model.LineItem) []Row {
	width := f.Widths().Description
	nets := model.LineNets(items)
	amounts := money.AllocateCents(nets)
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		lines := f.Wrap(item.Description, width)
		rows = append(rows, Row{
			Lines:    lines,
			Quantity: money.FormatQuantity(item.Quantity),
			Amount:   money.FormatEUR(amounts[i]),
			Net:      nets[i],
			Height:   f.RowHeight(len(lines)),
		})
	}
	return rows
}

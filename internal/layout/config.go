package layout

import (
	"github.com/weareuntitled/fixundfertig/internal/fonts"
	"github.com/weareuntitled/fixundfertig/internal/model"
	"github.com/weareuntitled/fixundfertig/internal/table"
)

// Config holds every layout constant in millimetres (font sizes in points).
// It is passed by value and never modified during a render.
type Config struct {
	PageWidth    float64 `toml:"page_width" json:"page_width"`
	PageHeight   float64 `toml:"page_height" json:"page_height"`
	MarginX      float64 `toml:"margin_x" json:"margin_x"`
	MarginTop    float64 `toml:"margin_top" json:"margin_top"`
	MarginBottom float64 `toml:"margin_bottom" json:"margin_bottom"`

	CoreFonts       bool    `toml:"core_fonts" json:"core_fonts"` // standard fonts, not PDF/A conformant
	FontRegular     string  `toml:"font_regular" json:"font_regular"`
	FontBold        string  `toml:"font_bold" json:"font_bold"`
	FontRegularFile string  `toml:"font_regular_file" json:"font_regular_file,omitempty"`
	FontBoldFile    string  `toml:"font_bold_file" json:"font_bold_file,omitempty"`
	TitleFontSize   float64 `toml:"title_font_size" json:"title_font_size"`
	TextFontSize    float64 `toml:"text_font_size" json:"text_font_size"`
	SmallFontSize   float64 `toml:"small_font_size" json:"small_font_size"`
	LineSpacing     float64 `toml:"line_spacing" json:"line_spacing"`

	DescriptionRatio float64 `toml:"description_ratio" json:"description_ratio"`
	QuantityRatio    float64 `toml:"quantity_ratio" json:"quantity_ratio"`
	PriceRatio       float64 `toml:"price_ratio" json:"price_ratio"`
	CellPadding      float64 `toml:"cell_padding" json:"cell_padding"`
	MinRowHeight     float64 `toml:"min_row_height" json:"min_row_height"`
	HeaderRowHeight  float64 `toml:"header_row_height" json:"header_row_height"`

	FoldMarks  [2]float64 `toml:"fold_marks" json:"fold_marks"`
	PunchMark  float64    `toml:"punch_mark" json:"punch_mark"`
	MarkLength float64    `toml:"mark_length" json:"mark_length"`

	AddressX         float64 `toml:"address_x" json:"address_x"`
	AddressTop       float64 `toml:"address_top" json:"address_top"`
	AddressWidth     float64 `toml:"address_width" json:"address_width"`
	ReturnLineOffset float64 `toml:"return_line_offset" json:"return_line_offset"`
	RecipientOffset  float64 `toml:"recipient_offset" json:"recipient_offset"`

	LogoMaxWidth      float64 `toml:"logo_max_width" json:"logo_max_width"`
	LogoMaxHeight     float64 `toml:"logo_max_height" json:"logo_max_height"`
	LogoMaxPixels     int     `toml:"logo_max_pixels" json:"logo_max_pixels"`
	HeaderColumnWidth float64 `toml:"header_column_width" json:"header_column_width"`
	MetaTop           float64 `toml:"meta_top" json:"meta_top"`

	BodyGap      float64 `toml:"body_gap" json:"body_gap"`
	FooterOffset float64 `toml:"footer_offset" json:"footer_offset"`
	FooterHeight float64 `toml:"footer_height" json:"footer_height"`
	TotalsWidth  float64 `toml:"totals_width" json:"totals_width"`

	DueDays                 int    `toml:"due_days" json:"due_days"`
	SmallBusinessDisclaimer string `toml:"small_business_disclaimer" json:"small_business_disclaimer"`
	DefaultIntro            string `toml:"default_intro" json:"default_intro"`
	Currency                string `toml:"currency" json:"currency"`
	VATEnabled              bool   `toml:"vat_enabled" json:"vat_enabled"`
	AllowNegative           bool   `toml:"allow_negative" json:"allow_negative"`
	ICCProfilePath          string `toml:"icc_profile_path" json:"icc_profile_path,omitempty"`
}

// DefaultConfig returns the DIN 5008 form B layout on A4
func DefaultConfig() Config {
	return Config{
		PageWidth:    210,
		PageHeight:   297,
		MarginX:      20,
		MarginTop:    15,
		MarginBottom: 20,

		FontRegular:   "Helvetica",
		FontBold:      "Helvetica-Bold",
		TitleFontSize: 16,
		TextFontSize:  10,
		SmallFontSize: 7,
		LineSpacing:   1.4,

		DescriptionRatio: 0.6,
		QuantityRatio:    0.15,
		PriceRatio:       0.25,
		CellPadding:      2,
		MinRowHeight:     7,
		HeaderRowHeight:  8,

		FoldMarks:  [2]float64{105, 210},
		PunchMark:  148.5,
		MarkLength: 5,

		AddressX:         20,
		AddressTop:       45,
		AddressWidth:     85,
		ReturnLineOffset: 5,
		RecipientOffset:  12,

		LogoMaxWidth:      60,
		LogoMaxHeight:     25,
		LogoMaxPixels:     1200,
		HeaderColumnWidth: 80,
		MetaTop:           50,

		BodyGap:      10,
		FooterOffset: 25,
		FooterHeight: 15,
		TotalsWidth:  70,

		DueDays:                 14,
		SmallBusinessDisclaimer: "Gemäß § 19 UStG wird keine Umsatzsteuer berechnet.",
		DefaultIntro:            "Vielen Dank für Ihren Auftrag. Hiermit stellen wir Ihnen die folgenden Leistungen in Rechnung.",
		Currency:                "EUR",
		VATEnabled:              true,
		AllowNegative:           false,
	}
}

// ContentWidth is the page width between the side margins
func (c Config) ContentWidth() float64 {
	return c.PageWidth - 2*c.MarginX
}

// LineHeight returns the baseline distance for a font size
func (c Config) LineHeight(size float64) float64 {
	return size * fonts.PointToMM * c.LineSpacing
}

// HeaderColumnX is the left edge of the right-hand header column
func (c Config) HeaderColumnX() float64 {
	return c.PageWidth - c.MarginX - c.HeaderColumnWidth
}

// RightEdge is the right content boundary
func (c Config) RightEdge() float64 {
	return c.PageWidth - c.MarginX
}

// FooterTop is the y of the first footer line
func (c Config) FooterTop() float64 {
	return c.PageHeight - c.FooterOffset
}

// TableConfig derives the item table geometry
func (c Config) TableConfig() table.Config {
	return table.Config{
		ContentWidth:     c.ContentWidth(),
		DescriptionRatio: c.DescriptionRatio,
		QuantityRatio:    c.QuantityRatio,
		PriceRatio:       c.PriceRatio,
		Padding:          c.CellPadding,
		LineHeight:       c.LineHeight(c.TextFontSize),
		MinRowHeight:     c.MinRowHeight,
	}
}

// Validate rejects geometry that cannot produce a page
func (c Config) Validate() error {
	positives := []struct {
		field string
		value float64
	}{
		{"page_width", c.PageWidth},
		{"page_height", c.PageHeight},
		{"title_font_size", c.TitleFontSize},
		{"text_font_size", c.TextFontSize},
		{"small_font_size", c.SmallFontSize},
		{"line_spacing", c.LineSpacing},
		{"min_row_height", c.MinRowHeight},
		{"header_row_height", c.HeaderRowHeight},
		{"logo_max_width", c.LogoMaxWidth},
		{"logo_max_height", c.LogoMaxHeight},
		{"header_column_width", c.HeaderColumnWidth},
		{"totals_width", c.TotalsWidth},
	}
	for _, p := range positives {
		if p.value <= 0 {
			return model.NewValidationError(p.field, p.value, "positive", "must be greater than zero")
		}
	}

	if c.MarginX < 0 || c.MarginTop < 0 || c.MarginBottom < 0 || c.CellPadding < 0 {
		return model.NewValidationError("margins", nil, "non_negative", "margins and padding must not be negative")
	}
	if c.ContentWidth() <= 0 {
		return model.NewValidationError("margin_x", c.MarginX, "content_width", "margins leave no content width")
	}
	if c.FooterOffset <= 0 || c.FooterOffset >= c.PageHeight {
		return model.NewValidationError("footer_offset", c.FooterOffset, "range", "footer must lie on the page")
	}
	if c.DueDays < 0 {
		return model.NewValidationError("due_days", c.DueDays, "non_negative", "payment term must not be negative")
	}
	if c.LogoMaxPixels <= 0 {
		return model.NewValidationError("logo_max_pixels", c.LogoMaxPixels, "positive", "must be greater than zero")
	}
	if c.Currency != "EUR" {
		return model.NewValidationError("currency", c.Currency, "eur_only", "only EUR is supported")
	}

	return table.ValidateRatios(c.DescriptionRatio, c.QuantityRatio, c.PriceRatio)
}

package fonts

import (
	"unicode"

	"golang.org/x/image/font/sfnt"
)

// Coverage reports which runes a TrueType font has glyphs for. It is not
// safe for concurrent use.
type Coverage struct {
	font *sfnt.Font
	buf  sfnt.Buffer
}

// NewCoverage parses a TrueType font
func NewCoverage(ttf []byte) (*Coverage, error) {
	f, err := sfnt.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return &Coverage{font: f}, nil
}

// Missing reports whether text holds a printable rune the font maps to
// the notdef glyph
func (c *Coverage) Missing(text string) bool {
	for _, r := range text {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			continue
		}
		idx, err := c.font.GlyphIndex(&c.buf, r)
		if err != nil || idx == 0 {
			return true
		}
	}
	return false
}

package fonts

import (
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

var coreFamilies = []string{"helvetica", "times", "courier"}

var coreStyles = []string{"", "B", "I", "BI"}

// widthTable holds glyph widths in 1/1000 em for the cp1252 byte range
type widthTable struct {
	widths  [256]int
	average float64
}

var (
	coreOnce   sync.Once
	coreTables map[string]*widthTable
)

// CoreMetrics measures the standard PDF fonts. Tables are built once and
// shared read-only, so a single value is safe for concurrent use.
type CoreMetrics struct{}

// Core returns metrics for the standard PDF fonts
func Core() CoreMetrics {
	coreOnce.Do(loadCoreTables)
	return CoreMetrics{}
}

func loadCoreTables() {
	coreTables = make(map[string]*widthTable, len(coreFamilies)*len(coreStyles))

	pdf := fpdf.New("P", "pt", "A4", "")
	for _, family := range coreFamilies {
		for _, style := range coreStyles {
			pdf.SetFont(family, style, 1000)
			t := &widthTable{}
			sum := 0
			for b := 32; b < 256; b++ {
				t.widths[b] = pdf.GetStringSymbolWidth(string([]byte{byte(b)}))
				if b < 127 {
					sum += t.widths[b]
				}
			}
			t.average = float64(sum) / float64(127-32)
			coreTables[family+":"+style] = t
		}
	}
}

func tableFor(face Face) *widthTable {
	if strings.EqualFold(face.Family, "arial") || !IsCore(face.Family) {
		face.Family = "helvetica"
	}
	if t, ok := coreTables[face.Key()]; ok {
		return t
	}
	return coreTables["helvetica:"]
}

// Width returns the width of text in millimetres. Runes outside cp1252 are
// measured with the face's average glyph width.
func (CoreMetrics) Width(face Face, text string) float64 {
	coreOnce.Do(loadCoreTables)
	t := tableFor(face)

	units := 0.0
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok || b < 32 {
			units += t.average
			continue
		}
		units += float64(t.widths[b])
	}
	return units / 1000 * face.Size * PointToMM
}

// Lossy reports whether text contains runes the standard fonts cannot draw
func (CoreMetrics) Lossy(text string) bool {
	_, lossy := EncodeWinAnsi(text)
	return lossy
}

// EncodeWinAnsi converts UTF-8 text to cp1252 bytes for the standard fonts.
// Runes without a cp1252 code are replaced by '?' and reported as lossy.
func EncodeWinAnsi(text string) (string, bool) {
	var b strings.Builder
	b.Grow(len(text))
	lossy := false
	for _, r := range text {
		if r == '\n' || r == '\t' {
			b.WriteByte(' ')
			continue
		}
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok || c < 32 {
			b.WriteByte('?')
			lossy = true
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), lossy
}

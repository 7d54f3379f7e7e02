package layout

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/weareuntitled/fixundfertig/internal/fonts"
)

// warnings collects messages once each, in order
type warnings struct {
	list []string
	seen map[string]bool
}

func (w *warnings) add(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	if w.seen[msg] {
		return
	}
	w.seen[msg] = true
	w.list = append(w.list, msg)
}

// canvas draws text on an fpdf document, encoding for the active font
// kind and measuring with the same metrics the layout decisions use.
type canvas struct {
	pdf      *fpdf.Fpdf
	metrics  fonts.Metrics
	unicode  bool
	coverage *fonts.Coverage
	warn     *warnings
}

func (c *canvas) encode(text, field string) string {
	if c.unicode {
		if c.coverage != nil && c.coverage.Missing(text) {
			c.warn.add("%s: characters missing from the embedded font", field)
		}
		return text
	}
	out, lossy := fonts.EncodeWinAnsi(text)
	if lossy {
		c.warn.add("%s: characters outside WinAnsi replaced by '?'", field)
	}
	return out
}

func (c *canvas) width(face fonts.Face, text string) float64 {
	return c.metrics.Width(face, text)
}

func (c *canvas) text(face fonts.Face, x, baseline float64, text, field string) {
	if text == "" {
		return
	}
	c.pdf.SetFont(face.Family, face.Style, face.Size)
	c.pdf.Text(x, baseline, c.encode(text, field))
}

func (c *canvas) textRight(face fonts.Face, right, baseline float64, text, field string) {
	if text == "" {
		return
	}
	c.text(face, right-c.width(face, text), baseline, text, field)
}

func (c *canvas) line(x1, y1, x2, y2, width float64) {
	c.pdf.SetLineWidth(width)
	c.pdf.Line(x1, y1, x2, y2)
}

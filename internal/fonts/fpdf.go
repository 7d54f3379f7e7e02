package fonts

import "github.com/go-pdf/fpdf"

// DocumentMetrics measures through a live fpdf document using its
// registered fonts. The document must use millimetre units. Not safe for
// concurrent use; it changes the document's current font.
type DocumentMetrics struct {
	pdf *fpdf.Fpdf
}

// NewDocumentMetrics wraps a document whose fonts are already registered
func NewDocumentMetrics(pdf *fpdf.Fpdf) *DocumentMetrics {
	return &DocumentMetrics{pdf: pdf}
}

// Width returns the width of text in millimetres
func (m *DocumentMetrics) Width(face Face, text string) float64 {
	m.pdf.SetFont(face.Family, face.Style, face.Size)
	return m.pdf.GetStringWidth(text)
}

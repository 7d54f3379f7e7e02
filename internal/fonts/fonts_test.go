package fonts_test

import (
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/weareuntitled/fixundfertig/internal/fonts"
)

func TestParseFace(t *testing.T) {
	tests := []struct {
		name   string
		family string
		style  string
	}{
		{"Helvetica", "Helvetica", ""},
		{"Helvetica-Bold", "Helvetica", "B"},
		{"Helvetica-Oblique", "Helvetica", "I"},
		{"Helvetica-BoldOblique", "Helvetica", "BI"},
		{"Times-Roman", "Times", ""},
		{"Courier-Bold", "Courier", "B"},
		{"Arial-Bold", "Helvetica", "B"},
		{"DejaVuSans", "DejaVuSans", ""},
		{"Open-Sans", "Open-Sans", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := fonts.ParseFace(tt.name, 10)
			assert.Equal(t, tt.family, face.Family)
			assert.Equal(t, tt.style, face.Style)
			assert.Equal(t, 10.0, face.Size)
		})
	}
}

func TestFace_Bold(t *testing.T) {
	assert.Equal(t, "B", fonts.Face{Family: "Helvetica"}.Bold().Style)
	assert.Equal(t, "BI", fonts.Face{Family: "Helvetica", Style: "I"}.Bold().Style)
	assert.Equal(t, "B", fonts.Face{Family: "Helvetica", Style: "B"}.Bold().Style)
}

func TestFace_Key(t *testing.T) {
	tests := []struct {
		face fonts.Face
		want string
	}{
		{fonts.Face{Family: "Helvetica"}, "helvetica:"},
		{fonts.Face{Family: "Times", Style: "b"}, "times:B"},
		{fonts.Face{Family: "COURIER", Style: "IB"}, "courier:BI"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.face.Key())
	}

	m := fonts.Core()
	assert.InDelta(t,
		m.Width(fonts.Face{Family: "Times", Style: "BI", Size: 10}, "Summe"),
		m.Width(fonts.Face{Family: "TIMES", Style: "ib", Size: 10}, "Summe"), 0.0001)
}

func TestCoverage(t *testing.T) {
	c, err := fonts.NewCoverage(goregular.TTF)
	require.NoError(t, err)

	tests := []struct {
		text    string
		missing bool
	}{
		{"Grüße aus Köln, 19 % € §", false},
		{"Łódź", false},
		{"Kaffee ☕", true},
		{"Tab\tund\nZeile", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.missing, c.Missing(tt.text), tt.text)
	}

	_, err = fonts.NewCoverage([]byte("not a font"))
	assert.Error(t, err)
}

func TestCoreMetrics_MatchesFpdf(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "B", 10)
	text := "Rechnung 2026 Gesamt"

	got := fonts.Core().Width(fonts.Face{Family: "Helvetica", Style: "B", Size: 10}, text)
	assert.InDelta(t, pdf.GetStringWidth(text), got, 0.001)
}

func TestCoreMetrics_Umlauts(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 10)

	encoded, lossy := fonts.EncodeWinAnsi("Fällig am")
	require.False(t, lossy)

	got := fonts.Core().Width(fonts.Face{Family: "Helvetica", Size: 10}, "Fällig am")
	assert.InDelta(t, pdf.GetStringWidth(encoded), got, 0.001)
}

func TestCoreMetrics_Scaling(t *testing.T) {
	m := fonts.Core()
	small := m.Width(fonts.Face{Family: "Times", Size: 5}, "Leistung")
	large := m.Width(fonts.Face{Family: "Times", Size: 10}, "Leistung")
	assert.InDelta(t, small*2, large, 0.0001)
	assert.Zero(t, m.Width(fonts.Face{Family: "Times", Size: 10}, ""))
}

func TestCoreMetrics_Fallback(t *testing.T) {
	m := fonts.Core()
	face := fonts.Face{Family: "Helvetica", Size: 10}

	assert.True(t, m.Lossy("Łódź"))
	assert.False(t, m.Lossy("Köln € 19 %"))
	assert.Greater(t, m.Width(face, "Ł"), 0.0)

	unknown := m.Width(fonts.Face{Family: "NoSuchFont", Size: 10}, "abc")
	assert.InDelta(t, m.Width(face, "abc"), unknown, 0.0001)
}

func TestEncodeWinAnsi(t *testing.T) {
	out, lossy := fonts.EncodeWinAnsi("Grüße €")
	assert.False(t, lossy)
	assert.Equal(t, []byte{'G', 'r', 0xfc, 0xdf, 'e', ' ', 0x80}, []byte(out))

	out, lossy = fonts.EncodeWinAnsi("Łódź")
	assert.True(t, lossy)
	assert.Equal(t, "?\xf3d?", out)
}

func TestCoreMetrics_Concurrent(t *testing.T) {
	face := fonts.Face{Family: "Courier", Size: 12}
	want := fonts.Core().Width(face, "concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.InDelta(t, want, fonts.Core().Width(face, "concurrent"), 0.0001)
		}()
	}
	wg.Wait()
}

func TestDocumentMetrics(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	m := fonts.NewDocumentMetrics(pdf)

	face := fonts.Face{Family: "Helvetica", Size: 10}
	assert.InDelta(t, fonts.Core().Width(face, "Netto"), m.Width(face, "Netto"), 0.001)
}

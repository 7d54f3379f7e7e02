package layout

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	money "github.com/weareuntitled/fixundfertig/internal/decimal"
	"github.com/weareuntitled/fixundfertig/internal/fonts"
	"github.com/weareuntitled/fixundfertig/internal/table"
)

const dateLayout = "02.01.2006"

func (p *page) drawMarks() {
	for _, y := range p.cfg.FoldMarks {
		if y > 0 {
			p.c.line(0, y, p.cfg.MarkLength, y, 0.2)
		}
	}
	if p.cfg.PunchMark > 0 {
		p.c.line(0, p.cfg.PunchMark, p.cfg.MarkLength*1.5, p.cfg.PunchMark, 0.2)
	}
}

// drawHeader draws logo or sender name on the left and the title column
// on the right. With a logo the sender identity heads the right column.
// Returns the lowest y used.
func (p *page) drawHeader() float64 {
	left := 0.0
	placed := false
	if p.logo != "" {
		h, err := p.drawLogo()
		if err != nil {
			p.warn.add("logo: %v", err)
			p.logger.Warn("logo unusable, falling back to text header", "path", p.logo, "error", err)
		} else {
			left = p.cfg.MarginTop + h
			placed = true
		}
	}
	top := p.cfg.MarginTop
	if placed {
		top = p.drawSenderBlock()
	} else {
		left = p.drawSenderName()
	}
	return max(left, p.drawTitle(top))
}

func (p *page) drawLogo() (float64, error) {
	img, err := loadLogo(p.logo, p.cfg.LogoMaxPixels)
	if err != nil {
		return 0, err
	}

	opts := fpdf.ImageOptions{ImageType: "png"}

	// fpdf errors are sticky, so the image is parsed on a scratch document first
	scratch := fpdf.New("P", "mm", "A4", "")
	scratch.RegisterImageOptionsReader("logo", opts, bytes.NewReader(img.data))
	if scratch.Err() {
		return 0, scratch.Error()
	}

	p.pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(img.data))
	w, h := fitBox(img.width, img.height, p.cfg.LogoMaxWidth, p.cfg.LogoMaxHeight)
	p.pdf.ImageOptions("logo", p.cfg.MarginX, p.cfg.MarginTop, w, h, false, opts, 0, "")

	p.logger.Debug("logo placed", "format", img.format, "width_mm", w, "height_mm", h)
	return h, nil
}

func (p *page) drawSenderName() float64 {
	face := p.bold.WithSize(p.cfg.TextFontSize * 1.4)
	lh := p.lineHeight(face.Size)

	lines := table.WrapText(p.c.metrics, face, p.doc.Seller.Name, p.cfg.LogoMaxWidth)
	if limit := max(1, int(p.cfg.LogoMaxHeight/lh)); len(lines) > limit {
		lines = lines[:limit]
		p.warn.add("seller.name: truncated to %d lines", limit)
	}

	y := p.cfg.MarginTop
	for _, line := range lines {
		p.c.text(face, p.cfg.MarginX, p.baseline(y, face.Size), line, "seller.name")
		y += lh
	}
	return y
}

// drawSenderBlock right-aligns name and address opposite the logo
func (p *page) drawSenderBlock() float64 {
	s := p.doc.Seller
	small := p.regular.WithSize(p.cfg.SmallFontSize)

	y := p.cfg.MarginTop
	for _, l := range []struct {
		face  fonts.Face
		text  string
		field string
	}{
		{p.bold, s.Name, "seller.name"},
		{small, s.Street, "seller.street"},
		{small, s.CityLine(), "seller.city"},
	} {
		if strings.TrimSpace(l.text) != "" {
			y = p.rightLines(l.face, y, l.text, l.field, 1)
		}
	}
	if y == p.cfg.MarginTop {
		return y
	}
	return y + p.lineHeight(small.Size)
}

func (p *page) drawTitle(top float64) float64 {
	y := p.rightLines(p.bold.WithSize(p.cfg.TitleFontSize), top, p.doc.Title, "title", 2)
	if !p.doc.IsDraft() {
		y = p.rightLines(p.regular, y, "Nr. "+p.doc.Number, "number", 2)
	}
	return y
}

// rightLines draws text right aligned in the header column, at most limit lines
func (p *page) rightLines(face fonts.Face, top float64, text, field string, limit int) float64 {
	lh := p.lineHeight(face.Size)
	lines := table.WrapText(p.c.metrics, face, text, p.cfg.HeaderColumnWidth)
	if len(lines) > limit {
		lines = lines[:limit]
		p.warn.add("%s: truncated to %d lines", field, limit)
	}
	y := top
	for _, line := range lines {
		p.c.textRight(face, p.cfg.RightEdge(), p.baseline(y, face.Size), line, field)
		y += lh
	}
	return y
}

// drawAddress fills the address window: return line, then recipient
func (p *page) drawAddress() float64 {
	x := p.cfg.AddressX

	small := p.regular.WithSize(p.cfg.SmallFontSize)
	if ret := p.returnLine(small); ret != "" {
		underlined := small
		underlined.Style += "U"
		top := p.cfg.AddressTop + p.cfg.ReturnLineOffset
		p.c.text(underlined, x, p.baseline(top, small.Size), ret, "seller")
	}

	rec := p.doc.Recipient
	lines := []struct {
		text  string
		field string
	}{
		{rec.Name, "recipient.name"},
		{rec.Street, "recipient.street"},
		{rec.CityLine(), "recipient.city"},
		{rec.Country, "recipient.country"},
	}

	lh := p.lineHeight(p.regular.Size)
	y := p.cfg.AddressTop + p.cfg.RecipientOffset
	for _, l := range lines {
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		p.c.text(p.regular, x, p.baseline(y, p.regular.Size), l.text, l.field)
		y += lh
	}
	return y
}

// returnLine joins the sender address, dropping the street if too wide
func (p *page) returnLine(face fonts.Face) string {
	s := p.doc.Seller
	var parts []string
	for _, part := range []string{s.Name, s.Street, s.CityLine()} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	line := strings.Join(parts, " · ")
	if len(parts) == 3 && p.c.width(face, line) > p.cfg.AddressWidth {
		line = parts[0] + " · " + parts[2]
	}
	return line
}

type metaRow struct {
	label string
	value string
	field string
}

func (p *page) metaRows() []metaRow {
	d := p.doc
	number := d.Number
	if d.IsDraft() {
		number = "Entwurf"
	}

	rows := []metaRow{
		{"Rechnungsnummer", number, "number"},
		{"Rechnungsdatum", d.IssueDate.Format(dateLayout), "issue_date"},
	}
	if d.DeliveryDate != nil {
		rows = append(rows, metaRow{"Leistungsdatum", d.DeliveryDate.Format(dateLayout), "delivery_date"})
	}
	rows = append(rows, metaRow{"Fällig am", d.DueDate(p.cfg.DueDays).Format(dateLayout), "due_date"})
	if d.Seller.TaxID != "" {
		rows = append(rows, metaRow{"Steuernummer", d.Seller.TaxID, "seller.tax_id"})
	}
	if d.Seller.VATID != "" {
		rows = append(rows, metaRow{"USt-IdNr.", d.Seller.VATID, "seller.vat_id"})
	}
	return rows
}

// drawMeta draws the right aligned metadata block below the header
func (p *page) drawMeta(headerBottom float64) float64 {
	lh := p.lineHeight(p.regular.Size)
	y := max(p.cfg.MetaTop, headerBottom+lh/2)
	x := p.cfg.HeaderColumnX()

	for _, row := range p.metaRows() {
		b := p.baseline(y, p.regular.Size)
		p.c.text(p.regular, x, b, row.label, "meta")
		p.c.textRight(p.regular, p.cfg.RightEdge(), b, row.value, row.field)
		y += lh
	}
	return y
}

func (p *page) drawIntro(y float64) float64 {
	text := strings.TrimSpace(p.doc.IntroText)
	if text == "" {
		text = p.cfg.DefaultIntro
	}
	if text == "" {
		return y
	}

	lh := p.lineHeight(p.regular.Size)
	for _, line := range table.WrapText(p.c.metrics, p.regular, text, p.cfg.ContentWidth()) {
		if y+lh > p.bodyBottom() {
			p.addPage()
			y = p.cfg.MarginTop
		}
		p.c.text(p.regular, p.cfg.MarginX, p.baseline(y, p.regular.Size), line, "intro_text")
		y += lh
	}
	return y + lh/2
}

func (p *page) drawTable(y float64) (float64, error) {
	f, err := table.NewFormatter(p.cfg.TableConfig(), p.regular, p.c.metrics)
	if err != nil {
		return y, err
	}

	rows := f.Rows(p.doc.Items)
	widths := f.Widths()
	lh := p.lineHeight(p.regular.Size)

	frame := table.Frame{
		Top:          p.cfg.MarginTop,
		Bottom:       p.bodyBottom(),
		Reserved:     lh,
		HeaderHeight: p.cfg.HeaderRowHeight,
	}

	// keep the header together with the first row
	if len(rows) > 0 && frame.Bottom-(y+frame.HeaderHeight) < rows[0].Height+frame.Reserved {
		p.addPage()
		y = frame.Top
	}

	pag := table.Paginate(rows, y, frame)
	p.drawTableHeader(pag.Headers[0].Y, widths)

	prevEnd := y + frame.HeaderHeight
	for _, pl := range pag.Placements {
		if pl.Break {
			p.drawCarry(prevEnd, pl.Carry)
			p.addPage()
			p.drawTableHeader(pag.Headers[pl.Page].Y, widths)
		}
		row := rows[pl.Row]
		p.drawRow(pl.Row, row, pl.Y, widths, f.Padding())
		prevEnd = pl.Y + row.Height
	}

	p.logger.Debug("table placed", "rows", len(rows), "pages", pag.Pages)
	return pag.EndY, nil
}

func (p *page) drawTableHeader(top float64, w table.Widths) {
	pad := p.cfg.CellPadding
	left := p.cfg.MarginX
	b := top + p.cfg.HeaderRowHeight/2 + 0.35*p.bold.Size*fonts.PointToMM

	p.c.text(p.bold, left+pad, b, "Beschreibung", "table")
	p.c.textRight(p.bold, left+w.Description+w.Quantity-pad, b, "Menge", "table")
	p.c.textRight(p.bold, left+w.Total()-pad, b, "Betrag", "table")
	p.c.line(left, top+p.cfg.HeaderRowHeight, left+w.Total(), top+p.cfg.HeaderRowHeight, 0.3)
}

func (p *page) drawRow(i int, row table.Row, top float64, w table.Widths, pad float64) {
	left := p.cfg.MarginX
	lh := p.lineHeight(p.regular.Size)
	textTop := top + (row.Height-float64(len(row.Lines))*lh)/2
	field := fmt.Sprintf("items[%d].description", i)

	for j, line := range row.Lines {
		p.c.text(p.regular, left+pad, p.baseline(textTop+float64(j)*lh, p.regular.Size), line, field)
	}

	first := p.baseline(textTop, p.regular.Size)
	p.c.textRight(p.regular, left+w.Description+w.Quantity-pad, first, row.Quantity, "table")
	p.c.textRight(p.regular, left+w.Total()-pad, first, row.Amount, "table")
	p.c.line(left, top+row.Height, left+w.Total(), top+row.Height, 0.1)
}

// drawCarry writes the running net at the bottom of a page before a break
func (p *page) drawCarry(top float64, carry decimal.Decimal) {
	b := p.baseline(top, p.regular.Size)
	p.c.text(p.regular, p.cfg.RightEdge()-p.cfg.TotalsWidth, b, "Übertrag", "table")
	p.c.textRight(p.regular, p.cfg.RightEdge(), b, money.FormatEUR(carry), "table")
}

func (p *page) vatLabel() string {
	if len(p.totals.Rates) == 1 {
		return "zzgl. USt. " + money.FormatPercent(p.totals.Rates[0])
	}
	return "zzgl. USt."
}

func (p *page) paymentNote() string {
	if p.cfg.DueDays <= 0 {
		return "Zahlbar sofort ohne Abzug."
	}
	return fmt.Sprintf("Zahlbar bis %s ohne Abzug.", p.doc.DueDate(p.cfg.DueDays).Format(dateLayout))
}

// drawTotals draws the sums block, the small business note and the
// payment note. The block is moved to a new page as a whole.
func (p *page) drawTotals(y float64) {
	lh := p.lineHeight(p.regular.Size)
	y += lh / 2

	var disclaimer []string
	if p.doc.SmallBusiness && p.cfg.SmallBusinessDisclaimer != "" {
		disclaimer = table.WrapText(p.c.metrics, p.regular, p.cfg.SmallBusinessDisclaimer, p.cfg.ContentWidth())
	}

	rows := 2
	if p.totals.TaxApplied {
		rows++
	}
	need := float64(rows)*lh + lh/2 + float64(len(disclaimer))*lh + 2*lh
	if y+need > p.bodyBottom() {
		p.addPage()
		y = p.cfg.MarginTop
	}

	x := p.cfg.RightEdge() - p.cfg.TotalsWidth
	right := p.cfg.RightEdge()
	row := func(label, value string, face fonts.Face) {
		b := p.baseline(y, face.Size)
		p.c.text(face, x, b, label, "totals")
		p.c.textRight(face, right, b, value, "totals")
		y += lh
	}

	row("Nettobetrag", money.FormatEUR(p.totals.Net), p.regular)
	if p.totals.TaxApplied {
		row(p.vatLabel(), money.FormatEUR(p.totals.VAT), p.regular)
	}
	p.c.line(x, y, right, y, 0.3)
	row("Gesamtbetrag", money.FormatEUR(p.totals.Gross), p.bold)
	y += lh / 2

	for _, line := range disclaimer {
		p.c.text(p.regular, p.cfg.MarginX, p.baseline(y, p.regular.Size), line, "small_business_disclaimer")
		y += lh
	}

	y += lh / 2
	p.c.text(p.regular, p.cfg.MarginX, p.baseline(y, p.regular.Size), p.paymentNote(), "payment")
}

func (p *page) footerColumns() [3][]string {
	s := p.doc.Seller
	c := p.doc.Contact
	b := p.doc.Bank

	prefixed := func(prefix, value string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		return prefix + value
	}

	var cols [3][]string
	raw := [3][]string{
		{s.Name, s.Street, s.CityLine(), prefixed("Tel. ", c.Phone), c.Email, c.Website},
		{b.Name, prefixed("IBAN ", b.IBAN), prefixed("BIC ", b.BIC)},
		{prefixed("Steuernummer ", s.TaxID), prefixed("USt-IdNr. ", s.VATID)},
	}
	for i, col := range raw {
		for _, line := range col {
			if strings.TrimSpace(line) != "" {
				cols[i] = append(cols[i], line)
			}
		}
	}
	if len(cols[1]) > 0 {
		cols[1] = append([]string{"Bankverbindung"}, cols[1]...)
	}
	return cols
}

// drawFooter runs on every page through the fpdf footer hook
func (p *page) drawFooter() {
	small := p.regular.WithSize(p.cfg.SmallFontSize)
	lh := p.lineHeight(small.Size)
	top := p.cfg.FooterTop()

	p.c.line(p.cfg.MarginX, top-lh/2, p.cfg.RightEdge(), top-lh/2, 0.2)

	colWidth := p.cfg.ContentWidth() / 3
	limit := max(1, int(p.cfg.FooterHeight/lh))
	for i, col := range p.footerColumns() {
		x := p.cfg.MarginX + float64(i)*colWidth
		y := top
		for j, line := range col {
			if j >= limit {
				break
			}
			p.c.text(small, x, p.baseline(y, small.Size), line, "footer")
			y += lh
		}
	}

	// the page count alias is replaced after layout, so position by the widest expected label
	label := fmt.Sprintf("Seite %d von {nb}", p.pdf.PageNo())
	x := p.cfg.RightEdge() - p.c.width(small, "Seite 999 von 999")
	p.c.text(small, x, p.baseline(top+p.cfg.FooterHeight, small.Size), label, "footer")
}

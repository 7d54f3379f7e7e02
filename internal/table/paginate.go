package table

import (
	"github.com/shopspring/decimal"

	money "github.com/weareuntitled/fixundfertig/internal/decimal"
)

// Frame is the vertical space available for the table on each page
type Frame struct {
	Top          float64 // header position on continuation pages
	Bottom       float64 // lowest usable y
	Reserved     float64 // kept free below every row, e.g. for the carry-over line
	HeaderHeight float64
}

// Header marks where a table header is drawn
type Header struct {
	Page int
	Y    float64
}

// Placement positions one row
type Placement struct {
	Row   int
	Page  int
	Y     float64
	Break bool            // first row after a page break
	Carry decimal.Decimal // running net of all rows placed before this one
}

// Pagination is the full placement of a table
type Pagination struct {
	Headers    []Header
	Placements []Placement
	Pages      int
	EndY       float64
	Net        decimal.Decimal
}

// Paginate places rows starting with a header at startY. A row that does
// not fit above Bottom minus Reserved moves to a new page whose header is
// drawn at Top. Column widths are not part of pagination and never change.
func Paginate(rows []Row, startY float64, frame Frame) Pagination {
	p := Pagination{
		Headers: []Header{{Page: 0, Y: startY}},
		Pages:   1,
		Net:     money.Zero,
	}

	page := 0
	y := startY + frame.HeaderHeight
	pageStart := y

	for i, row := range rows {
		brk := false
		if frame.Bottom-y < row.Height+frame.Reserved && y > pageStart {
			page++
			p.Headers = append(p.Headers, Header{Page: page, Y: frame.Top})
			y = frame.Top + frame.HeaderHeight
			pageStart = y
			brk = true
		}

		p.Placements = append(p.Placements, Placement{
			Row:   i,
			Page:  page,
			Y:     y,
			Break: brk,
			Carry: p.Net,
		})
		p.Net = p.Net.Add(row.Net)
		y += row.Height
	}

	p.Pages = page + 1
	p.EndY = y
	return p
}

// PageBreaks returns the placements that start a new page
func (p Pagination) PageBreaks() []Placement {
	var out []Placement
	for _, pl := range p.Placements {
		if pl.Break {
			out = append(out, pl)
		}
	}
	return out
}

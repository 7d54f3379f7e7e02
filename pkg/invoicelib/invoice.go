// Package invoicelib provides a public API for rendering German invoices as
// PDF/A-3b documents with an embedded Factur-X BASIC XML.
//
// Example usage:
//
//	r := invoicelib.NewDefaultRenderer()
//	res, err := r.RenderJSON(ctx, file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("invoice.pdf", res.PDF, 0o644)
package invoicelib

import (
	"github.com/weareuntitled/fixundfertig/internal/layout"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

// Re-export core types for public API
type (
	InvoiceDocument = model.InvoiceDocument
	InvoiceInput    = model.InvoiceInput
	ItemInput       = model.ItemInput
	LineItem        = model.LineItem
	PartyAddress    = model.PartyAddress
	Contact         = model.Contact
	BankAccount     = model.BankAccount
	TotalsResult    = model.TotalsResult
	RenderConfig    = layout.Config
)

// Re-export error types
type (
	ValidationError = model.ValidationError
	ContractError   = model.ContractError
	RenderError     = model.RenderError
)

// DraftNumber is written to the XML for invoices without a number
const DraftNumber = model.DraftNumber

// ParseInput decodes the JSON invoice shape
func ParseInput(data []byte) (*InvoiceInput, error) {
	return model.ParseInput(data)
}

// DefaultRenderConfig returns the DIN 5008 A4 layout
func DefaultRenderConfig() RenderConfig {
	return layout.DefaultConfig()
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftNumber is used wherever an invoice number is required but the document is a draft
const DraftNumber = "DRAFT"

// PartyAddress represents seller or recipient
type PartyAddress struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`          // ISO 3166-1 alpha-2 or display name
	TaxID      string `json:"tax_id,omitempty"` // Steuernummer
	VATID      string `json:"vat_id,omitempty"` // USt-IdNr.
}

// CityLine returns "postal code city"
func (p PartyAddress) CityLine() string {
	switch {
	case p.PostalCode == "":
		return p.City
	case p.City == "":
		return p.PostalCode
	default:
		return p.PostalCode + " " + p.City
	}
}

// Contact holds seller contact details printed in the footer
type Contact struct {
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

// BankAccount holds seller payment details
type BankAccount struct {
	Name string `json:"name,omitempty"`
	IBAN string `json:"iban,omitempty"`
	BIC  string `json:"bic,omitempty"`
}

// LineItem represents one invoice position. Amounts are exact decimals,
// TaxRate is a percentage (19 means 19 %).
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// Net returns quantity * unit price, unrounded
func (li LineItem) Net() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// LineNets returns the unrounded net of every item
func LineNets(items []LineItem) []decimal.Decimal {
	nets := make([]decimal.Decimal, len(items))
	for i, item := range items {
		nets[i] = item.Net()
	}
	return nets
}

// InvoiceDocument is everything needed to render one invoice
type InvoiceDocument struct {
	Title        string     `json:"title"`
	Number       string     `json:"number,omitempty"` // empty for drafts
	IssueDate    time.Time  `json:"issue_date"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	Seller    PartyAddress `json:"seller"`
	Recipient PartyAddress `json:"recipient"`
	BuyerName string       `json:"buyer_name,omitempty"` // linked customer, falls back to recipient

	Items         []LineItem `json:"items"`
	SmallBusiness bool       `json:"small_business"`
	IntroText     string     `json:"intro_text,omitempty"`

	Contact   Contact     `json:"contact"`
	Bank      BankAccount `json:"bank"`
	CompanyID string      `json:"company_id,omitempty"`
	LogoPath  string      `json:"-"` // trusted callers only, never decoded
}

// IsDraft returns true when no invoice number has been assigned
func (d *InvoiceDocument) IsDraft() bool {
	return d.Number == ""
}

// DocumentNumber returns the invoice number or the draft placeholder
func (d *InvoiceDocument) DocumentNumber() string {
	if d.IsDraft() {
		return DraftNumber
	}
	return d.Number
}

// Buyer returns the buyer name for structured data
func (d *InvoiceDocument) Buyer() string {
	if d.BuyerName != "" {
		return d.BuyerName
	}
	return d.Recipient.Name
}

// DueDate returns issue date plus the payment term in days
func (d *InvoiceDocument) DueDate(days int) time.Time {
	return d.IssueDate.AddDate(0, 0, days)
}

// TotalsResult holds quantized invoice totals
type TotalsResult struct {
	Net        decimal.Decimal   `json:"net"`
	VAT        decimal.Decimal   `json:"vat"`
	Gross      decimal.Decimal   `json:"gross"`
	TaxRate    decimal.Decimal   `json:"tax_rate"`    // effective rate in percent
	TaxApplied bool              `json:"tax_applied"` // true when any VAT was charged
	Rates      []decimal.Decimal `json:"rates,omitempty"`
}

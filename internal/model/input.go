package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	money "github.com/weareuntitled/fixundfertig/internal/decimal"
)

// InvoiceInput is the JSON shape accepted by the CLI and the HTTP API
type InvoiceInput struct {
	Title         string       `json:"title"`
	Number        string       `json:"number,omitempty"`
	IssueDate     string       `json:"issue_date"`
	DeliveryDate  string       `json:"delivery_date,omitempty"`
	Seller        PartyAddress `json:"seller"`
	Recipient     PartyAddress `json:"recipient"`
	BuyerName     string       `json:"buyer_name,omitempty"`
	Items         []ItemInput  `json:"items"`
	SmallBusiness bool         `json:"small_business"`
	IntroText     string       `json:"intro_text,omitempty"`
	Contact       Contact      `json:"contact"`
	Bank          BankAccount  `json:"bank"`
	CompanyID     string       `json:"company_id,omitempty"` // selects the logo
}

// ItemInput is one position as received. Amounts may be JSON numbers or
// strings in German or plain notation.
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    json.RawMessage `json:"quantity,omitempty"`
	UnitPrice   json.RawMessage `json:"unit_price,omitempty"`
	TaxRate     json.RawMessage `json:"tax_rate,omitempty"`
}

// ParseInput decodes an InvoiceInput from JSON
func ParseInput(data []byte) (*InvoiceInput, error) {
	var in InvoiceInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode invoice input: %w", err)
	}
	return &in, nil
}

// ToDocument converts the wire shape into an InvoiceDocument. Bad dates are
// fatal; a bad item amount only zeroes that item and yields a warning.
func (in *InvoiceInput) ToDocument() (*InvoiceDocument, []string, error) {
	issue, err := parseDate(in.IssueDate)
	if err != nil {
		return nil, nil, NewValidationError("issue_date", in.IssueDate, "date", err.Error())
	}

	doc := &InvoiceDocument{
		Title:         in.Title,
		Number:        strings.TrimSpace(in.Number),
		IssueDate:     issue,
		Seller:        in.Seller,
		Recipient:     in.Recipient,
		BuyerName:     in.BuyerName,
		SmallBusiness: in.SmallBusiness,
		IntroText:     in.IntroText,
		Contact:       in.Contact,
		Bank:          in.Bank,
		CompanyID:     in.CompanyID,
	}

	if strings.TrimSpace(in.DeliveryDate) != "" {
		delivery, err := parseDate(in.DeliveryDate)
		if err != nil {
			return nil, nil, NewValidationError("delivery_date", in.DeliveryDate, "date", err.Error())
		}
		doc.DeliveryDate = &delivery
	}

	var warnings []string
	doc.Items = make([]LineItem, 0, len(in.Items))
	for i, it := range in.Items {
		item, warn := it.toLineItem()
		if warn != "" {
			warnings = append(warnings, fmt.Sprintf("item %d: %s", i+1, warn))
		}
		doc.Items = append(doc.Items, item)
	}

	return doc, warnings, nil
}

func (it ItemInput) toLineItem() (LineItem, string) {
	item := LineItem{Description: it.Description}

	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *decimal.Decimal
	}{
		{"quantity", it.Quantity, &item.Quantity},
		{"unit_price", it.UnitPrice, &item.UnitPrice},
		{"tax_rate", it.TaxRate, &item.TaxRate},
	}

	for _, f := range fields {
		v, err := parseAmount(f.raw)
		if err != nil {
			return LineItem{Description: it.Description}, fmt.Sprintf("%s: %v", f.name, err)
		}
		*f.dst = v
	}
	return item, ""
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return money.Zero, nil
	}

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return money.Zero, err
		}
		if strings.TrimSpace(s) == "" {
			return money.Zero, nil
		}
		d, err := money.FromString(s)
		if err != nil {
			return money.Zero, fmt.Errorf("cannot parse amount %q", s)
		}
		return d, nil
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return money.Zero, fmt.Errorf("cannot parse amount %s", text)
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		"2006-01-02",
		"02.01.2006",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date: %q", s)
}

// ToInput converts a document back into its wire shape
func (d *InvoiceDocument) ToInput() *InvoiceInput {
	in := &InvoiceInput{
		Title:         d.Title,
		Number:        d.Number,
		IssueDate:     d.IssueDate.Format("2006-01-02"),
		Seller:        d.Seller,
		Recipient:     d.Recipient,
		BuyerName:     d.BuyerName,
		SmallBusiness: d.SmallBusiness,
		IntroText:     d.IntroText,
		Contact:       d.Contact,
		Bank:          d.Bank,
		CompanyID:     d.CompanyID,
	}
	if d.DeliveryDate != nil {
		in.DeliveryDate = d.DeliveryDate.Format("2006-01-02")
	}
	for _, it := range d.Items {
		in.Items = append(in.Items, ItemInput{
			Description: it.Description,
			Quantity:    json.RawMessage(it.Quantity.String()),
			UnitPrice:   json.RawMessage(it.UnitPrice.String()),
			TaxRate:     json.RawMessage(it.TaxRate.String()),
		})
	}
	return in
}

package facturx

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/weareuntitled/fixundfertig/internal/model"
)

// Profile is a Factur-X / ZUGFeRD conformance level
type Profile string

const (
	ProfileUnknown   Profile = "UNKNOWN"
	ProfileMinimum   Profile = "MINIMUM"
	ProfileBasicWL   Profile = "BASIC WL"
	ProfileBasic     Profile = "BASIC"
	ProfileEN16931   Profile = "EN16931"
	ProfileExtended  Profile = "EXTENDED"
	ProfileXRechnung Profile = "XRECHNUNG"
)

// guideline suffixes checked in order, most specific first
var profileMarkers = []struct {
	marker  string
	profile Profile
}{
	{"xrechnung", ProfileXRechnung},
	{":extended", ProfileExtended},
	{"1p0:basicwl", ProfileBasicWL},
	{"1p0:basic", ProfileBasic},
	{"1p0:minimum", ProfileMinimum},
	{"urn:cen.eu:en16931:2017", ProfileEN16931},
}

// DetectProfile maps a guideline identifier to its profile
func DetectProfile(guideline string) Profile {
	g := strings.ToLower(strings.TrimSpace(guideline))
	if g == "" {
		return ProfileUnknown
	}
	for _, m := range profileMarkers {
		if strings.Contains(g, m.marker) {
			return m.profile
		}
	}
	return ProfileUnknown
}

// Summary is the header data of a CII invoice
type Summary struct {
	Guideline  string          `json:"guideline"`
	Profile    Profile         `json:"profile"`
	ID         string          `json:"id"`
	TypeCode   string          `json:"type_code"`
	IssueDate  time.Time       `json:"issue_date"`
	Seller     string          `json:"seller"`
	Buyer      string          `json:"buyer"`
	Currency   string          `json:"currency"`
	LineCount  int             `json:"line_count"`
	Net        decimal.Decimal `json:"net"`
	VAT        decimal.Decimal `json:"vat"`
	Gross      decimal.Decimal `json:"gross"`
	DuePayable decimal.Decimal `json:"due_payable"`
}

// Parse reads a CII document. Elements are matched by local name, so any
// namespace prefix works.
func Parse(data []byte) (*Summary, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty XML document")
	}
	if root.Tag != "CrossIndustryInvoice" {
		return nil, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	s := &Summary{
		Guideline: text(root, "ExchangedDocumentContext", "GuidelineSpecifiedDocumentContextParameter", "ID"),
		ID:        text(root, "ExchangedDocument", "ID"),
		TypeCode:  text(root, "ExchangedDocument", "TypeCode"),
	}
	s.Profile = DetectProfile(s.Guideline)

	if raw := text(root, "ExchangedDocument", "IssueDateTime", "DateTimeString"); raw != "" {
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return nil, model.NewValidationError("IssueDateTime", raw, "format_102", "issue date is not YYYYMMDD")
		}
		s.IssueDate = t
	}

	tx := child(root, "SupplyChainTradeTransaction")
	if tx == nil {
		return nil, fmt.Errorf("no SupplyChainTradeTransaction element found in document")
	}

	for _, el := range tx.ChildElements() {
		if el.Tag == "IncludedSupplyChainTradeLineItem" {
			s.LineCount++
		}
	}

	s.Seller = text(tx, "ApplicableHeaderTradeAgreement", "SellerTradeParty", "Name")
	s.Buyer = text(tx, "ApplicableHeaderTradeAgreement", "BuyerTradeParty", "Name")
	s.Currency = text(tx, "ApplicableHeaderTradeSettlement", "InvoiceCurrencyCode")

	sum := []string{"ApplicableHeaderTradeSettlement", "SpecifiedTradeSettlementHeaderMonetarySummation"}
	amounts := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"TaxBasisTotalAmount", &s.Net},
		{"TaxTotalAmount", &s.VAT},
		{"GrandTotalAmount", &s.Gross},
		{"DuePayableAmount", &s.DuePayable},
	}
	for _, a := range amounts {
		raw := text(tx, append(sum, a.name)...)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, model.NewValidationError(a.name, raw, "decimal", "amount is not a decimal")
		}
		*a.dst = d
	}

	return s, nil
}

// child walks down the tree by local element names
func child(elem *etree.Element, path ...string) *etree.Element {
	current := elem
	for _, name := range path {
		var next *etree.Element
		for _, c := range current.ChildElements() {
			if c.Tag == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

func text(elem *etree.Element, path ...string) string {
	if e := child(elem, path...); e != nil {
		return strings.TrimSpace(e.Text())
	}
	return ""
}

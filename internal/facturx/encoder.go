// Package facturx encodes invoices as Factur-X / ZUGFeRD CII XML and reads
// such documents back.
package facturx

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	money "github.com/weareuntitled/fixundfertig/internal/decimal"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

const (
	// GuidelineBasic identifies the Factur-X 1.0 BASIC profile
	GuidelineBasic = "urn:cen.eu:en16931:2017#compliant#urn:factur-x.eu:1p0:basic"

	// TypeCodeInvoice is UNTDID 1001 commercial invoice
	TypeCodeInvoice = "380"

	// DateFormat102 is the CII code for YYYYMMDD
	DateFormat102 = "102"

	// UnitPiece is the UN/ECE rec 20 code for "one"
	UnitPiece = "C62"

	// PaymentMeansSEPA is UNTDID 4461 SEPA credit transfer
	PaymentMeansSEPA = "58"

	// FileName is the attachment name required by Factur-X
	FileName = "factur-x.xml"
)

// VAT category codes (UNCL 5305)
const (
	CategoryStandard = "S"
	CategoryZero     = "Z"
	CategoryExempt   = "E"
)

// Config holds encoder settings
type Config struct {
	Currency        string
	DueDays         int
	ExemptionReason string
}

// DefaultConfig returns EUR with a 14 day payment term
func DefaultConfig() Config {
	return Config{
		Currency:        "EUR",
		DueDays:         14,
		ExemptionReason: "Kleinunternehmer gemäß § 19 UStG",
	}
}

// Encoder produces CII XML. Output depends only on its inputs.
type Encoder struct {
	cfg Config
}

// NewEncoder creates an encoder
func NewEncoder(cfg Config) *Encoder {
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &Encoder{cfg: cfg}
}

// Encode serializes document and totals as a Factur-X BASIC invoice
func (e *Encoder) Encode(doc *model.InvoiceDocument, totals model.TotalsResult) ([]byte, error) {
	if doc == nil {
		return nil, model.NewRenderError("facturx", "nil document", nil)
	}

	category := e.category(doc, totals)

	inv := &xmlInvoice{
		Rsm: NamespaceRSM,
		Qdt: NamespaceQDT,
		Ram: NamespaceRAM,
		Udt: NamespaceUDT,
		Context: xmlContext{
			GuidelineID: GuidelineBasic,
		},
		Document: xmlDocument{
			ID:        doc.DocumentNumber(),
			TypeCode:  TypeCodeInvoice,
			IssueDate: dateTime(doc.IssueDate),
		},
	}

	if intro := strings.TrimSpace(doc.IntroText); intro != "" {
		inv.Document.Notes = []xmlNote{{Content: intro}}
	}

	// line totals add up to the header LineTotalAmount
	lineTotals := money.AllocateCents(model.LineNets(doc.Items))
	for i, item := range doc.Items {
		inv.Transaction.Lines = append(inv.Transaction.Lines, e.lineItem(i+1, item, lineTotals[i], category))
	}

	inv.Transaction.Agreement = xmlAgreement{
		Seller: party(doc.Seller.Name, doc.Seller, true),
		Buyer:  party(doc.Buyer(), doc.Recipient, false),
	}

	if doc.DeliveryDate != nil {
		inv.Transaction.Delivery.Event = &xmlDeliveryEvent{Occurrence: dateTime(*doc.DeliveryDate)}
	}

	inv.Transaction.Settlement = e.settlement(doc, totals, category)

	output, err := xml.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, model.NewRenderError("facturx", "failed to marshal CII XML", err)
	}

	return []byte(xml.Header + string(output)), nil
}

func (e *Encoder) category(doc *model.InvoiceDocument, totals model.TotalsResult) string {
	switch {
	case doc.SmallBusiness:
		return CategoryExempt
	case totals.TaxApplied:
		return CategoryStandard
	default:
		return CategoryZero
	}
}

func (e *Encoder) lineItem(n int, item model.LineItem, total decimal.Decimal, category string) xmlLineItem {
	rate := money.Zero
	if category == CategoryStandard {
		rate = item.TaxRate
	}

	name := strings.TrimSpace(item.Description)
	if name == "" {
		name = "Position " + strconv.Itoa(n)
	}

	return xmlLineItem{
		LineID:   strconv.Itoa(n),
		Product:  name,
		NetPrice: amountText(item.UnitPrice),
		Quantity: xmlQuantity{UnitCode: UnitPiece, Value: item.Quantity.String()},
		Settlement: xmlLineSettlement{
			Tax: xmlLineTax{
				TypeCode:     "VAT",
				CategoryCode: category,
				Rate:         rateText(category, rate),
			},
			LineTotal: total.StringFixed(money.CentPlaces),
		},
	}
}

func (e *Encoder) settlement(doc *model.InvoiceDocument, totals model.TotalsResult, category string) xmlSettlement {
	s := xmlSettlement{
		Currency: e.cfg.Currency,
		Tax: xmlHeaderTax{
			CalculatedAmount: cents(totals.VAT),
			TypeCode:         "VAT",
			BasisAmount:      cents(totals.Net),
			CategoryCode:     category,
			Rate:             rateText(category, totals.TaxRate),
		},
		Summation: xmlHeaderSummation{
			LineTotal:  cents(totals.Net),
			TaxBasis:   cents(totals.Net),
			TaxTotal:   xmlAmount{CurrencyID: e.cfg.Currency, Value: cents(totals.VAT)},
			GrandTotal: cents(totals.Gross),
			DuePayable: cents(totals.Gross),
		},
	}
	if category == CategoryExempt {
		s.Tax.ExemptionReason = e.cfg.ExemptionReason
	}

	if iban := strings.ReplaceAll(doc.Bank.IBAN, " ", ""); iban != "" {
		s.PaymentMeans = &xmlPaymentMeans{TypeCode: PaymentMeansSEPA, IBAN: iban}
	}

	if e.cfg.DueDays > 0 {
		due := dateTime(doc.DueDate(e.cfg.DueDays))
		s.PaymentTerms = &xmlPaymentTerms{
			Description: fmt.Sprintf("Zahlbar innerhalb von %d Tagen ohne Abzug", e.cfg.DueDays),
			DueDate:     &due,
		}
	}

	return s
}

func party(name string, addr model.PartyAddress, seller bool) xmlParty {
	p := xmlParty{Name: name}

	if addr.Street != "" || addr.City != "" || addr.PostalCode != "" || addr.Country != "" {
		p.Address = &xmlAddress{
			PostcodeCode: addr.PostalCode,
			LineOne:      addr.Street,
			CityName:     addr.City,
			CountryID:    CountryCode(addr.Country),
		}
	}

	if seller {
		if addr.TaxID != "" {
			p.TaxRegistrations = append(p.TaxRegistrations, xmlTaxRegistration{ID: xmlSchemeID{SchemeID: "FC", Value: addr.TaxID}})
		}
		if addr.VATID != "" {
			p.TaxRegistrations = append(p.TaxRegistrations, xmlTaxRegistration{ID: xmlSchemeID{SchemeID: "VA", Value: addr.VATID}})
		}
	}
	return p
}

var countryNames = map[string]string{
	"deutschland": "DE",
	"germany":     "DE",
	"österreich":  "AT",
	"austria":     "AT",
	"schweiz":     "CH",
	"switzerland": "CH",
	"frankreich":  "FR",
	"france":      "FR",
	"niederlande": "NL",
	"netherlands": "NL",
	"belgien":     "BE",
	"belgium":     "BE",
	"luxemburg":   "LU",
	"luxembourg":  "LU",
	"italien":     "IT",
	"italy":       "IT",
	"spanien":     "ES",
	"spain":       "ES",
	"polen":       "PL",
	"poland":      "PL",
	"dänemark":    "DK",
	"denmark":     "DK",
}

// CountryCode maps a country display name or code to ISO 3166-1 alpha-2.
// Unknown and empty values map to DE.
func CountryCode(country string) string {
	c := strings.TrimSpace(country)
	if len(c) == 2 {
		return strings.ToUpper(c)
	}
	if code, ok := countryNames[strings.ToLower(c)]; ok {
		return code
	}
	return "DE"
}

func dateTime(t time.Time) xmlDateTime {
	return xmlDateTime{Value: xmlDateString{Format: DateFormat102, Value: t.Format("20060102")}}
}

func cents(d decimal.Decimal) string {
	return money.RoundCents(d).StringFixed(money.CentPlaces)
}

// amountText keeps sub-cent precision of unit prices and pads to two places
func amountText(d decimal.Decimal) string {
	if d.Exponent() < -money.CentPlaces {
		return d.String()
	}
	return d.StringFixed(money.CentPlaces)
}

func rateText(category string, rate decimal.Decimal) string {
	if category != CategoryStandard {
		return "0"
	}
	return rate.StringFixed(money.CentPlaces)
}

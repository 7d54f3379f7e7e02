package facturx

import "encoding/xml"

// Namespaces of the UN/CEFACT Cross Industry Invoice D16B
const (
	NamespaceRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	NamespaceRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	NamespaceUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
	NamespaceQDT = "urn:un:unece:uncefact:data:standard:QualifiedDataType:100"
)

type xmlInvoice struct {
	XMLName     xml.Name       `xml:"rsm:CrossIndustryInvoice"`
	Rsm         string         `xml:"xmlns:rsm,attr"`
	Qdt         string         `xml:"xmlns:qdt,attr"`
	Ram         string         `xml:"xmlns:ram,attr"`
	Udt         string         `xml:"xmlns:udt,attr"`
	Context     xmlContext     `xml:"rsm:ExchangedDocumentContext"`
	Document    xmlDocument    `xml:"rsm:ExchangedDocument"`
	Transaction xmlTransaction `xml:"rsm:SupplyChainTradeTransaction"`
}

type xmlContext struct {
	GuidelineID string `xml:"ram:GuidelineSpecifiedDocumentContextParameter>ram:ID"`
}

type xmlDocument struct {
	ID        string      `xml:"ram:ID"`
	TypeCode  string      `xml:"ram:TypeCode"`
	IssueDate xmlDateTime `xml:"ram:IssueDateTime"`
	Notes     []xmlNote   `xml:"ram:IncludedNote,omitempty"`
}

type xmlNote struct {
	Content string `xml:"ram:Content"`
}

type xmlDateTime struct {
	Value xmlDateString `xml:"udt:DateTimeString"`
}

type xmlDateString struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

type xmlTransaction struct {
	Lines      []xmlLineItem `xml:"ram:IncludedSupplyChainTradeLineItem"`
	Agreement  xmlAgreement  `xml:"ram:ApplicableHeaderTradeAgreement"`
	Delivery   xmlDelivery   `xml:"ram:ApplicableHeaderTradeDelivery"`
	Settlement xmlSettlement `xml:"ram:ApplicableHeaderTradeSettlement"`
}

type xmlLineItem struct {
	LineID     string            `xml:"ram:AssociatedDocumentLineDocument>ram:LineID"`
	Product    string            `xml:"ram:SpecifiedTradeProduct>ram:Name"`
	NetPrice   string            `xml:"ram:SpecifiedLineTradeAgreement>ram:NetPriceProductTradePrice>ram:ChargeAmount"`
	Quantity   xmlQuantity       `xml:"ram:SpecifiedLineTradeDelivery>ram:BilledQuantity"`
	Settlement xmlLineSettlement `xml:"ram:SpecifiedLineTradeSettlement"`
}

type xmlQuantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type xmlLineSettlement struct {
	Tax       xmlLineTax `xml:"ram:ApplicableTradeTax"`
	LineTotal string     `xml:"ram:SpecifiedTradeSettlementLineMonetarySummation>ram:LineTotalAmount"`
}

type xmlLineTax struct {
	TypeCode     string `xml:"ram:TypeCode"`
	CategoryCode string `xml:"ram:CategoryCode"`
	Rate         string `xml:"ram:RateApplicablePercent,omitempty"`
}

type xmlAgreement struct {
	Seller xmlParty `xml:"ram:SellerTradeParty"`
	Buyer  xmlParty `xml:"ram:BuyerTradeParty"`
}

type xmlParty struct {
	Name             string               `xml:"ram:Name"`
	Address          *xmlAddress          `xml:"ram:PostalTradeAddress,omitempty"`
	TaxRegistrations []xmlTaxRegistration `xml:"ram:SpecifiedTaxRegistration,omitempty"`
}

type xmlAddress struct {
	PostcodeCode string `xml:"ram:PostcodeCode,omitempty"`
	LineOne      string `xml:"ram:LineOne,omitempty"`
	CityName     string `xml:"ram:CityName,omitempty"`
	CountryID    string `xml:"ram:CountryID"`
}

type xmlTaxRegistration struct {
	ID xmlSchemeID `xml:"ram:ID"`
}

type xmlSchemeID struct {
	SchemeID string `xml:"schemeID,attr"`
	Value    string `xml:",chardata"`
}

type xmlDelivery struct {
	Event *xmlDeliveryEvent `xml:"ram:ActualDeliverySupplyChainEvent,omitempty"`
}

type xmlDeliveryEvent struct {
	Occurrence xmlDateTime `xml:"ram:OccurrenceDateTime"`
}

type xmlSettlement struct {
	Currency     string             `xml:"ram:InvoiceCurrencyCode"`
	PaymentMeans *xmlPaymentMeans   `xml:"ram:SpecifiedTradeSettlementPaymentMeans,omitempty"`
	Tax          xmlHeaderTax       `xml:"ram:ApplicableTradeTax"`
	PaymentTerms *xmlPaymentTerms   `xml:"ram:SpecifiedTradePaymentTerms,omitempty"`
	Summation    xmlHeaderSummation `xml:"ram:SpecifiedTradeSettlementHeaderMonetarySummation"`
}

type xmlPaymentMeans struct {
	TypeCode string `xml:"ram:TypeCode"`
	IBAN     string `xml:"ram:PayeePartyCreditorFinancialAccount>ram:IBANID"`
}

type xmlHeaderTax struct {
	CalculatedAmount string `xml:"ram:CalculatedAmount"`
	TypeCode         string `xml:"ram:TypeCode"`
	ExemptionReason  string `xml:"ram:ExemptionReason,omitempty"`
	BasisAmount      string `xml:"ram:BasisAmount"`
	CategoryCode     string `xml:"ram:CategoryCode"`
	Rate             string `xml:"ram:RateApplicablePercent"`
}

type xmlPaymentTerms struct {
	Description string       `xml:"ram:Description,omitempty"`
	DueDate     *xmlDateTime `xml:"ram:DueDateDateTime,omitempty"`
}

type xmlHeaderSummation struct {
	LineTotal  string    `xml:"ram:LineTotalAmount"`
	TaxBasis   string    `xml:"ram:TaxBasisTotalAmount"`
	TaxTotal   xmlAmount `xml:"ram:TaxTotalAmount"`
	GrandTotal string    `xml:"ram:GrandTotalAmount"`
	DuePayable string    `xml:"ram:DuePayableAmount"`
}

type xmlAmount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

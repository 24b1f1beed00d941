package einvoice

import (
	"encoding/xml"
	"sort"
	"strconv"
	"time"

	"github.com/rezonia/invoice-composer/internal/decimal"
	"github.com/rezonia/invoice-composer/internal/model"
)

// CII namespaces
const (
	nsRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	nsRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	nsUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
	nsQDT = "urn:un:unece:uncefact:data:standard:QualifiedDataType:100"
)

// CII date format 102 is CCYYMMDD
const ciiDateFormat = "102"

// CIIEncoder produces Cross Industry Invoice documents.
// Document-level tax is grouped by category and exact rate.
type CIIEncoder struct{}

// NewCIIEncoder creates a CII encoder
func NewCIIEncoder() *CIIEncoder {
	return &CIIEncoder{}
}

// Profile implements Encoder
func (e *CIIEncoder) Profile() Profile {
	return ProfileCII
}

// FileName implements Encoder
func (e *CIIEncoder) FileName() string {
	return "factur-x.xml"
}

// Conformance implements Encoder
func (e *CIIEncoder) Conformance() Conformance {
	return Conformance{
		DocumentType:     "INVOICE",
		Version:          "1.0",
		ConformanceLevel: "EN 16931",
	}
}

// Encode implements Encoder
func (e *CIIEncoder) Encode(inv *model.Invoice) (string, error) {
	summary := model.Summarize(inv.Items)
	currency := inv.CurrencyCode()

	doc := ciiInvoice{
		XmlnsRSM: nsRSM,
		XmlnsRAM: nsRAM,
		XmlnsUDT: nsUDT,
		XmlnsQDT: nsQDT,
		Context: ciiContext{
			BusinessProcess: &ciiID{ID: BusinessProcess},
			Guideline:       ciiID{ID: SpecificationID},
		},
		Document: ciiDocument{
			ID:        text(inv.Number),
			TypeCode:  InvoiceTypeCode,
			IssueDate: ciiDate(inv.IssueDate),
		},
	}

	tx := &doc.Transaction
	for i, item := range inv.Items {
		tx.Lines = append(tx.Lines, ciiLine(i+1, item))
	}

	tx.Agreement = ciiAgreement{
		BuyerReference: text(inv.BuyerReference),
		Seller:         ciiParty(inv.Seller),
		Buyer:          ciiParty(inv.Buyer),
	}
	if inv.DeliveryDate != nil {
		tx.Delivery.Event = &ciiDeliveryEvent{Occurrence: ciiDate(*inv.DeliveryDate)}
	}

	settlement := &tx.Settlement
	settlement.Currency = currency
	settlement.PaymentMeans = ciiPaymentMeans(inv)
	settlement.Taxes = ciiTaxes(inv.Items, summary)
	if !inv.DueDate.IsZero() {
		settlement.PaymentTerms = &ciiPaymentTerms{DueDate: ciiDate(inv.DueDate)}
	}
	settlement.Totals = ciiTotals{
		LineTotal:  decimal.Amount(summary.Subtotal),
		TaxBasis:   decimal.Amount(summary.Subtotal),
		TaxTotal:   ciiAmount{Currency: currency, Value: decimal.Amount(summary.Taxes.TotalTax())},
		GrandTotal: decimal.Amount(summary.Total),
		DuePayable: decimal.Amount(summary.Total),
	}

	return marshal(ProfileCII, doc)
}

func ciiDate(t time.Time) ciiDateTime {
	return ciiDateTime{Value: ciiDateString{Format: ciiDateFormat, Value: t.Format("20060102")}}
}

func ciiLine(n int, item model.LineItem) ciiLineItem {
	return ciiLineItem{
		Document: ciiLineDocument{LineID: strconv.Itoa(n)},
		Product:  ciiProduct{Name: text(item.Description)},
		Agreement: ciiLineAgreement{
			NetPrice: ciiPrice{ChargeAmount: decimal.Amount(item.UnitPrice)},
		},
		Delivery: ciiLineDelivery{
			Quantity: ciiQuantity{UnitCode: UnitCodePiece, Value: strconv.FormatUint(uint64(item.Units), 10)},
		},
		Settlement: ciiLineSettlement{
			Tax: ciiTradeTax{
				CalculatedAmount: decimal.Amount(item.Tax()),
				TypeCode:         TaxSchemeVAT,
				CategoryCode:     string(item.TaxCategory()),
				RatePercent:      decimal.PercentExact(item.TaxRate),
			},
			Summation: ciiLineSummation{LineTotal: decimal.Amount(item.Net())},
		},
	}
}

func ciiParty(p model.Party) ciiTradeParty {
	party := ciiTradeParty{
		Name: text(p.Name),
		Address: ciiAddress{
			Postcode: text(p.Address.PostalCode),
			LineOne:  text(p.Address.StreetLine()),
			City:     text(p.Address.Town),
			Country:  p.Address.CountryCode(),
		},
	}
	if p.Phone != "" || p.Email != "" {
		contact := &ciiContact{}
		if p.Phone != "" {
			contact.Phone = &ciiPhone{Number: text(p.Phone)}
		}
		if p.Email != "" {
			contact.Email = &ciiURI{ID: ciiSchemeID{Value: text(p.Email)}}
		}
		party.Contact = contact
	}
	if p.Email != "" {
		party.URI = &ciiURI{ID: ciiSchemeID{SchemeID: "EM", Value: text(p.Email)}}
	}
	if p.TaxID != "" {
		party.TaxRegistration = &ciiTaxRegistration{ID: ciiSchemeID{SchemeID: "VA", Value: text(p.TaxID)}}
	}
	return party
}

func ciiPaymentMeans(inv *model.Invoice) *ciiPaymentMeansType {
	iban, hasIBAN := inv.PaymentDetail("IBAN")
	if !hasIBAN && inv.PaymentMethod == "" {
		return nil
	}
	means := &ciiPaymentMeansType{
		TypeCode:    PaymentMutual,
		Information: text(inv.PaymentMethod),
	}
	if hasIBAN {
		means.TypeCode = PaymentSEPA
		account := &ciiCreditorAccount{IBAN: text(iban)}
		if name, ok := inv.PaymentDetail("Account holder"); ok {
			account.AccountName = text(name)
		}
		means.Account = account
	}
	if bic, ok := inv.PaymentDetail("BIC"); ok {
		means.Institution = &ciiInstitution{BIC: text(bic)}
	}
	return means
}

type ciiTaxKey struct {
	category model.TaxCategory
	rate     float64
}

// ciiTaxes emits one block per distinct (category, rate) pair. The basis is
// recovered from the tax amount; zero-rated groups use the full subtotal.
func ciiTaxes(items []model.LineItem, summary model.Summary) []ciiTradeTax {
	amounts := make(map[ciiTaxKey]float64)
	reasons := make(map[ciiTaxKey]string)
	var keys []ciiTaxKey
	for _, item := range items {
		key := ciiTaxKey{category: item.TaxCategory(), rate: item.TaxRate}
		if _, ok := amounts[key]; !ok {
			keys = append(keys, key)
			reasons[key] = text(item.ExemptionReason)
		}
		amounts[key] += item.Tax()
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].rate != keys[j].rate {
			return keys[i].rate < keys[j].rate
		}
		return keys[i].category < keys[j].category
	})

	taxes := make([]ciiTradeTax, 0, len(keys))
	for _, key := range keys {
		amount := amounts[key]
		basis := summary.Subtotal
		if key.rate > 0 {
			basis = amount / key.rate
		}
		tax := ciiTradeTax{
			CalculatedAmount: decimal.Amount(amount),
			TypeCode:         TaxSchemeVAT,
			BasisAmount:      decimal.Amount(basis),
			CategoryCode:     string(key.category),
			RatePercent:      decimal.PercentExact(key.rate),
		}
		if key.category == model.TaxCategoryExempt {
			tax.ExemptionReason = reasons[key]
		}
		taxes = append(taxes, tax)
	}
	return taxes
}

type ciiInvoice struct {
	XMLName     xml.Name       `xml:"rsm:CrossIndustryInvoice"`
	XmlnsRSM    string         `xml:"xmlns:rsm,attr"`
	XmlnsRAM    string         `xml:"xmlns:ram,attr"`
	XmlnsUDT    string         `xml:"xmlns:udt,attr"`
	XmlnsQDT    string         `xml:"xmlns:qdt,attr"`
	Context     ciiContext     `xml:"rsm:ExchangedDocumentContext"`
	Document    ciiDocument    `xml:"rsm:ExchangedDocument"`
	Transaction ciiTransaction `xml:"rsm:SupplyChainTradeTransaction"`
}

type ciiContext struct {
	BusinessProcess *ciiID `xml:"ram:BusinessProcessSpecifiedDocumentContextParameter,omitempty"`
	Guideline       ciiID  `xml:"ram:GuidelineSpecifiedDocumentContextParameter"`
}

type ciiID struct {
	ID string `xml:"ram:ID"`
}

type ciiDocument struct {
	ID        string      `xml:"ram:ID"`
	TypeCode  string      `xml:"ram:TypeCode"`
	IssueDate ciiDateTime `xml:"ram:IssueDateTime"`
}

type ciiDateTime struct {
	Value ciiDateString `xml:"udt:DateTimeString"`
}

type ciiDateString struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

type ciiTransaction struct {
	Lines      []ciiLineItem `xml:"ram:IncludedSupplyChainTradeLineItem"`
	Agreement  ciiAgreement  `xml:"ram:ApplicableHeaderTradeAgreement"`
	Delivery   ciiDelivery   `xml:"ram:ApplicableHeaderTradeDelivery"`
	Settlement ciiSettlement `xml:"ram:ApplicableHeaderTradeSettlement"`
}

type ciiLineItem struct {
	Document   ciiLineDocument   `xml:"ram:AssociatedDocumentLineDocument"`
	Product    ciiProduct        `xml:"ram:SpecifiedTradeProduct"`
	Agreement  ciiLineAgreement  `xml:"ram:SpecifiedLineTradeAgreement"`
	Delivery   ciiLineDelivery   `xml:"ram:SpecifiedLineTradeDelivery"`
	Settlement ciiLineSettlement `xml:"ram:SpecifiedLineTradeSettlement"`
}

type ciiLineDocument struct {
	LineID string `xml:"ram:LineID"`
}

type ciiProduct struct {
	Name string `xml:"ram:Name"`
}

type ciiLineAgreement struct {
	NetPrice ciiPrice `xml:"ram:NetPriceProductTradePrice"`
}

type ciiPrice struct {
	ChargeAmount string `xml:"ram:ChargeAmount"`
}

type ciiLineDelivery struct {
	Quantity ciiQuantity `xml:"ram:BilledQuantity"`
}

type ciiQuantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type ciiLineSettlement struct {
	Tax       ciiTradeTax      `xml:"ram:ApplicableTradeTax"`
	Summation ciiLineSummation `xml:"ram:SpecifiedTradeSettlementLineMonetarySummation"`
}

type ciiLineSummation struct {
	LineTotal string `xml:"ram:LineTotalAmount"`
}

type ciiTradeTax struct {
	CalculatedAmount string `xml:"ram:CalculatedAmount,omitempty"`
	TypeCode         string `xml:"ram:TypeCode"`
	ExemptionReason  string `xml:"ram:ExemptionReason,omitempty"`
	BasisAmount      string `xml:"ram:BasisAmount,omitempty"`
	CategoryCode     string `xml:"ram:CategoryCode"`
	RatePercent      string `xml:"ram:RateApplicablePercent"`
}

type ciiAgreement struct {
	BuyerReference string        `xml:"ram:BuyerReference,omitempty"`
	Seller         ciiTradeParty `xml:"ram:SellerTradeParty"`
	Buyer          ciiTradeParty `xml:"ram:BuyerTradeParty"`
}

type ciiTradeParty struct {
	Name            string              `xml:"ram:Name"`
	Contact         *ciiContact         `xml:"ram:DefinedTradeContact,omitempty"`
	Address         ciiAddress          `xml:"ram:PostalTradeAddress"`
	URI             *ciiURI             `xml:"ram:URIUniversalCommunication,omitempty"`
	TaxRegistration *ciiTaxRegistration `xml:"ram:SpecifiedTaxRegistration,omitempty"`
}

type ciiContact struct {
	Phone *ciiPhone `xml:"ram:TelephoneUniversalCommunication,omitempty"`
	Email *ciiURI   `xml:"ram:EmailURIUniversalCommunication,omitempty"`
}

type ciiPhone struct {
	Number string `xml:"ram:CompleteNumber"`
}

type ciiURI struct {
	ID ciiSchemeID `xml:"ram:URIID"`
}

type ciiAddress struct {
	Postcode string `xml:"ram:PostcodeCode,omitempty"`
	LineOne  string `xml:"ram:LineOne,omitempty"`
	City     string `xml:"ram:CityName,omitempty"`
	Country  string `xml:"ram:CountryID"`
}

type ciiTaxRegistration struct {
	ID ciiSchemeID `xml:"ram:ID"`
}

type ciiSchemeID struct {
	SchemeID string `xml:"schemeID,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type ciiDelivery struct {
	Event *ciiDeliveryEvent `xml:"ram:ActualDeliverySupplyChainEvent,omitempty"`
}

type ciiDeliveryEvent struct {
	Occurrence ciiDateTime `xml:"ram:OccurrenceDateTime"`
}

type ciiSettlement struct {
	Currency     string               `xml:"ram:InvoiceCurrencyCode"`
	PaymentMeans *ciiPaymentMeansType `xml:"ram:SpecifiedTradeSettlementPaymentMeans,omitempty"`
	Taxes        []ciiTradeTax        `xml:"ram:ApplicableTradeTax"`
	PaymentTerms *ciiPaymentTerms     `xml:"ram:SpecifiedTradePaymentTerms,omitempty"`
	Totals       ciiTotals            `xml:"ram:SpecifiedTradeSettlementHeaderMonetarySummation"`
}

type ciiPaymentMeansType struct {
	TypeCode    string              `xml:"ram:TypeCode"`
	Information string              `xml:"ram:Information,omitempty"`
	Account     *ciiCreditorAccount `xml:"ram:PayeePartyCreditorFinancialAccount,omitempty"`
	Institution *ciiInstitution     `xml:"ram:PayeeSpecifiedCreditorFinancialInstitution,omitempty"`
}

type ciiCreditorAccount struct {
	IBAN        string `xml:"ram:IBANID"`
	AccountName string `xml:"ram:AccountName,omitempty"`
}

type ciiInstitution struct {
	BIC string `xml:"ram:BICID"`
}

type ciiPaymentTerms struct {
	DueDate ciiDateTime `xml:"ram:DueDateDateTime"`
}

type ciiTotals struct {
	LineTotal  string    `xml:"ram:LineTotalAmount"`
	TaxBasis   string    `xml:"ram:TaxBasisTotalAmount"`
	TaxTotal   ciiAmount `xml:"ram:TaxTotalAmount"`
	GrandTotal string    `xml:"ram:GrandTotalAmount"`
	DuePayable string    `xml:"ram:DuePayableAmount"`
}

type ciiAmount struct {
	Currency string `xml:"currencyID,attr"`
	Value    string `xml:",chardata"`
}

package einvoice

import (
	"encoding/xml"
	"sort"
	"strconv"
	"time"

	dec "github.com/shopspring/decimal"

	"github.com/rezonia/invoice-composer/internal/decimal"
	"github.com/rezonia/invoice-composer/internal/model"
)

// UBL namespaces
const (
	nsUBLInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCAC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC        = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

// UBLEncoder produces UBL 2.1 Invoice documents. Every line's tax is
// rounded to cents before it is added to its bucket; buckets are keyed by
// category and whole percent.
type UBLEncoder struct{}

// NewUBLEncoder creates a UBL encoder
func NewUBLEncoder() *UBLEncoder {
	return &UBLEncoder{}
}

// Profile implements Encoder
func (e *UBLEncoder) Profile() Profile {
	return ProfileUBL
}

// FileName implements Encoder
func (e *UBLEncoder) FileName() string {
	return "xrechnung.xml"
}

// Conformance implements Encoder
func (e *UBLEncoder) Conformance() Conformance {
	return Conformance{
		DocumentType:     "INVOICE",
		Version:          "3.0",
		ConformanceLevel: "XRECHNUNG",
	}
}

// UBLTaxBucket is one document-level tax subtotal
type UBLTaxBucket struct {
	Category model.TaxCategory
	Percent  int64
	Taxable  dec.Decimal
	Tax      dec.Decimal
	Reason   string
}

// UBLTotals are the rounded document totals of a UBL invoice
type UBLTotals struct {
	Buckets   []UBLTaxBucket
	LineTotal dec.Decimal
	TaxTotal  dec.Decimal
	Payable   dec.Decimal
}

// ComputeUBLTotals rounds each line to cents and groups taxed lines by
// (category, whole percent). Lines with a zero rate produce no bucket.
func ComputeUBLTotals(items []model.LineItem) UBLTotals {
	type key struct {
		category model.TaxCategory
		percent  int64
	}
	buckets := make(map[key]*UBLTaxBucket)

	totals := UBLTotals{LineTotal: decimal.Zero, TaxTotal: decimal.Zero}
	for _, item := range items {
		net := decimal.LineNet(item.Units, item.UnitPrice)
		totals.LineTotal = totals.LineTotal.Add(net)
		if item.TaxRate == 0 {
			continue
		}

		tax := decimal.LineTax(net, item.TaxRate)
		k := key{category: item.TaxCategory(), percent: decimal.Percent(item.TaxRate)}
		b, ok := buckets[k]
		if !ok {
			b = &UBLTaxBucket{
				Category: k.category,
				Percent:  k.percent,
				Taxable:  decimal.Zero,
				Tax:      decimal.Zero,
				Reason:   text(item.ExemptionReason),
			}
			buckets[k] = b
		}
		b.Taxable = b.Taxable.Add(net)
		b.Tax = b.Tax.Add(tax)
	}

	for _, b := range buckets {
		totals.Buckets = append(totals.Buckets, *b)
		totals.TaxTotal = totals.TaxTotal.Add(b.Tax)
	}
	sort.Slice(totals.Buckets, func(i, j int) bool {
		a, b := totals.Buckets[i], totals.Buckets[j]
		if a.Percent != b.Percent {
			return a.Percent < b.Percent
		}
		return a.Category < b.Category
	})
	totals.Payable = totals.LineTotal.Add(totals.TaxTotal)
	return totals
}

// Encode implements Encoder
func (e *UBLEncoder) Encode(inv *model.Invoice) (string, error) {
	currency := inv.CurrencyCode()
	totals := ComputeUBLTotals(inv.Items)
	amount := func(d dec.Decimal) ublAmount {
		return ublAmount{Currency: currency, Value: decimal.Fixed2(d)}
	}

	doc := ublInvoice{
		Xmlns:           nsUBLInvoice,
		XmlnsCAC:        nsCAC,
		XmlnsCBC:        nsCBC,
		CustomizationID: SpecificationID,
		ProfileID:       BusinessProcess,
		ID:              text(inv.Number),
		IssueDate:       ublDate(inv.IssueDate),
		InvoiceTypeCode: InvoiceTypeCode,
		Currency:        currency,
		BuyerReference:  text(inv.BuyerReference),
		Supplier:        ublPartyWrapper{Party: ublParty(inv.Seller)},
		Customer:        ublPartyWrapper{Party: ublParty(inv.Buyer)},
		PaymentMeans:    ublPaymentMeans(inv),
	}
	if !inv.DueDate.IsZero() {
		doc.DueDate = ublDate(inv.DueDate)
	}
	if inv.DeliveryDate != nil {
		doc.Delivery = &ublDelivery{Date: ublDate(*inv.DeliveryDate)}
	}

	doc.TaxTotal = ublTaxTotal{TaxAmount: amount(totals.TaxTotal)}
	for _, b := range totals.Buckets {
		sub := ublTaxSubtotal{
			Taxable: amount(b.Taxable),
			Tax:     amount(b.Tax),
			Category: ublTaxCategory{
				ID:        string(b.Category),
				Percent:   strconv.FormatInt(b.Percent, 10),
				TaxScheme: ublTaxScheme{ID: TaxSchemeVAT},
			},
		}
		if b.Category == model.TaxCategoryExempt {
			sub.Category.ExemptionReason = b.Reason
		}
		doc.TaxTotal.Subtotals = append(doc.TaxTotal.Subtotals, sub)
	}

	doc.Totals = ublMonetaryTotal{
		LineExtension: amount(totals.LineTotal),
		TaxExclusive:  amount(totals.LineTotal),
		TaxInclusive:  amount(totals.Payable),
		Payable:       amount(totals.Payable),
	}

	for i, item := range inv.Items {
		doc.Lines = append(doc.Lines, ublInvoiceLine{
			ID:            strconv.Itoa(i + 1),
			Quantity:      ublQuantity{UnitCode: UnitCodePiece, Value: strconv.FormatUint(uint64(item.Units), 10)},
			LineExtension: amount(decimal.LineNet(item.Units, item.UnitPrice)),
			Item: ublItem{
				Name: text(item.Description),
				TaxCategory: ublTaxCategory{
					ID:        string(ublCategory(item)),
					Percent:   strconv.FormatInt(decimal.Percent(item.TaxRate), 10),
					TaxScheme: ublTaxScheme{ID: TaxSchemeVAT},
				},
			},
			Price: ublPrice{Amount: amount(decimal.FromFloat(item.UnitPrice))},
		})
	}

	return marshal(ProfileUBL, doc)
}

// ublCategory marks untaxed lines without an exemption reason as zero rated
func ublCategory(item model.LineItem) model.TaxCategory {
	if !item.IsExempt() && item.TaxRate == 0 {
		return model.TaxCategoryZero
	}
	return item.TaxCategory()
}

func ublDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func ublParty(p model.Party) ublPartyType {
	party := ublPartyType{
		Address: ublAddress{
			Street:         text(p.Address.Street),
			BuildingNumber: text(p.Address.HouseNumber),
			City:           text(p.Address.Town),
			PostalZone:     text(p.Address.PostalCode),
			Country:        ublCountry{Code: p.Address.CountryCode()},
		},
		LegalEntity: ublLegalEntity{Name: text(p.Name)},
	}
	if p.Email != "" {
		party.Endpoint = &ublSchemeValue{SchemeID: "EM", Value: text(p.Email)}
	}
	if p.TaxID != "" {
		party.TaxScheme = &ublPartyTaxScheme{
			CompanyID: text(p.TaxID),
			TaxScheme: ublTaxScheme{ID: TaxSchemeVAT},
		}
	}
	if p.Phone != "" || p.Email != "" {
		party.Contact = &ublContact{Phone: text(p.Phone), Email: text(p.Email)}
	}
	return party
}

func ublPaymentMeans(inv *model.Invoice) *ublPaymentMeansType {
	iban, hasIBAN := inv.PaymentDetail("IBAN")
	if !hasIBAN && inv.PaymentMethod == "" {
		return nil
	}
	means := &ublPaymentMeansType{
		Code: PaymentMutual,
		Note: text(inv.PaymentMethod),
	}
	if hasIBAN {
		means.Code = PaymentSEPA
		account := &ublFinancialAccount{ID: text(iban)}
		if name, ok := inv.PaymentDetail("Account holder"); ok {
			account.Name = text(name)
		}
		if bic, ok := inv.PaymentDetail("BIC"); ok {
			account.Branch = &ublBranch{ID: text(bic)}
		}
		means.Account = account
	}
	return means
}

type ublInvoice struct {
	XMLName         xml.Name             `xml:"Invoice"`
	Xmlns           string               `xml:"xmlns,attr"`
	XmlnsCAC        string               `xml:"xmlns:cac,attr"`
	XmlnsCBC        string               `xml:"xmlns:cbc,attr"`
	CustomizationID string               `xml:"cbc:CustomizationID"`
	ProfileID       string               `xml:"cbc:ProfileID"`
	ID              string               `xml:"cbc:ID"`
	IssueDate       string               `xml:"cbc:IssueDate"`
	DueDate         string               `xml:"cbc:DueDate,omitempty"`
	InvoiceTypeCode string               `xml:"cbc:InvoiceTypeCode"`
	Currency        string               `xml:"cbc:DocumentCurrencyCode"`
	BuyerReference  string               `xml:"cbc:BuyerReference,omitempty"`
	Supplier        ublPartyWrapper      `xml:"cac:AccountingSupplierParty"`
	Customer        ublPartyWrapper      `xml:"cac:AccountingCustomerParty"`
	Delivery        *ublDelivery         `xml:"cac:Delivery,omitempty"`
	PaymentMeans    *ublPaymentMeansType `xml:"cac:PaymentMeans,omitempty"`
	TaxTotal        ublTaxTotal          `xml:"cac:TaxTotal"`
	Totals          ublMonetaryTotal     `xml:"cac:LegalMonetaryTotal"`
	Lines           []ublInvoiceLine     `xml:"cac:InvoiceLine"`
}

type ublPartyWrapper struct {
	Party ublPartyType `xml:"cac:Party"`
}

type ublPartyType struct {
	Endpoint    *ublSchemeValue    `xml:"cbc:EndpointID,omitempty"`
	Address     ublAddress         `xml:"cac:PostalAddress"`
	TaxScheme   *ublPartyTaxScheme `xml:"cac:PartyTaxScheme,omitempty"`
	LegalEntity ublLegalEntity     `xml:"cac:PartyLegalEntity"`
	Contact     *ublContact        `xml:"cac:Contact,omitempty"`
}

type ublSchemeValue struct {
	SchemeID string `xml:"schemeID,attr"`
	Value    string `xml:",chardata"`
}

type ublAddress struct {
	Street         string     `xml:"cbc:StreetName,omitempty"`
	BuildingNumber string     `xml:"cbc:BuildingNumber,omitempty"`
	City           string     `xml:"cbc:CityName,omitempty"`
	PostalZone     string     `xml:"cbc:PostalZone,omitempty"`
	Country        ublCountry `xml:"cac:Country"`
}

type ublCountry struct {
	Code string `xml:"cbc:IdentificationCode"`
}

type ublPartyTaxScheme struct {
	CompanyID string       `xml:"cbc:CompanyID"`
	TaxScheme ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublTaxScheme struct {
	ID string `xml:"cbc:ID"`
}

type ublLegalEntity struct {
	Name string `xml:"cbc:RegistrationName"`
}

type ublContact struct {
	Phone string `xml:"cbc:Telephone,omitempty"`
	Email string `xml:"cbc:ElectronicMail,omitempty"`
}

type ublDelivery struct {
	Date string `xml:"cbc:ActualDeliveryDate"`
}

type ublPaymentMeansType struct {
	Code    string               `xml:"cbc:PaymentMeansCode"`
	Note    string               `xml:"cbc:InstructionNote,omitempty"`
	Account *ublFinancialAccount `xml:"cac:PayeeFinancialAccount,omitempty"`
}

type ublFinancialAccount struct {
	ID     string     `xml:"cbc:ID"`
	Name   string     `xml:"cbc:Name,omitempty"`
	Branch *ublBranch `xml:"cac:FinancialInstitutionBranch,omitempty"`
}

type ublBranch struct {
	ID string `xml:"cbc:ID"`
}

type ublAmount struct {
	Currency string `xml:"currencyID,attr"`
	Value    string `xml:",chardata"`
}

type ublTaxTotal struct {
	TaxAmount ublAmount        `xml:"cbc:TaxAmount"`
	Subtotals []ublTaxSubtotal `xml:"cac:TaxSubtotal"`
}

type ublTaxSubtotal struct {
	Taxable  ublAmount      `xml:"cbc:TaxableAmount"`
	Tax      ublAmount      `xml:"cbc:TaxAmount"`
	Category ublTaxCategory `xml:"cac:TaxCategory"`
}

type ublTaxCategory struct {
	ID              string       `xml:"cbc:ID"`
	Percent         string       `xml:"cbc:Percent"`
	ExemptionReason string       `xml:"cbc:TaxExemptionReason,omitempty"`
	TaxScheme       ublTaxScheme `xml:"cac:TaxScheme"`
}

type ublMonetaryTotal struct {
	LineExtension ublAmount `xml:"cbc:LineExtensionAmount"`
	TaxExclusive  ublAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusive  ublAmount `xml:"cbc:TaxInclusiveAmount"`
	Payable       ublAmount `xml:"cbc:PayableAmount"`
}

type ublInvoiceLine struct {
	ID            string      `xml:"cbc:ID"`
	Quantity      ublQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtension ublAmount   `xml:"cbc:LineExtensionAmount"`
	Item          ublItem     `xml:"cac:Item"`
	Price         ublPrice    `xml:"cac:Price"`
}

type ublQuantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type ublItem struct {
	Name        string         `xml:"cbc:Name"`
	TaxCategory ublTaxCategory `xml:"cac:ClassifiedTaxCategory"`
}

type ublPrice struct {
	Amount ublAmount `xml:"cbc:PriceAmount"`
}

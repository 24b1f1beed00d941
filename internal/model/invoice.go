package model

import (
	"strings"
	"time"
)

// DefaultCountryCode is used for postal addresses without an explicit country
const DefaultCountryCode = "DE"

// Invoice is the input document for a single build
type Invoice struct {
	// Header info
	Number       string     `json:"number"`
	IssueDate    time.Time  `json:"issue_date"`
	DueDate      time.Time  `json:"due_date"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	DeliveryType string     `json:"delivery_type,omitempty"`

	// Free-form header rows, printed in order
	Extra []KeyValue `json:"extra,omitempty"`

	// Payment
	PaymentMethod  string     `json:"payment_method,omitempty"`
	PaymentDetails []KeyValue `json:"payment_details,omitempty"`

	// Parties
	Seller Party `json:"seller"`
	Buyer  Party `json:"buyer"`

	// Routing reference of the buyer (Leitweg-ID and similar)
	BuyerReference string `json:"buyer_reference,omitempty"`

	Items []LineItem `json:"items"`

	// Rendering
	Locale   string `json:"locale,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// KeyValue is an ordered label/value pair
type KeyValue struct {
	Label string `toml:"label" json:"label"`
	Value string `toml:"value" json:"value"`
}

// Party represents seller or buyer
type Party struct {
	Name    string  `toml:"name" json:"name"`
	Address Address `toml:"address" json:"address"`
	TaxID   string  `toml:"tax_id" json:"tax_id,omitempty"`
	Email   string  `toml:"email" json:"email,omitempty"`
	Phone   string  `toml:"phone" json:"phone,omitempty"`
	Website string  `toml:"website" json:"website,omitempty"`
}

// Address is a postal address
type Address struct {
	Street      string `toml:"street" json:"street"`
	HouseNumber string `toml:"house_number" json:"house_number,omitempty"`
	PostalCode  string `toml:"postal_code" json:"postal_code"`
	Town        string `toml:"town" json:"town"`
	Country     string `toml:"country" json:"country,omitempty"`
}

// StreetLine joins street and house number
func (a Address) StreetLine() string {
	return strings.TrimSpace(a.Street + " " + a.HouseNumber)
}

// TownLine joins postal code and town
func (a Address) TownLine() string {
	return strings.TrimSpace(a.PostalCode + " " + a.Town)
}

// CountryCode returns the ISO 3166-1 alpha-2 code, defaulting to DE
func (a Address) CountryCode() string {
	if a.Country == "" {
		return DefaultCountryCode
	}
	return strings.ToUpper(a.Country)
}

// LineItem represents a single invoice line
type LineItem struct {
	Description     string  `toml:"description" json:"description"`
	Units           uint    `toml:"units" json:"units"`
	UnitPrice       float64 `toml:"unit_price" json:"unit_price"`
	TaxRate         float64 `toml:"tax_rate" json:"tax_rate"` // fraction, 0.19 = 19%
	ExemptionReason string  `toml:"exemption_reason" json:"exemption_reason,omitempty"`
}

// Net returns units × unit price
func (li LineItem) Net() float64 {
	return float64(li.Units) * li.UnitPrice
}

// Tax returns units × unit price × tax rate
func (li LineItem) Tax() float64 {
	return li.Net() * li.TaxRate
}

// IsExempt reports whether the line carries a tax exemption reason
func (li LineItem) IsExempt() bool {
	return strings.TrimSpace(li.ExemptionReason) != ""
}

// TaxCategory returns the tax category code for this line:
// E when it carries an exemption reason, S otherwise.
func (li LineItem) TaxCategory() TaxCategory {
	if li.IsExempt() {
		return TaxCategoryExempt
	}
	return TaxCategoryStandard
}

// TaxCategory is the UNTDID 5305 duty/tax/fee category code
type TaxCategory string

const (
	TaxCategoryStandard TaxCategory = "S"
	TaxCategoryZero     TaxCategory = "Z"
	TaxCategoryExempt   TaxCategory = "E"
)

// CurrencyCode returns the invoice currency, EUR when unset
func (inv *Invoice) CurrencyCode() string {
	if inv.Currency == "" {
		return "EUR"
	}
	return strings.ToUpper(inv.Currency)
}

// PaymentDetail returns the first payment detail whose label matches case-insensitively
func (inv *Invoice) PaymentDetail(label string) (string, bool) {
	for _, kv := range inv.PaymentDetails {
		if strings.EqualFold(strings.TrimSpace(kv.Label), label) {
			return kv.Value, true
		}
	}
	return "", false
}

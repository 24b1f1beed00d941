package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rezonia/invoice-composer/internal/model"
)

// InvoiceFile is the on-disk form of an invoice. Dates are strings so that
// hand-written files may use any of the common layouts.
type InvoiceFile struct {
	Number         string           `toml:"number" json:"number"`
	IssueDate      string           `toml:"issue_date" json:"issue_date"`
	DueDate        string           `toml:"due_date" json:"due_date"`
	DeliveryDate   string           `toml:"delivery_date" json:"delivery_date,omitempty"`
	DeliveryType   string           `toml:"delivery_type" json:"delivery_type,omitempty"`
	Locale         string           `toml:"locale" json:"locale,omitempty"`
	Currency       string           `toml:"currency" json:"currency,omitempty"`
	BuyerReference string           `toml:"buyer_reference" json:"buyer_reference,omitempty"`
	PaymentMethod  string           `toml:"payment_method" json:"payment_method,omitempty"`
	PaymentDetails []model.KeyValue `toml:"payment_details" json:"payment_details,omitempty"`
	Extra          []model.KeyValue `toml:"extra" json:"extra,omitempty"`
	Seller         model.Party      `toml:"seller" json:"seller"`
	Buyer          model.Party      `toml:"buyer" json:"buyer"`
	Items          []model.LineItem `toml:"items" json:"items"`
}

// LoadInvoice reads a .toml or .json invoice file
func LoadInvoice(path string) (*model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read invoice: %w", err)
	}
	return ParseInvoice(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// ParseInvoice decodes data in the given format ("toml" or "json")
func ParseInvoice(data []byte, format string) (*model.Invoice, error) {
	var f InvoiceFile
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse invoice: %w", err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse invoice: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported invoice format: %s", format)
	}
	return f.Invoice()
}

// Invoice converts the file form into the domain model
func (f *InvoiceFile) Invoice() (*model.Invoice, error) {
	if strings.TrimSpace(f.Number) == "" {
		return nil, model.NewValidationError("number", nil, "required", "invoice number is required")
	}

	inv := &model.Invoice{
		Number:         strings.TrimSpace(f.Number),
		DeliveryType:   f.DeliveryType,
		Extra:          f.Extra,
		PaymentMethod:  f.PaymentMethod,
		PaymentDetails: f.PaymentDetails,
		Seller:         f.Seller,
		Buyer:          f.Buyer,
		BuyerReference: f.BuyerReference,
		Items:          f.Items,
		Locale:         f.Locale,
		Currency:       f.Currency,
	}

	var err error
	if inv.IssueDate, err = requiredDate("issue_date", f.IssueDate); err != nil {
		return nil, err
	}
	if f.DueDate != "" {
		if inv.DueDate, err = parseDate(f.DueDate); err != nil {
			return nil, model.NewValidationError("due_date", f.DueDate, "date", err.Error())
		}
	}
	if f.DeliveryDate != "" {
		d, err := parseDate(f.DeliveryDate)
		if err != nil {
			return nil, model.NewValidationError("delivery_date", f.DeliveryDate, "date", err.Error())
		}
		inv.DeliveryDate = &d
	}

	for i, item := range inv.Items {
		if item.TaxRate < 0 || item.TaxRate >= 1 {
			return nil, model.NewValidationError(fmt.Sprintf("items[%d].tax_rate", i), item.TaxRate, "range", "tax rate must be a fraction in [0, 1)")
		}
		if item.UnitPrice < 0 {
			return nil, model.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), item.UnitPrice, "non_negative", "unit price must not be negative")
		}
	}
	return inv, nil
}

func requiredDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, model.NewValidationError(field, nil, "required", field+" is required")
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, s, "date", err.Error())
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"02.01.2006",
		"02/01/2006",
		"2006-01-02T15:04:05",
		"02/01/2006 15:04:05",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date: %s", s)
}

// Package xml reads CII and UBL e-invoices back into a compact summary of
// their header and totals.
package xml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/model"
)

// Document is what an embedded e-invoice declares about itself
type Document struct {
	Profile     einvoice.Profile `json:"profile"`
	Number      string           `json:"number"`
	IssueDate   time.Time        `json:"issue_date"`
	DueDate     time.Time        `json:"due_date,omitzero"`
	Currency    string           `json:"currency"`
	Seller      string           `json:"seller"`
	SellerTaxID string           `json:"seller_tax_id,omitempty"`
	Buyer       string           `json:"buyer"`
	Lines       int              `json:"lines"`
	TaxBasis    decimal.Decimal  `json:"tax_basis"`
	TaxTotal    decimal.Decimal  `json:"tax_total"`
	GrandTotal  decimal.Decimal  `json:"grand_total"`
}

// Adapter parses one XML syntax
type Adapter interface {
	// Parse parses XML content into a Document
	Parse(ctx context.Context, r io.Reader) (*Document, error)

	// CanParse returns true if adapter can handle this content
	CanParse(content []byte) bool

	// Profile returns the syntax handled
	Profile() einvoice.Profile
}

// Registry holds all registered adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates registry with all adapters
func NewRegistry() *Registry {
	return &Registry{
		adapters: []Adapter{
			NewCIIAdapter(),
			NewUBLAdapter(),
		},
	}
}

// Detect identifies the syntax from XML content
func (r *Registry) Detect(content []byte) (Adapter, error) {
	for _, a := range r.adapters {
		if a.CanParse(content) {
			return a, nil
		}
	}
	return nil, model.NewEncodingError("", "root", "unknown XML format, no matching adapter found", nil)
}

// Parse parses XML using appropriate adapter
func (r *Registry) Parse(ctx context.Context, content []byte) (*Document, error) {
	adapter, err := r.Detect(content)
	if err != nil {
		return nil, err
	}
	return adapter.Parse(ctx, bytes.NewReader(content))
}

// RegisterAdapter adds a custom adapter to the registry
func (r *Registry) RegisterAdapter(a Adapter) {
	// Custom adapters take priority
	r.adapters = append([]Adapter{a}, r.adapters...)
}

// GetAdapter returns adapter for a specific profile
func (r *Registry) GetAdapter(profile einvoice.Profile) Adapter {
	for _, a := range r.adapters {
		if a.Profile() == profile {
			return a
		}
	}
	return nil
}

func readAll(ctx context.Context, profile einvoice.Profile, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, model.NewEncodingError(string(profile), "content", "failed to read content", err)
	}
	return content, nil
}

func parseDate(s string) (time.Time, error) {
	formats := []string{
		"20060102",
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date: %s", s)
}

// parseAmount treats an empty amount as zero
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func amountError(profile einvoice.Profile, field string, err error) error {
	return model.NewEncodingError(string(profile), field, "invalid amount", err)
}

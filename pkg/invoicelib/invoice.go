// Package invoicelib provides a public API for composing hybrid invoices.
//
// An invoice is rendered to a paginated PDF, encoded as CII or UBL XML, and
// packaged as a PDF/A-3 document carrying the XML as an associated file.
//
// Example usage:
//
//	composer := invoicelib.NewComposer(invoicelib.DefaultOptions())
//	pdf, err := composer.Generate(inv, font, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("invoice.pdf", pdf, 0o644)
package invoicelib

import (
	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/model"
	"github.com/rezonia/invoice-composer/internal/pdfa"
)

// Re-export core types for public API
type (
	Invoice     = model.Invoice
	LineItem    = model.LineItem
	Party       = model.Party
	Address     = model.Address
	KeyValue    = model.KeyValue
	Summary     = model.Summary
	TaxBucket   = model.TaxBucket
	TaxCategory = model.TaxCategory
	Profile     = einvoice.Profile
	Report      = pdfa.Report
)

// Re-export e-invoice profiles
const (
	ProfileCII = einvoice.ProfileCII
	ProfileUBL = einvoice.ProfileUBL
)

// Re-export error types
type (
	ResourceError   = model.ResourceError
	StructureError  = model.StructureError
	EncodingError   = model.EncodingError
	ValidationError = model.ValidationError
)

// Summarize computes subtotal, per-rate taxes and total of items
func Summarize(items []LineItem) Summary {
	return model.Summarize(items)
}

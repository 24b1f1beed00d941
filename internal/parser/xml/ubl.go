package xml

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"

	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/model"
)

const ublNamespace = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"

type ublInvoice struct {
	XMLName   xml.Name   `xml:"Invoice"`
	ID        string     `xml:"ID"`
	IssueDate string     `xml:"IssueDate"`
	DueDate   string     `xml:"DueDate"`
	Currency  string     `xml:"DocumentCurrencyCode"`
	Supplier  ublParty   `xml:"AccountingSupplierParty>Party"`
	Customer  ublParty   `xml:"AccountingCustomerParty>Party"`
	TaxTotal  string     `xml:"TaxTotal>TaxAmount"`
	Lines     []struct{} `xml:"InvoiceLine"`
	Totals    struct {
		TaxExclusive string `xml:"TaxExclusiveAmount"`
		Payable      string `xml:"PayableAmount"`
	} `xml:"LegalMonetaryTotal"`
}

type ublParty struct {
	Name  string `xml:"PartyLegalEntity>RegistrationName"`
	TaxID string `xml:"PartyTaxScheme>CompanyID"`
}

// UBLAdapter parses OASIS UBL 2.1 invoices
type UBLAdapter struct{}

// NewUBLAdapter creates a new UBL adapter
func NewUBLAdapter() *UBLAdapter {
	return &UBLAdapter{}
}

// Profile returns the syntax handled
func (a *UBLAdapter) Profile() einvoice.Profile {
	return einvoice.ProfileUBL
}

// CanParse checks for the UBL invoice namespace
func (a *UBLAdapter) CanParse(content []byte) bool {
	return bytes.Contains(content, []byte(ublNamespace))
}

// Parse parses UBL XML into a Document
func (a *UBLAdapter) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	content, err := readAll(ctx, einvoice.ProfileUBL, r)
	if err != nil {
		return nil, err
	}

	var inv ublInvoice
	if err := xml.Unmarshal(content, &inv); err != nil {
		return nil, model.NewEncodingError(string(einvoice.ProfileUBL), "xml", "failed to parse XML", err)
	}
	if inv.ID == "" {
		return nil, model.NewEncodingError(string(einvoice.ProfileUBL), "ID", "invoice number missing", nil)
	}

	doc := &Document{
		Profile:     einvoice.ProfileUBL,
		Number:      inv.ID,
		Currency:    inv.Currency,
		Seller:      inv.Supplier.Name,
		SellerTaxID: inv.Supplier.TaxID,
		Buyer:       inv.Customer.Name,
		Lines:       len(inv.Lines),
	}

	if doc.IssueDate, err = parseDate(inv.IssueDate); err != nil {
		return nil, model.NewEncodingError(string(einvoice.ProfileUBL), "IssueDate", "invalid date", err)
	}
	if inv.DueDate != "" {
		if doc.DueDate, err = parseDate(inv.DueDate); err != nil {
			return nil, model.NewEncodingError(string(einvoice.ProfileUBL), "DueDate", "invalid date", err)
		}
	}

	if doc.TaxBasis, err = parseAmount(inv.Totals.TaxExclusive); err != nil {
		return nil, amountError(einvoice.ProfileUBL, "TaxExclusiveAmount", err)
	}
	if doc.TaxTotal, err = parseAmount(inv.TaxTotal); err != nil {
		return nil, amountError(einvoice.ProfileUBL, "TaxAmount", err)
	}
	if doc.GrandTotal, err = parseAmount(inv.Totals.Payable); err != nil {
		return nil, amountError(einvoice.ProfileUBL, "PayableAmount", err)
	}

	return doc, nil
}

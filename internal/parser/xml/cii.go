package xml

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"

	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/model"
)

const ciiNamespace = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"

// CII structures, matched by local name
type ciiInvoice struct {
	XMLName     xml.Name       `xml:"CrossIndustryInvoice"`
	Document    ciiDocument    `xml:"ExchangedDocument"`
	Transaction ciiTransaction `xml:"SupplyChainTradeTransaction"`
}

type ciiDocument struct {
	ID        string `xml:"ID"`
	IssueDate string `xml:"IssueDateTime>DateTimeString"`
}

type ciiTransaction struct {
	Lines      []struct{} `xml:"IncludedSupplyChainTradeLineItem"`
	Seller     ciiParty   `xml:"ApplicableHeaderTradeAgreement>SellerTradeParty"`
	Buyer      ciiParty   `xml:"ApplicableHeaderTradeAgreement>BuyerTradeParty"`
	Settlement struct {
		Currency string `xml:"InvoiceCurrencyCode"`
		DueDate  string `xml:"SpecifiedTradePaymentTerms>DueDateDateTime>DateTimeString"`
		Totals   struct {
			TaxBasis   string `xml:"TaxBasisTotalAmount"`
			TaxTotal   string `xml:"TaxTotalAmount"`
			GrandTotal string `xml:"GrandTotalAmount"`
		} `xml:"SpecifiedTradeSettlementHeaderMonetarySummation"`
	} `xml:"ApplicableHeaderTradeSettlement"`
}

type ciiParty struct {
	Name  string `xml:"Name"`
	TaxID string `xml:"SpecifiedTaxRegistration>ID"`
}

// CIIAdapter parses UN/CEFACT Cross Industry Invoices
type CIIAdapter struct{}

// NewCIIAdapter creates a new CII adapter
func NewCIIAdapter() *CIIAdapter {
	return &CIIAdapter{}
}

// Profile returns the syntax handled
func (a *CIIAdapter) Profile() einvoice.Profile {
	return einvoice.ProfileCII
}

// CanParse checks for the CII root namespace
func (a *CIIAdapter) CanParse(content []byte) bool {
	return bytes.Contains(content, []byte(ciiNamespace)) &&
		bytes.Contains(content, []byte("CrossIndustryInvoice"))
}

// Parse parses CII XML into a Document
func (a *CIIAdapter) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	content, err := readAll(ctx, einvoice.ProfileCII, r)
	if err != nil {
		return nil, err
	}

	var inv ciiInvoice
	if err := xml.Unmarshal(content, &inv); err != nil {
		return nil, model.NewEncodingError(string(einvoice.ProfileCII), "xml", "failed to parse XML", err)
	}
	if inv.Document.ID == "" {
		return nil, model.NewEncodingError(string(einvoice.ProfileCII), "ExchangedDocument/ID", "invoice number missing", nil)
	}

	tx := inv.Transaction
	doc := &Document{
		Profile:     einvoice.ProfileCII,
		Number:      inv.Document.ID,
		Currency:    tx.Settlement.Currency,
		Seller:      tx.Seller.Name,
		SellerTaxID: tx.Seller.TaxID,
		Buyer:       tx.Buyer.Name,
		Lines:       len(tx.Lines),
	}

	if doc.IssueDate, err = parseDate(inv.Document.IssueDate); err != nil {
		return nil, model.NewEncodingError(string(einvoice.ProfileCII), "IssueDateTime", "invalid date", err)
	}
	if tx.Settlement.DueDate != "" {
		if doc.DueDate, err = parseDate(tx.Settlement.DueDate); err != nil {
			return nil, model.NewEncodingError(string(einvoice.ProfileCII), "DueDateDateTime", "invalid date", err)
		}
	}

	totals := tx.Settlement.Totals
	if doc.TaxBasis, err = parseAmount(totals.TaxBasis); err != nil {
		return nil, amountError(einvoice.ProfileCII, "TaxBasisTotalAmount", err)
	}
	if doc.TaxTotal, err = parseAmount(totals.TaxTotal); err != nil {
		return nil, amountError(einvoice.ProfileCII, "TaxTotalAmount", err)
	}
	if doc.GrandTotal, err = parseAmount(totals.GrandTotal); err != nil {
		return nil, amountError(einvoice.ProfileCII, "GrandTotalAmount", err)
	}

	return doc, nil
}

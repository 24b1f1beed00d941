// Package seal computes and verifies HMAC-SHA256 integrity seals over
// generated invoice documents.
package seal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	xmlparser "github.com/rezonia/invoice-composer/internal/parser/xml"
	"github.com/rezonia/invoice-composer/internal/pdfa"
)

// KeyEnv holds the sealing key when no flag or config value is given
const KeyEnv = "INVOICE_COMPOSER_SEAL_KEY"

// Sealer signs and checks documents with one shared key
type Sealer struct {
	key []byte
	now func() time.Time
}

// New creates a sealer for key
func New(key []byte) (*Sealer, error) {
	if len(key) == 0 {
		return nil, ErrNoKey()
	}
	return &Sealer{key: append([]byte(nil), key...), now: time.Now}, nil
}

// Compute returns the hex seal binding invoiceID to the document bytes
func (s *Sealer) Compute(invoiceID string, pdf []byte) string {
	return hex.EncodeToString(s.digest(invoiceID, pdf))
}

func (s *Sealer) digest(invoiceID string, pdf []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(invoiceID))
	mac.Write([]byte{0})
	mac.Write(pdf)
	return mac.Sum(nil)
}

// Verify checks seal against the document and reports whether it still
// carries its e-invoice attachment. A mismatch is reported in the result,
// not as an error.
func (s *Sealer) Verify(ctx context.Context, invoiceID string, pdf []byte, seal string) (*VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mt := mimetype.Detect(pdf); !mt.Is("application/pdf") {
		return nil, ErrUnsupportedFormat(mt.String())
	}
	want, err := hex.DecodeString(strings.TrimSpace(seal))
	if err != nil {
		return nil, ErrMalformedSeal(err)
	}
	if len(want) != sha256.Size {
		return nil, ErrMalformedSeal(fmt.Errorf("digest has %d bytes, want %d", len(want), sha256.Size))
	}

	result := NewVerificationResult()
	result.InvoiceID = invoiceID
	result.CheckedAt = s.now()

	result.SealValid = hmac.Equal(want, s.digest(invoiceID, pdf))
	if !result.SealValid {
		result.AddError(NewSealError(ErrCodeSealMismatch, "seal", "document or invoice id changed after sealing", nil).Error())
	}

	report, err := pdfa.Inspect(pdf)
	if err != nil {
		result.AddError(err.Error())
		result.ComputeValidity()
		return result, nil
	}
	if name := xmlparser.AssociatedName(report); name != "" {
		result.AttachmentFound = true
		result.Attachment = name
	}
	if !result.AttachmentFound {
		result.AddError(NewSealError(ErrCodeNoAttachment, "attachment", "no associated e-invoice file", nil).Error())
	} else {
		s.checkAttachment(ctx, pdf, result)
	}
	result.PDFA = report.PDFA()
	if result.PDFA == "" {
		result.AddWarning("document declares no PDF/A conformance")
	}

	result.ComputeValidity()
	return result, nil
}

// checkAttachment compares the invoice number inside the attachment with the
// sealed id. Attachments that cannot be read only produce a warning.
func (s *Sealer) checkAttachment(ctx context.Context, pdf []byte, result *VerificationResult) {
	doc, err := xmlparser.Embedded(ctx, pdf, result.Attachment)
	if err != nil {
		result.AddWarning(fmt.Sprintf("attachment is not a readable e-invoice: %v", err))
		return
	}
	result.AttachedNumber = doc.Number
	if doc.Number != result.InvoiceID {
		result.AddError(NewSealError(ErrCodeInvoiceMismatch, "attachment",
			fmt.Sprintf("attachment declares invoice %q", doc.Number), nil).Error())
	}
}

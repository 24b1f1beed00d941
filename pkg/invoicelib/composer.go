package invoicelib

import (
	"github.com/charmbracelet/log"

	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/generator"
	"github.com/rezonia/invoice-composer/internal/pdfa"
)

// Options configures a Composer
type Options struct {
	// E-invoice embedded into generated documents (default: CII)
	Profile Profile

	// Attachment filename; empty uses the profile's conventional name
	AttachmentName string

	// sRGB output profile (env: INVOICE_COMPOSER_ICC)
	ICCProfile string

	// PDF document information
	Title   string
	Creator string

	Logger *log.Logger
}

// DefaultOptions returns default composer options
func DefaultOptions() Options {
	return Options{
		Profile: ProfileCII,
		Title:   "Invoice",
		Creator: "invoice-composer",
	}
}

// Composer builds hybrid invoices. It holds no per-build state and may be
// used from several goroutines.
type Composer struct {
	options Options
}

// NewComposer creates a composer with the given options
func NewComposer(opts Options) *Composer {
	return &Composer{options: opts}
}

func (c *Composer) generator() *generator.Generator {
	opts := []generator.Option{
		generator.WithProfile(c.options.Profile),
		generator.WithAttachmentName(c.options.AttachmentName),
		generator.WithDocument(c.options.Title, c.options.Creator),
		generator.WithICCProfile(c.options.ICCProfile),
	}
	if c.options.Logger != nil {
		opts = append(opts, generator.WithLogger(c.options.Logger))
	}
	return generator.New(opts...)
}

// Generate renders inv with font and an optional logo and returns the
// PDF/A-3 document. Either a complete document or an error is returned.
func (c *Composer) Generate(inv *Invoice, font []byte, logo []byte) ([]byte, error) {
	return c.generator().Generate(inv, font, logo)
}

// Job is one input of GenerateBatch
type Job struct {
	Invoice *Invoice
	Font    []byte
	Logo    []byte
}

// GenerateBatch builds independent invoices concurrently. Results keep the
// order of jobs; the first error encountered is returned alongside them.
func (c *Composer) GenerateBatch(jobs []Job) ([][]byte, error) {
	results := make([][]byte, len(jobs))
	errCh := make(chan error, len(jobs))

	for i, job := range jobs {
		go func(idx int, j Job) {
			pdf, err := c.Generate(j.Invoice, j.Font, j.Logo)
			if err != nil {
				errCh <- err
				return
			}
			results[idx] = pdf
			errCh <- nil
		}(i, job)
	}

	var firstErr error
	for range jobs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}

// Embed attaches xml to pdf under filename and adds the PDF/A-3 structures
func (c *Composer) Embed(pdf []byte, xml string, filename string) ([]byte, error) {
	opts := []pdfa.Option{
		pdfa.WithICCProfile(c.options.ICCProfile),
		pdfa.WithDocumentInfo(pdfa.DocumentInfo{Creator: c.options.Creator}),
	}
	if c.options.Logger != nil {
		opts = append(opts, pdfa.WithLogger(c.options.Logger))
	}
	return pdfa.NewPackager(opts...).Embed(pdf, xml, filename)
}

// EncodeCII renders inv as a UN/CEFACT Cross Industry Invoice
func EncodeCII(inv *Invoice) (string, error) {
	return einvoice.EncodeCII(inv)
}

// EncodeUBL renders inv as a UBL 2.1 Invoice
func EncodeUBL(inv *Invoice) (string, error) {
	return einvoice.EncodeUBL(inv)
}

// Inspect reports the attachments and PDF/A structures of pdf
func Inspect(pdf []byte) (*Report, error) {
	return pdfa.Inspect(pdf)
}

// Attachment returns the embedded file called name
func Attachment(pdf []byte, name string) ([]byte, error) {
	return pdfa.Attachment(pdf, name)
}

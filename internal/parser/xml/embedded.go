package xml

import (
	"context"

	"github.com/rezonia/invoice-composer/internal/pdfa"
)

// Embedded reads the attachment called name from pdf and parses it
func Embedded(ctx context.Context, pdf []byte, name string) (*Document, error) {
	content, err := pdfa.Attachment(pdf, name)
	if err != nil {
		return nil, err
	}
	return NewRegistry().Parse(ctx, content)
}

// AssociatedName returns the first associated file of report, or ""
func AssociatedName(report *pdfa.Report) string {
	for _, a := range report.Attachments {
		if a.AssociatedFile {
			return a.Name
		}
	}
	return ""
}

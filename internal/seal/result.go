package seal

import "time"

// VerificationResult contains the complete seal verification outcome
type VerificationResult struct {
	// Overall validity - true only if all checks pass
	Valid bool `json:"valid"`

	// Individual check results
	SealValid       bool   `json:"seal_valid"`
	AttachmentFound bool   `json:"attachment_found"`
	PDFA            string `json:"pdfa,omitempty"`

	InvoiceID  string    `json:"invoice_id"`
	Attachment string    `json:"attachment,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`

	// Invoice number declared inside the attachment, if readable
	AttachedNumber string `json:"attached_number,omitempty"`

	// Warnings (non-fatal issues)
	Warnings []string `json:"warnings,omitempty"`

	// Errors (reasons for invalid result)
	Errors []string `json:"errors,omitempty"`
}

// NewVerificationResult creates a new empty result
func NewVerificationResult() *VerificationResult {
	return &VerificationResult{
		Warnings: make([]string, 0),
		Errors:   make([]string, 0),
	}
}

// AddWarning adds a warning message to the result
func (r *VerificationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddError adds an error message and sets Valid to false
func (r *VerificationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

// ComputeValidity sets the Valid field based on individual check results
func (r *VerificationResult) ComputeValidity() {
	r.Valid = r.SealValid &&
		r.AttachmentFound &&
		len(r.Errors) == 0
}

package seal

import "fmt"

// Error codes for seal verification
const (
	ErrCodeNoKey             = "NO_KEY"
	ErrCodeMalformedSeal     = "MALFORMED_SEAL"
	ErrCodeSealMismatch      = "SEAL_MISMATCH"
	ErrCodeNoAttachment      = "NO_ATTACHMENT"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeInvoiceMismatch   = "INVOICE_MISMATCH"
)

// SealError represents seal computation and verification errors
type SealError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *SealError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SealError) Unwrap() error {
	return e.Cause
}

// NewSealError creates a new seal error
func NewSealError(code, field, message string, cause error) *SealError {
	return &SealError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ErrNoKey returns error when no sealing key is configured
func ErrNoKey() *SealError {
	return NewSealError(ErrCodeNoKey, "key", "sealing key is empty", nil)
}

// ErrMalformedSeal returns error when the seal is not a hex digest
func ErrMalformedSeal(cause error) *SealError {
	return NewSealError(ErrCodeMalformedSeal, "seal", "seal is not a hex encoded digest", cause)
}

// ErrUnsupportedFormat returns error for inputs that are not PDF documents
func ErrUnsupportedFormat(format string) *SealError {
	return NewSealError(ErrCodeUnsupportedFormat, "", fmt.Sprintf("unsupported format: %s", format), nil)
}

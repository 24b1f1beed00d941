package server

import (
	xmlparser "github.com/rezonia/invoice-composer/internal/parser/xml"
	"github.com/rezonia/invoice-composer/internal/pdfa"
)

// ProfileInfo describes one available e-invoice syntax
type ProfileInfo struct {
	Profile          string `json:"profile"`
	FileName         string `json:"file_name"`
	Version          string `json:"version"`
	ConformanceLevel string `json:"conformance_level"`
}

// InfoResponse is the response for info endpoint
type InfoResponse struct {
	MimeType  string `json:"mime_type"`
	Extension string `json:"extension,omitempty"`
	Size      int    `json:"size"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Details  string   `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// VerifyResponse is the response for seal verification endpoint
type VerifyResponse struct {
	Valid           bool     `json:"valid"`
	SealValid       bool     `json:"seal_valid"`
	AttachmentFound bool     `json:"attachment_found"`
	Attachment      string   `json:"attachment,omitempty"`
	AttachedNumber  string   `json:"attached_number,omitempty"`
	PDFA            string   `json:"pdfa,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// InspectResponse is the compliance report plus the embedded invoice, if readable
type InspectResponse struct {
	*pdfa.Report
	Invoice  *xmlparser.Document `json:"invoice,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
}

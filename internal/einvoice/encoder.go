// Package einvoice serializes invoices into EN 16931 XML syntaxes.
package einvoice

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/rezonia/invoice-composer/internal/model"
)

// Profile identifies an XML syntax
type Profile string

const (
	// ProfileCII is the UN/CEFACT Cross Industry Invoice (Factur-X, ZUGFeRD)
	ProfileCII Profile = "cii"
	// ProfileUBL is the OASIS UBL 2.1 Invoice (XRechnung, Peppol)
	ProfileUBL Profile = "ubl"
)

// Identifiers shared by both syntaxes
const (
	SpecificationID = "urn:cen.eu:en16931:2017#compliant#urn:xeinkauf.de:kosit:xrechnung_3.0"
	BusinessProcess = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"
	InvoiceTypeCode = "380"
	UnitCodePiece   = "C62"
	TaxSchemeVAT    = "VAT"
	PaymentSEPA     = "58"
	PaymentMutual   = "ZZZ"
)

// Conformance describes the embedded document for the PDF/A extension schema
type Conformance struct {
	DocumentType     string
	Version          string
	ConformanceLevel string
}

// Encoder turns an invoice into an XML document
type Encoder interface {
	// Encode serializes inv. It performs no I/O.
	Encode(inv *model.Invoice) (string, error)

	// Profile returns the syntax this encoder produces
	Profile() Profile

	// FileName is the conventional attachment name
	FileName() string

	// Conformance returns the metadata describing the attachment
	Conformance() Conformance
}

// Registry holds the available encoders
type Registry struct {
	encoders []Encoder
}

// NewRegistry creates registry with all encoders
func NewRegistry() *Registry {
	return &Registry{
		encoders: []Encoder{
			NewCIIEncoder(),
			NewUBLEncoder(),
		},
	}
}

// Register adds a custom encoder; it takes priority over built-in ones
func (r *Registry) Register(e Encoder) {
	r.encoders = append([]Encoder{e}, r.encoders...)
}

// Get returns the encoder for profile
func (r *Registry) Get(profile Profile) (Encoder, error) {
	for _, e := range r.encoders {
		if e.Profile() == profile {
			return e, nil
		}
	}
	return nil, model.NewEncodingError(string(profile), "profile", "no encoder registered", nil)
}

// Profiles lists the registered profiles in priority order
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.encoders))
	for _, e := range r.encoders {
		out = append(out, e.Profile())
	}
	return out
}

// ParseProfile accepts a profile name or one of its common aliases
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cii", "a", "factur-x", "facturx", "zugferd":
		return ProfileCII, nil
	case "ubl", "b", "xrechnung", "peppol":
		return ProfileUBL, nil
	}
	return "", fmt.Errorf("unknown e-invoice profile %q", s)
}

// EncodeCII serializes inv as a Cross Industry Invoice
func EncodeCII(inv *model.Invoice) (string, error) {
	return NewCIIEncoder().Encode(inv)
}

// EncodeUBL serializes inv as a UBL 2.1 Invoice
func EncodeUBL(inv *model.Invoice) (string, error) {
	return NewUBLEncoder().Encode(inv)
}

func marshal(profile Profile, doc interface{}) (string, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", model.NewEncodingError(string(profile), "document", "XML marshalling failed", err)
	}
	return xml.Header + string(out) + "\n", nil
}

func text(s string) string {
	return strings.TrimSpace(model.Sanitize(s))
}

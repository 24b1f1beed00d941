// Package generator builds a complete PDF/A-3 invoice from the domain model.
package generator

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rezonia/invoice-composer/internal/document"
	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/layout"
	"github.com/rezonia/invoice-composer/internal/model"
	"github.com/rezonia/invoice-composer/internal/pdfa"
	"github.com/rezonia/invoice-composer/internal/render"
)

// Generator composes printed invoices with an embedded XML e-invoice
type Generator struct {
	registry   *einvoice.Registry
	profile    einvoice.Profile
	attachment string
	title      string
	creator    string
	estimator  layout.WidthEstimator
	pdfaOpts   []pdfa.Option
	logger     *log.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithProfile selects the embedded e-invoice syntax
func WithProfile(profile einvoice.Profile) Option {
	return func(g *Generator) {
		g.profile = profile
	}
}

// WithRegistry replaces the encoder registry
func WithRegistry(r *einvoice.Registry) Option {
	return func(g *Generator) {
		if r != nil {
			g.registry = r
		}
	}
}

// WithAttachmentName overrides the encoder's conventional file name
func WithAttachmentName(name string) Option {
	return func(g *Generator) {
		g.attachment = name
	}
}

// WithDocument sets the PDF title prefix and creator
func WithDocument(title, creator string) Option {
	return func(g *Generator) {
		if title != "" {
			g.title = title
		}
		if creator != "" {
			g.creator = creator
		}
	}
}

// WithEstimator overrides the text width estimator
func WithEstimator(est layout.WidthEstimator) Option {
	return func(g *Generator) {
		g.estimator = est
	}
}

// WithICCProfile sets the output intent color profile path
func WithICCProfile(path string) Option {
	return WithPackagerOptions(pdfa.WithICCProfile(path))
}

// WithPackagerOptions passes options through to the PDF/A packager
func WithPackagerOptions(opts ...pdfa.Option) Option {
	return func(g *Generator) {
		g.pdfaOpts = append(g.pdfaOpts, opts...)
	}
}

// New creates a generator producing CII attachments by default
func New(opts ...Option) *Generator {
	g := &Generator{
		registry: einvoice.NewRegistry(),
		profile:  einvoice.ProfileCII,
		title:    "Invoice",
		creator:  "invoice-composer",
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result is everything one build produced
type Result struct {
	PDF        []byte
	XML        string
	Profile    einvoice.Profile
	Attachment string
	Pages      int
	Summary    model.Summary
}

// Generate builds inv with the given font and optional logo and returns the
// packaged document. Nothing is returned if any stage fails.
func (g *Generator) Generate(inv *model.Invoice, font []byte, logo []byte) ([]byte, error) {
	res, err := g.Build(inv, font, logo)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}

// Build runs all stages and returns the intermediate artifacts as well
func (g *Generator) Build(inv *model.Invoice, font []byte, logo []byte) (*Result, error) {
	if inv == nil {
		return nil, model.NewValidationError("invoice", nil, "required", "invoice is nil")
	}

	encoder, err := g.registry.Get(g.profile)
	if err != nil {
		return nil, err
	}

	var docOpts []document.Option
	if len(logo) > 0 {
		img, err := DecodeLogo(logo)
		if err != nil {
			return nil, err
		}
		docOpts = append(docOpts, document.WithLogo(img))
	}
	if g.estimator != nil {
		docOpts = append(docOpts, document.WithEstimator(g.estimator))
	}

	info := render.Info{
		Title:    strings.TrimSpace(g.title + " " + inv.Number),
		Subject:  fmt.Sprintf("%s to %s", inv.Seller.Name, inv.Buyer.Name),
		Keywords: "invoice, " + string(encoder.Profile()),
		Author:   inv.Seller.Name,
		Creator:  g.creator,
	}
	writer, err := render.NewWriter(font, render.WithInfo(info))
	if err != nil {
		return nil, err
	}

	summary := model.Summarize(inv.Items)
	pages := document.Render(inv, summary, docOpts...)
	g.logger.Debug("laid out invoice", "number", inv.Number, "items", len(inv.Items), "pages", len(pages))

	printed, err := writer.Write(pages)
	if err != nil {
		return nil, err
	}

	xml, err := encoder.Encode(inv)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("encoded e-invoice", "profile", encoder.Profile(), "bytes", len(xml))

	attachment := g.attachment
	if attachment == "" {
		attachment = encoder.FileName()
	}
	conf := encoder.Conformance()
	opts := append([]pdfa.Option{
		pdfa.WithLogger(g.logger),
		pdfa.WithProfile(pdfa.XMPProfile{
			Part:             pdfa.DefaultProfile.Part,
			Conformance:      pdfa.DefaultProfile.Conformance,
			DocumentType:     conf.DocumentType,
			Version:          conf.Version,
			ConformanceLevel: conf.ConformanceLevel,
		}),
		pdfa.WithDocumentInfo(pdfa.DocumentInfo{Title: info.Title, Author: info.Author, Creator: info.Creator}),
	}, g.pdfaOpts...)

	packaged, err := pdfa.NewPackager(opts...).Embed(printed, xml, attachment)
	if err != nil {
		return nil, err
	}

	return &Result{
		PDF:        packaged,
		XML:        xml,
		Profile:    encoder.Profile(),
		Attachment: attachment,
		Pages:      len(pages),
		Summary:    summary,
	}, nil
}

// DecodeLogo sniffs and decodes a raster logo
func DecodeLogo(data []byte) (image.Image, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, model.NewResourceError("logo", "", fmt.Sprintf("unsupported content type %s", mt.String()), nil)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewResourceError("logo", "", "cannot decode "+mt.String(), err)
	}
	return img, nil
}

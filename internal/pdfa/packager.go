// Package pdfa turns a finished PDF into a PDF/A-3 document carrying an
// XML e-invoice as an associated file.
package pdfa

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	invmodel "github.com/rezonia/invoice-composer/internal/model"
)

// DefaultICCProfile is where the sRGB output profile is looked up
const DefaultICCProfile = "assets/sRGB.icc"

// ICCEnv overrides the ICC profile location
const ICCEnv = "INVOICE_COMPOSER_ICC"

// Output intent constants for an sRGB profile
const (
	outputIntentSubtype = "GTS_PDFA1"
	outputCondition     = "sRGB"
	outputConditionInfo = "sRGB IEC61966-2.1"
)

// pdfcpu rewrites the Info Producer and dates with its own values on
// every write, so the XMP packet is built from the same values.
var producer = "pdfcpu " + model.VersionStr

const maxWriteAttempts = 3

var configOnce sync.Once

func configuration() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Packager embeds XML attachments and PDF/A-3 structures into PDFs
type Packager struct {
	iccPath     string
	profile     XMPProfile
	info        DocumentInfo
	description string
	logger      *log.Logger
}

// Option configures a Packager
type Option func(*Packager)

// WithICCProfile sets the ICC profile path
func WithICCProfile(path string) Option {
	return func(p *Packager) {
		if path != "" {
			p.iccPath = path
		}
	}
}

// WithProfile sets the PDF/A identification and e-invoice facts
func WithProfile(profile XMPProfile) Option {
	return func(p *Packager) {
		p.profile = profile
	}
}

// WithDocumentInfo sets title, author and creator
func WithDocumentInfo(info DocumentInfo) Option {
	return func(p *Packager) {
		p.info = info
	}
}

// WithDescription sets the file specification description
func WithDescription(desc string) Option {
	return func(p *Packager) {
		p.description = desc
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(p *Packager) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPackager creates a packager. The ICC path defaults to
// $INVOICE_COMPOSER_ICC, then DefaultICCProfile.
func NewPackager(opts ...Option) *Packager {
	p := &Packager{
		iccPath:     DefaultICCProfile,
		profile:     DefaultProfile,
		description: "Electronic invoice",
		logger:      log.Default(),
	}
	if env := os.Getenv(ICCEnv); env != "" {
		p.iccPath = env
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ICCProfile returns the configured profile path
func (p *Packager) ICCProfile() string {
	return p.iccPath
}

// Embed attaches xml under filename and adds the PDF/A-3 structures.
// Repeated calls on the output replace the attachment instead of adding one.
func (p *Packager) Embed(pdf []byte, xml string, filename string) ([]byte, error) {
	filename = strings.TrimSpace(invmodel.Sanitize(filename))
	if filename == "" {
		return nil, invmodel.NewStructureError("embed", "filename", "attachment filename is empty", nil)
	}

	icc, err := os.ReadFile(p.iccPath)
	if err != nil {
		return nil, invmodel.NewResourceError("icc_profile", p.iccPath, "cannot read color profile", err)
	}
	if len(icc) < 128 {
		return nil, invmodel.NewResourceError("icc_profile", p.iccPath, "color profile is truncated", nil)
	}

	for attempt := 1; ; attempt++ {
		out, stable, err := p.embed(pdf, []byte(xml), filename, icc)
		if err != nil {
			return nil, err
		}
		if stable || attempt == maxWriteAttempts {
			return out, nil
		}
		p.logger.Debug("clock moved during write, packaging again", "attempt", attempt)
	}
}

// embed packages one copy of pdf. stable reports whether the write happened
// within the second used for the XMP dates, so that the Info dates pdfcpu
// stamps agree with them.
func (p *Packager) embed(pdf, xml []byte, filename string, icc []byte) (out []byte, stable bool, err error) {
	ctx, err := read(pdf)
	if err != nil {
		return nil, false, err
	}
	g, err := openGraph(ctx)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().Truncate(time.Second)

	fileSpec, err := p.attach(g, xml, filename, now)
	if err != nil {
		return nil, false, err
	}
	setNames(g, filename, *fileSpec)
	g.catalog["AF"] = types.Array{*fileSpec}

	info := p.documentInfo(g)

	meta, err := buildXMP(xmpInput{
		profile:  p.profile,
		info:     info,
		filename: filename,
		producer: producer,
		created:  now,
	})
	if err != nil {
		return nil, false, invmodel.NewStructureError("metadata", "XMP", "cannot serialize metadata", err)
	}
	metaRef, err := g.addStream("metadata", "Metadata", types.Dict{
		"Type":    types.Name("Metadata"),
		"Subtype": types.Name("XML"),
	}, meta, true)
	if err != nil {
		return nil, false, err
	}
	g.catalog["Metadata"] = *metaRef

	if err := addOutputIntent(g, icc); err != nil {
		return nil, false, err
	}

	pages, err := g.pages()
	if err != nil {
		return nil, false, err
	}
	for _, page := range pages {
		page["Group"] = types.Dict{
			"Type": types.Name("Group"),
			"S":    types.Name("Transparency"),
			"CS":   types.Name("DeviceRGB"),
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, false, invmodel.NewStructureError("write", "", "cannot serialize document", err)
	}
	stable = time.Now().Truncate(time.Second).Equal(now)

	p.logger.Debug("packaged document",
		"attachment", filename,
		"xml_bytes", len(xml),
		"pages", len(pages),
		"bytes", buf.Len())
	return buf.Bytes(), stable, nil
}

// read parses pdf into a pdfcpu context. Structural checks beyond parsing
// happen when the catalog and page tree are resolved.
func read(pdf []byte) (*model.Context, error) {
	if !mimetype.Detect(pdf).Is("application/pdf") {
		return nil, invmodel.NewStructureError("read", "", "input is not a PDF document", nil)
	}
	ctx, err := api.ReadContext(bytes.NewReader(pdf), configuration())
	if err != nil {
		return nil, invmodel.NewStructureError("read", "", "cannot parse document", err)
	}
	return ctx, nil
}

// attach creates the embedded file stream and its file specification
func (p *Packager) attach(g *graph, data []byte, filename string, now time.Time) (*types.IndirectRef, error) {
	fileRef, err := g.addStream("attach", "EmbeddedFile", types.Dict{
		"Type":    types.Name("EmbeddedFile"),
		"Subtype": types.Name("text/xml"),
		"Params": types.Dict{
			"ModDate": types.StringLiteral(types.DateString(now)),
			"Size":    types.Integer(len(data)),
		},
	}, data, false)
	if err != nil {
		return nil, err
	}

	return g.add("attach", "Filespec", types.Dict{
		"Type":           types.Name("Filespec"),
		"F":              pdfText(filename),
		"UF":             pdfText(filename),
		"Desc":           pdfText(p.description),
		"AFRelationship": types.Name("Data"),
		"EF": types.Dict{
			"F":  *fileRef,
			"UF": *fileRef,
		},
	})
}

// setNames installs a fresh EmbeddedFiles tree holding only this attachment,
// keeping any other name trees the catalog already has.
func setNames(g *graph, filename string, fileSpec types.IndirectRef) {
	names := types.Dict{}
	if old, ok := g.dict(g.catalog["Names"]); ok {
		for k, v := range old {
			if k != "EmbeddedFiles" {
				names[k] = v
			}
		}
	}
	names["EmbeddedFiles"] = types.Dict{
		"Names": types.Array{pdfText(filename), fileSpec},
	}
	g.catalog["Names"] = names
}

func addOutputIntent(g *graph, icc []byte) error {
	iccRef, err := g.addStream("output_intent", "ICCBased", types.Dict{
		"N": types.Integer(3),
	}, icc, false)
	if err != nil {
		return err
	}
	intentRef, err := g.add("output_intent", "OutputIntent", types.Dict{
		"Type":                      types.Name("OutputIntent"),
		"S":                         types.Name(outputIntentSubtype),
		"OutputConditionIdentifier": types.StringLiteral(outputCondition),
		"Info":                      types.StringLiteral(outputConditionInfo),
		"DestOutputProfile":         *iccRef,
	})
	if err != nil {
		return err
	}
	g.catalog["OutputIntents"] = types.Array{*intentRef}
	return nil
}

// documentInfo merges configured values over the existing Info dictionary
// and writes the result back so it agrees with the XMP packet. Producer and
// dates are left to pdfcpu.
func (p *Packager) documentInfo(g *graph) DocumentInfo {
	info := p.info
	existing, ok := g.dict(infoRef(g))
	if !ok {
		existing = types.Dict{}
	}
	if info.Title == "" {
		info.Title = decodeText(existing["Title"])
	}
	if info.Author == "" {
		info.Author = decodeText(existing["Author"])
	}
	if info.Creator == "" {
		info.Creator = decodeText(existing["Creator"])
	}

	set := func(key, value string) {
		if value != "" {
			existing[key] = pdfText(value)
		}
	}
	set("Title", info.Title)
	set("Author", info.Author)
	set("Creator", info.Creator)

	if g.xref.Info == nil {
		if ref, err := g.xref.IndRefForNewObject(existing); err == nil {
			g.xref.Info = ref
		}
	}
	return info
}

func infoRef(g *graph) types.Object {
	if g.xref.Info == nil {
		return nil
	}
	return *g.xref.Info
}

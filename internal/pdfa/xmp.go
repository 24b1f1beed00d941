package pdfa

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// XMP namespaces
const (
	nsX             = "adobe:ns:meta/"
	nsRDF           = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsDC            = "http://purl.org/dc/elements/1.1/"
	nsXMP           = "http://ns.adobe.com/xap/1.0/"
	nsPDF           = "http://ns.adobe.com/pdf/1.3/"
	nsXMPMM         = "http://ns.adobe.com/xap/1.0/mm/"
	nsPDFAID        = "http://www.aiim.org/pdfa/ns/id/"
	nsPDFAExtension = "http://www.aiim.org/pdfa/ns/extension/"
	nsPDFASchema    = "http://www.aiim.org/pdfa/ns/schema#"
	nsPDFAProperty  = "http://www.aiim.org/pdfa/ns/property#"
	nsFacturX       = "urn:factur-x:pdfa:CrossIndustryDocument:invoice:1p0#"
)

const xpacketID = "W5M0MpCehiHzreSzNTczkc9d"

// XMPProfile describes the PDF/A identification and the e-invoice
// extension schema written into the metadata stream.
type XMPProfile struct {
	Part             int
	Conformance      string
	DocumentType     string
	Version          string
	ConformanceLevel string
}

// DefaultProfile is PDF/A-3B carrying an EN 16931 Factur-X invoice
var DefaultProfile = XMPProfile{
	Part:             3,
	Conformance:      "B",
	DocumentType:     "INVOICE",
	Version:          "1.0",
	ConformanceLevel: "EN 16931",
}

// DocumentInfo holds descriptive metadata mirrored into XMP and the Info dictionary
type DocumentInfo struct {
	Title   string
	Author  string
	Creator string
}

type xmpInput struct {
	profile  XMPProfile
	info     DocumentInfo
	filename string
	producer string
	created  time.Time
}

// buildXMP renders the complete xpacket
func buildXMP(in xmpInput) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xpacket", fmt.Sprintf("begin=\"\ufeff\" id=\"%s\"", xpacketID))

	meta := doc.CreateElement("x:xmpmeta")
	meta.CreateAttr("xmlns:x", nsX)
	rdf := meta.CreateElement("rdf:RDF")
	rdf.CreateAttr("xmlns:rdf", nsRDF)

	id := description(rdf, "pdfaid", nsPDFAID)
	id.CreateElement("pdfaid:part").SetText(strconv.Itoa(in.profile.Part))
	id.CreateElement("pdfaid:conformance").SetText(in.profile.Conformance)

	dc := description(rdf, "dc", nsDC)
	dc.CreateElement("dc:format").SetText("application/pdf")
	if in.info.Title != "" {
		alt := dc.CreateElement("dc:title").CreateElement("rdf:Alt")
		li := alt.CreateElement("rdf:li")
		li.CreateAttr("xml:lang", "x-default")
		li.SetText(in.info.Title)
	}
	if in.info.Author != "" {
		dc.CreateElement("dc:creator").CreateElement("rdf:Seq").CreateElement("rdf:li").SetText(in.info.Author)
	}

	stamp := in.created.Format(time.RFC3339)
	xmp := description(rdf, "xmp", nsXMP)
	xmp.CreateElement("xmp:CreateDate").SetText(stamp)
	xmp.CreateElement("xmp:ModifyDate").SetText(stamp)
	xmp.CreateElement("xmp:MetadataDate").SetText(stamp)
	if in.info.Creator != "" {
		xmp.CreateElement("xmp:CreatorTool").SetText(in.info.Creator)
	}

	if in.producer != "" {
		pdf := description(rdf, "pdf", nsPDF)
		pdf.CreateElement("pdf:Producer").SetText(in.producer)
	}

	mm := description(rdf, "xmpMM", nsXMPMM)
	mm.CreateElement("xmpMM:DocumentID").SetText("uuid:" + uuid.NewString())
	mm.CreateElement("xmpMM:InstanceID").SetText("uuid:" + uuid.NewString())

	fx := description(rdf, "fx", nsFacturX)
	fx.CreateElement("fx:DocumentType").SetText(in.profile.DocumentType)
	fx.CreateElement("fx:DocumentFileName").SetText(in.filename)
	fx.CreateElement("fx:Version").SetText(in.profile.Version)
	fx.CreateElement("fx:ConformanceLevel").SetText(in.profile.ConformanceLevel)

	extensionSchema(rdf)

	doc.CreateProcInst("xpacket", `end="w"`)
	doc.Indent(1)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return out, nil
}

func description(rdf *etree.Element, prefix, ns string) *etree.Element {
	d := rdf.CreateElement("rdf:Description")
	d.CreateAttr("rdf:about", "")
	d.CreateAttr("xmlns:"+prefix, ns)
	return d
}

var facturXProperties = []struct {
	name, description string
}{
	{"DocumentFileName", "name of the embedded XML invoice file"},
	{"DocumentType", "INVOICE"},
	{"Version", "version of the XML invoice schema"},
	{"ConformanceLevel", "conformance level of the embedded XML invoice"},
}

// extensionSchema declares the fx namespace so PDF/A validators accept it
func extensionSchema(rdf *etree.Element) {
	d := rdf.CreateElement("rdf:Description")
	d.CreateAttr("rdf:about", "")
	d.CreateAttr("xmlns:pdfaExtension", nsPDFAExtension)
	d.CreateAttr("xmlns:pdfaSchema", nsPDFASchema)
	d.CreateAttr("xmlns:pdfaProperty", nsPDFAProperty)

	schema := d.CreateElement("pdfaExtension:schemas").CreateElement("rdf:Bag").CreateElement("rdf:li")
	schema.CreateAttr("rdf:parseType", "Resource")
	schema.CreateElement("pdfaSchema:schema").SetText("Factur-X PDFA Extension Schema")
	schema.CreateElement("pdfaSchema:namespaceURI").SetText(nsFacturX)
	schema.CreateElement("pdfaSchema:prefix").SetText("fx")

	seq := schema.CreateElement("pdfaSchema:property").CreateElement("rdf:Seq")
	for _, p := range facturXProperties {
		li := seq.CreateElement("rdf:li")
		li.CreateAttr("rdf:parseType", "Resource")
		li.CreateElement("pdfaProperty:name").SetText(p.name)
		li.CreateElement("pdfaProperty:valueType").SetText("Text")
		li.CreateElement("pdfaProperty:category").SetText("external")
		li.CreateElement("pdfaProperty:description").SetText(p.description)
	}
}

// XMPFacts are the identification values read back from a metadata stream
type XMPFacts struct {
	Part             string
	Conformance      string
	DocumentType     string
	DocumentFileName string
	Version          string
	ConformanceLevel string
	Producer         string
	CreateDate       time.Time
	ModifyDate       time.Time
}

func parseXMP(b []byte) (XMPFacts, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return XMPFacts{}, err
	}
	find := func(path string) string {
		if e := doc.FindElement(path); e != nil {
			return strings.TrimSpace(e.Text())
		}
		return ""
	}
	return XMPFacts{
		Part:             find("//pdfaid:part"),
		Conformance:      find("//pdfaid:conformance"),
		DocumentType:     find("//fx:DocumentType"),
		DocumentFileName: find("//fx:DocumentFileName"),
		Version:          find("//fx:Version"),
		ConformanceLevel: find("//fx:ConformanceLevel"),
		Producer:         find("//pdf:Producer"),
		CreateDate:       date(find("//xmp:CreateDate")),
		ModifyDate:       date(find("//xmp:ModifyDate")),
	}, nil
}

// date parses an XMP date, returning the zero time when absent or malformed
func date(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

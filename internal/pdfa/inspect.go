package pdfa

import (
	"fmt"
	"sort"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	invmodel "github.com/rezonia/invoice-composer/internal/model"
)

// AttachmentInfo describes one embedded file
type AttachmentInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Subtype        string `json:"subtype,omitempty"`
	Relationship   string `json:"relationship,omitempty"`
	Size           int    `json:"size"`
	AssociatedFile bool   `json:"associated_file"`
}

// InfoFacts are the entries of the document information dictionary
type InfoFacts struct {
	Title        string    `json:"title,omitempty"`
	Author       string    `json:"author,omitempty"`
	Creator      string    `json:"creator,omitempty"`
	Producer     string    `json:"producer,omitempty"`
	CreationDate time.Time `json:"creation_date,omitzero"`
	ModDate      time.Time `json:"mod_date,omitzero"`
}

// Report summarizes the PDF/A-3 related structures of a document
type Report struct {
	Pages          int              `json:"pages"`
	PagesWithGroup int              `json:"pages_with_group"`
	Attachments    []AttachmentInfo `json:"attachments"`
	AFCount        int              `json:"af_count"`
	OutputIntents  int              `json:"output_intents"`
	HasMetadata    bool             `json:"has_metadata"`
	XMP            XMPFacts         `json:"xmp"`
	Info           InfoFacts        `json:"info"`
}

// PDFA returns the declared PDF/A level, e.g. "3B", or "" if none
func (r *Report) PDFA() string {
	return r.XMP.Part + r.XMP.Conformance
}

// Inspect reads pdf and reports its attachments and compliance structures
func Inspect(pdf []byte) (*Report, error) {
	ctx, err := read(pdf)
	if err != nil {
		return nil, err
	}
	g, err := openGraph(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	pages, err := g.pages()
	if err != nil {
		return nil, err
	}
	report.Pages = len(pages)
	for _, page := range pages {
		if grp, ok := g.dict(page["Group"]); ok {
			if s, _ := grp["S"].(types.Name); s == "Transparency" {
				report.PagesWithGroup++
			}
		}
	}

	associated := make(map[int]bool)
	if af, ok := g.array(g.catalog["AF"]); ok {
		report.AFCount = len(af)
		for _, o := range af {
			if ref, ok := o.(types.IndirectRef); ok {
				associated[ref.ObjectNumber.Value()] = true
			}
		}
	}

	if intents, ok := g.array(g.catalog["OutputIntents"]); ok {
		report.OutputIntents = len(intents)
	}

	if sd, ok := g.stream(g.catalog["Metadata"]); ok {
		report.HasMetadata = true
		if data, err := streamBytes(sd); err == nil {
			if facts, err := parseXMP(data); err == nil {
				report.XMP = facts
			}
		}
	}

	if d, ok := g.dict(infoRef(g)); ok {
		report.Info = InfoFacts{
			Title:        decodeText(d["Title"]),
			Author:       decodeText(d["Author"]),
			Creator:      decodeText(d["Creator"]),
			Producer:     decodeText(d["Producer"]),
			CreationDate: pdfDate(d["CreationDate"]),
			ModDate:      pdfDate(d["ModDate"]),
		}
	}

	for _, entry := range g.embeddedFiles() {
		info := AttachmentInfo{Name: entry.name}
		if ref, ok := entry.spec.(types.IndirectRef); ok {
			info.AssociatedFile = associated[ref.ObjectNumber.Value()]
		}
		if spec, ok := g.dict(entry.spec); ok {
			info.Description = decodeText(spec["Desc"])
			if rel, ok := spec["AFRelationship"].(types.Name); ok {
				info.Relationship = string(rel)
			}
			if sd, ok := g.embeddedStream(spec); ok {
				if sub, ok := sd.Dict["Subtype"].(types.Name); ok {
					info.Subtype = string(sub)
				}
				if data, err := streamBytes(sd); err == nil {
					info.Size = len(data)
				}
			}
		}
		report.Attachments = append(report.Attachments, info)
	}
	sort.Slice(report.Attachments, func(i, j int) bool {
		return report.Attachments[i].Name < report.Attachments[j].Name
	})

	return report, nil
}

// Attachment returns the decoded content of the embedded file called name
func Attachment(pdf []byte, name string) ([]byte, error) {
	ctx, err := read(pdf)
	if err != nil {
		return nil, err
	}
	g, err := openGraph(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range g.embeddedFiles() {
		if entry.name != name {
			continue
		}
		spec, ok := g.dict(entry.spec)
		if !ok {
			return nil, invmodel.NewStructureError("attachment", name, "file specification cannot be resolved", nil)
		}
		sd, ok := g.embeddedStream(spec)
		if !ok {
			return nil, invmodel.NewStructureError("attachment", name, "embedded file stream missing", nil)
		}
		data, err := streamBytes(sd)
		if err != nil {
			return nil, invmodel.NewStructureError("attachment", name, "cannot decode embedded file", err)
		}
		return data, nil
	}
	return nil, invmodel.NewStructureError("attachment", name, "no such attachment", nil)
}

func pdfDate(obj types.Object) time.Time {
	t, ok := types.DateTime(decodeText(obj), true)
	if !ok {
		return time.Time{}
	}
	return t
}

type nameEntry struct {
	name string
	spec types.Object
}

// embeddedFiles flattens the EmbeddedFiles name tree, following Kids
func (g *graph) embeddedFiles() []nameEntry {
	names, ok := g.dict(g.catalog["Names"])
	if !ok {
		return nil
	}
	root, ok := g.dict(names["EmbeddedFiles"])
	if !ok {
		return nil
	}
	var out []nameEntry
	var walk func(node types.Dict, depth int)
	walk = func(node types.Dict, depth int) {
		if depth > 32 {
			return
		}
		if arr, ok := g.array(node["Names"]); ok {
			for i := 0; i+1 < len(arr); i += 2 {
				key, _ := g.xref.Dereference(arr[i])
				out = append(out, nameEntry{name: decodeText(key), spec: arr[i+1]})
			}
		}
		if kids, ok := g.array(node["Kids"]); ok {
			for _, kid := range kids {
				if d, ok := g.dict(kid); ok {
					walk(d, depth+1)
				}
			}
		}
	}
	walk(root, 0)
	return out
}

func (g *graph) embeddedStream(spec types.Dict) (*types.StreamDict, bool) {
	ef, ok := g.dict(spec["EF"])
	if !ok {
		return nil, false
	}
	for _, key := range []string{"UF", "F"} {
		if sd, ok := g.stream(ef[key]); ok {
			return sd, true
		}
	}
	return nil, false
}

func streamBytes(sd *types.StreamDict) ([]byte, error) {
	if sd.Content != nil {
		return sd.Content, nil
	}
	if err := sd.Decode(); err != nil {
		return nil, fmt.Errorf("decode stream: %w", err)
	}
	return sd.Content, nil
}

package pdfa

import (
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	invmodel "github.com/rezonia/invoice-composer/internal/model"
)

// graph wraps the object table of one re-opened document. It resolves the
// root catalog once and only ever mutates nodes reachable from it.
type graph struct {
	xref    *model.XRefTable
	catalog types.Dict
}

func openGraph(ctx *model.Context) (*graph, error) {
	xref := ctx.XRefTable
	if xref == nil || xref.Root == nil {
		return nil, invmodel.NewStructureError("open", "catalog", "document has no root reference", nil)
	}
	obj, err := xref.Dereference(*xref.Root)
	if err != nil {
		return nil, invmodel.NewStructureError("open", "catalog", "root reference cannot be resolved", err)
	}
	catalog, ok := obj.(types.Dict)
	if !ok || catalog == nil {
		return nil, invmodel.NewStructureError("open", "catalog", "root object is not a dictionary", nil)
	}
	return &graph{xref: xref, catalog: catalog}, nil
}

// add stores obj as a new indirect object
func (g *graph) add(stage, name string, obj types.Object) (*types.IndirectRef, error) {
	ref, err := g.xref.IndRefForNewObject(obj)
	if err != nil {
		return nil, invmodel.NewStructureError(stage, name, "cannot allocate object", err)
	}
	return ref, nil
}

// addStream stores data as a new stream object, Flate compressed unless raw is set
func (g *graph) addStream(stage, name string, d types.Dict, data []byte, raw bool) (*types.IndirectRef, error) {
	var pipeline []types.PDFFilter
	if !raw {
		pipeline = []types.PDFFilter{{Name: filter.Flate}}
		d["Filter"] = types.Name(filter.Flate)
	}
	sd := types.NewStreamDict(d, 0, nil, nil, pipeline)
	sd.Content = data
	if raw {
		sd.Raw = data
	} else if err := sd.Encode(); err != nil {
		return nil, invmodel.NewStructureError(stage, name, "cannot encode stream", err)
	}
	n := int64(len(sd.Raw))
	sd.StreamLength = &n
	sd.Dict["Length"] = types.Integer(n)
	return g.add(stage, name, sd)
}

func (g *graph) dict(obj types.Object) (types.Dict, bool) {
	if obj == nil {
		return nil, false
	}
	o, err := g.xref.Dereference(obj)
	if err != nil || o == nil {
		return nil, false
	}
	d, ok := o.(types.Dict)
	return d, ok
}

func (g *graph) array(obj types.Object) (types.Array, bool) {
	if obj == nil {
		return nil, false
	}
	o, err := g.xref.Dereference(obj)
	if err != nil || o == nil {
		return nil, false
	}
	a, ok := o.(types.Array)
	return a, ok
}

func (g *graph) stream(obj types.Object) (*types.StreamDict, bool) {
	if obj == nil {
		return nil, false
	}
	o, err := g.xref.Dereference(obj)
	if err != nil || o == nil {
		return nil, false
	}
	switch sd := o.(type) {
	case types.StreamDict:
		return &sd, true
	case *types.StreamDict:
		return sd, true
	}
	return nil, false
}

// pages walks the page tree from the catalog and returns every leaf page
func (g *graph) pages() ([]types.Dict, error) {
	root, ok := g.dict(g.catalog["Pages"])
	if !ok {
		return nil, invmodel.NewStructureError("pages", "Pages", "catalog has no page tree", nil)
	}
	var out []types.Dict
	seen := make(map[int]bool)
	var walk func(node types.Dict, depth int) error
	walk = func(node types.Dict, depth int) error {
		if depth > 64 {
			return invmodel.NewStructureError("pages", "Kids", "page tree too deep", nil)
		}
		kids, ok := g.array(node["Kids"])
		if !ok {
			if name, _ := node["Type"].(types.Name); name == "Pages" {
				return nil
			}
			out = append(out, node)
			return nil
		}
		for _, kid := range kids {
			if ref, ok := kid.(types.IndirectRef); ok {
				if seen[ref.ObjectNumber.Value()] {
					return invmodel.NewStructureError("pages", "Kids", "page tree contains a cycle", nil)
				}
				seen[ref.ObjectNumber.Value()] = true
			}
			child, ok := g.dict(kid)
			if !ok {
				return invmodel.NewStructureError("pages", "Kids", "page tree node cannot be resolved", nil)
			}
			if err := walk(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// pdfText encodes s as a PDF text string: an escaped literal for ASCII,
// UTF-16BE with byte order mark otherwise.
func pdfText(s string) types.Object {
	s = invmodel.Sanitize(s)
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return types.NewHexLiteral([]byte(types.EncodeUTF16String(s)))
		}
	}
	esc, err := types.Escape(s)
	if err != nil {
		return types.NewHexLiteral([]byte(types.EncodeUTF16String(s)))
	}
	return types.StringLiteral(*esc)
}

// decodeText reverses pdfText and also accepts strings written by other producers
func decodeText(obj types.Object) string {
	s, err := types.StringOrHexLiteral(obj)
	if err != nil || s == nil {
		return ""
	}
	return *s
}

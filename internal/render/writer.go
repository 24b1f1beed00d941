// Package render turns laid out pages into PDF bytes via github.com/tdewolff/canvas.
package render

import (
	"bytes"
	"image/color"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/rezonia/invoice-composer/internal/layout"
	"github.com/rezonia/invoice-composer/internal/model"
)

// Info is the PDF document information dictionary
type Info struct {
	Title    string
	Subject  string
	Keywords string
	Author   string
	Creator  string
}

// Writer draws pages with a single regular font face
type Writer struct {
	family *canvas.FontFamily
	info   Info
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithInfo sets the document information
func WithInfo(info Info) WriterOption {
	return func(w *Writer) {
		w.info = info
	}
}

// NewWriter loads font (TrueType or OpenType bytes) as the regular face
func NewWriter(font []byte, opts ...WriterOption) (*Writer, error) {
	if len(font) == 0 {
		return nil, model.NewResourceError("font", "", "font data is empty", nil)
	}
	family := canvas.NewFontFamily("invoice")
	if err := family.LoadFont(font, 0, canvas.FontRegular); err != nil {
		return nil, model.NewResourceError("font", "", "cannot load font", err)
	}

	w := &Writer{
		family: family,
		info:   Info{Title: "Invoice"},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write renders pages into a PDF document
func (w *Writer) Write(pages []layout.Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, model.NewStructureError("render", "", "no pages to render", nil)
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, pages[0].Width, pages[0].Height, nil)
	writer.SetInfo(
		model.Sanitize(w.info.Title),
		model.Sanitize(w.info.Subject),
		model.Sanitize(w.info.Keywords),
		model.Sanitize(w.info.Author),
		model.Sanitize(w.info.Creator),
	)
	for i, page := range pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianI)
		w.drawPage(ctx, page)
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, model.NewStructureError("render", "", "cannot write PDF", err)
	}
	return buf.Bytes(), nil
}

func (w *Writer) drawPage(ctx *canvas.Context, page layout.Page) {
	for _, in := range page.Instructions {
		switch op := in.(type) {
		case layout.Text:
			face := w.family.Face(op.Size, canvas.Black, canvas.FontRegular, canvas.FontNormal)
			ctx.DrawText(op.X, op.Y, canvas.NewTextLine(face, op.Text, canvas.Left))
		case layout.Line:
			width := op.Width
			if width <= 0 {
				width = layout.DefaultLineWidth
			}
			ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
			ctx.SetStrokeColor(canvas.Black)
			ctx.SetStrokeWidth(width * layout.PtToMm)
			p := &canvas.Path{}
			p.MoveTo(0, 0)
			p.LineTo(op.X2-op.X1, op.Y2-op.Y1)
			ctx.DrawPath(op.X1, op.Y1, p)
		case layout.Image:
			dpmm := float64(op.Image.Bounds().Dx()) / op.Width
			if dpmm <= 0 {
				dpmm = 1
			}
			ctx.DrawImage(op.X, op.Y, op.Image, canvas.DPMM(dpmm))
		}
	}
}

package render_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/rezonia/invoice-composer/internal/layout"
	"github.com/rezonia/invoice-composer/internal/model"
	"github.com/rezonia/invoice-composer/internal/render"
)

func init() {
	api.DisableConfigDir()
}

func twoPages() []layout.Page {
	e := layout.NewEngine()
	e.WriteText("INVOICE ID: 1", 14, layout.LeftMargin)
	e.HLine(layout.LeftMargin, layout.RightEdge, e.Y())

	logo := image.NewRGBA(image.Rect(0, 0, 8, 4))
	logo.Set(1, 1, color.RGBA{255, 0, 0, 255})
	e.PlaceImage(logo, layout.LeftMargin, 200, 40, 20)

	e.BreakPage()
	e.WriteText("Seite zwei – Größe", 10, layout.LeftMargin)
	return e.Finish()
}

func TestNewWriter_InvalidFont(t *testing.T) {
	_, err := render.NewWriter(nil)
	require.Error(t, err)
	var resErr *model.ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "font", resErr.Resource)

	_, err = render.NewWriter([]byte("definitely not a font"))
	require.ErrorAs(t, err, &resErr)
}

func TestWriter_Write(t *testing.T) {
	w, err := render.NewWriter(goregular.TTF, render.WithInfo(render.Info{
		Title:   "Invoice",
		Author:  "Muster GmbH",
		Creator: "invoice-composer",
	}))
	require.NoError(t, err)

	out, err := w.Write(twoPages())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	n, err := api.PageCount(bytes.NewReader(out), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriter_NoPages(t *testing.T) {
	w, err := render.NewWriter(goregular.TTF)
	require.NoError(t, err)

	_, err = w.Write(nil)
	var structErr *model.StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, "render", structErr.Stage)
}

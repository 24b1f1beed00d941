package generator_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/generator"
	"github.com/rezonia/invoice-composer/internal/model"
	"github.com/rezonia/invoice-composer/internal/pdfa"
)

func iccPath(t *testing.T) string {
	t.Helper()
	b := make([]byte, 132)
	binary.BigEndian.PutUint32(b[0:], uint32(len(b)))
	copy(b[16:], "RGB ")
	copy(b[36:], "acsp")
	path := filepath.Join(t.TempDir(), "sRGB.icc")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func pngLogo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 140, 40))
	for x := 0; x < 140; x++ {
		img.Set(x, 20, color.RGBA{0, 80, 160, 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleInvoice(items int) *model.Invoice {
	inv := &model.Invoice{
		Number:    "RE-2025-042",
		IssueDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC),
		Locale:    "de-DE",
		Currency:  "EUR",
		Seller: model.Party{
			Name:    "Muster GmbH",
			TaxID:   "DE123456789",
			Address: model.Address{Street: "Hauptstraße", HouseNumber: "12", PostalCode: "10115", Town: "Berlin"},
		},
		Buyer: model.Party{
			Name:    "Kunde AG",
			Address: model.Address{Street: "Ringweg", HouseNumber: "3", PostalCode: "80331", Town: "München"},
		},
		PaymentMethod:  "Bank transfer",
		PaymentDetails: []model.KeyValue{{Label: "IBAN", Value: "DE02120300000000202051"}},
	}
	for i := 0; i < items; i++ {
		inv.Items = append(inv.Items, model.LineItem{
			Description: fmt.Sprintf("Position %d", i+1),
			Units:       uint(i%3 + 1),
			UnitPrice:   9.99,
			TaxRate:     0.19,
		})
	}
	return inv
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(&bytes.Buffer{}, log.Options{Level: log.DebugLevel})
}

func TestGenerate(t *testing.T) {
	g := generator.New(generator.WithICCProfile(iccPath(t)), generator.WithLogger(quietLogger()))

	out, err := g.Generate(sampleInvoice(3), goregular.TTF, pngLogo(t))
	require.NoError(t, err)

	report, err := pdfa.Inspect(out)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, report.Pages, report.PagesWithGroup)
	assert.Equal(t, "3B", report.PDFA())
	assert.Equal(t, "EN 16931", report.XMP.ConformanceLevel)
	require.Len(t, report.Attachments, 1)
	assert.Equal(t, "factur-x.xml", report.Attachments[0].Name)

	xml, err := pdfa.Attachment(out, "factur-x.xml")
	require.NoError(t, err)
	want, err := einvoice.EncodeCII(sampleInvoice(3))
	require.NoError(t, err)
	assert.Equal(t, want, string(xml))
}

func TestBuild_UBLAndPagination(t *testing.T) {
	g := generator.New(
		generator.WithICCProfile(iccPath(t)),
		generator.WithProfile(einvoice.ProfileUBL),
		generator.WithLogger(quietLogger()),
	)

	res, err := g.Build(sampleInvoice(90), goregular.TTF, nil)
	require.NoError(t, err)
	assert.Equal(t, einvoice.ProfileUBL, res.Profile)
	assert.Equal(t, "xrechnung.xml", res.Attachment)
	assert.Greater(t, res.Pages, 1)

	report, err := pdfa.Inspect(res.PDF)
	require.NoError(t, err)
	assert.Equal(t, res.Pages, report.Pages)
	assert.Equal(t, res.Pages, report.PagesWithGroup)
	assert.Equal(t, "XRECHNUNG", report.XMP.ConformanceLevel)
	assert.Equal(t, "xrechnung.xml", report.XMP.DocumentFileName)
}

func TestBuild_AttachmentNameOverride(t *testing.T) {
	g := generator.New(
		generator.WithICCProfile(iccPath(t)),
		generator.WithAttachmentName("invoice.xml"),
		generator.WithLogger(quietLogger()),
	)

	res, err := g.Build(sampleInvoice(1), goregular.TTF, nil)
	require.NoError(t, err)
	_, err = pdfa.Attachment(res.PDF, "invoice.xml")
	require.NoError(t, err)
}

func TestBuild_ZeroItems(t *testing.T) {
	g := generator.New(generator.WithICCProfile(iccPath(t)), generator.WithLogger(quietLogger()))

	res, err := g.Build(sampleInvoice(0), goregular.TTF, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Zero(t, res.Summary.Total)
}

func TestGenerate_ResourceErrors(t *testing.T) {
	icc := iccPath(t)

	tests := []struct {
		name     string
		opts     []generator.Option
		font     []byte
		logo     []byte
		resource string
	}{
		{"missing font", nil, nil, nil, "font"},
		{"corrupt font", nil, []byte("not a font"), nil, "font"},
		{"logo is not an image", nil, goregular.TTF, []byte("%PDF-1.7\n"), "logo"},
		{"truncated png", nil, goregular.TTF, pngLogo(t)[:40], "logo"},
		{"missing icc profile", []generator.Option{generator.WithICCProfile(filepath.Join(t.TempDir(), "none.icc"))}, goregular.TTF, nil, "icc_profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]generator.Option{generator.WithICCProfile(icc), generator.WithLogger(quietLogger())}, tt.opts...)
			out, err := generator.New(opts...).Generate(sampleInvoice(1), tt.font, tt.logo)
			assert.Nil(t, out)
			var resErr *model.ResourceError
			require.ErrorAs(t, err, &resErr)
			assert.Equal(t, tt.resource, resErr.Resource)
		})
	}
}

func TestGenerate_UnknownProfile(t *testing.T) {
	_, err := generator.New(generator.WithProfile("edifact")).Generate(sampleInvoice(1), goregular.TTF, nil)
	var encErr *model.EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestDecodeLogo(t *testing.T) {
	img, err := generator.DecodeLogo(pngLogo(t))
	require.NoError(t, err)
	assert.Equal(t, 140, img.Bounds().Dx())

	_, err = generator.DecodeLogo([]byte("plain text"))
	var resErr *model.ResourceError
	require.ErrorAs(t, err, &resErr)
}

package document_test

import (
	"fmt"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-composer/internal/document"
	"github.com/rezonia/invoice-composer/internal/layout"
	"github.com/rezonia/invoice-composer/internal/model"
)

func sampleInvoice(items int) *model.Invoice {
	delivery := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)
	inv := &model.Invoice{
		Number:        "RE-2025-042",
		IssueDate:     time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC),
		DeliveryDate:  &delivery,
		DeliveryType:  "Parcel",
		Extra:         []model.KeyValue{{Label: "Order", Value: "PO-7781"}},
		PaymentMethod: "Bank transfer",
		PaymentDetails: []model.KeyValue{
			{Label: "IBAN", Value: "DE02120300000000202051"},
			{Label: "BIC", Value: "BYLADEM1001"},
		},
		Seller: model.Party{
			Name:    "Muster GmbH",
			TaxID:   "DE123456789",
			Email:   "billing@muster.example",
			Address: model.Address{Street: "Hauptstraße", HouseNumber: "12", PostalCode: "10115", Town: "Berlin"},
		},
		Buyer: model.Party{
			Name:    "Kunde AG",
			Address: model.Address{Street: "Ringweg", HouseNumber: "3", PostalCode: "80331", Town: "München"},
		},
		Locale:   "de",
		Currency: "EUR",
	}
	for i := 0; i < items; i++ {
		inv.Items = append(inv.Items, model.LineItem{
			Description: fmt.Sprintf("Item %d", i),
			Units:       1,
			UnitPrice:   10,
			TaxRate:     0.19,
		})
	}
	return inv
}

func render(inv *model.Invoice, opts ...document.Option) []layout.Page {
	return document.Render(inv, model.Summarize(inv.Items), opts...)
}

func allTexts(pages []layout.Page) []string {
	var out []string
	for _, p := range pages {
		for _, t := range p.Texts() {
			out = append(out, t.Text)
		}
	}
	return out
}

func TestRender_SinglePage(t *testing.T) {
	pages := render(sampleInvoice(3))
	require.Len(t, pages, 1)

	texts := pages[0].Texts()
	require.NotEmpty(t, texts)
	assert.Equal(t, "INVOICE ID: RE-2025-042", texts[0].Text)
	assert.Equal(t, layout.TopMargin, texts[0].Y)

	all := strings.Join(allTexts(pages), "\n")
	assert.Contains(t, all, "DATE: 15.07.2025")
	assert.Contains(t, all, "PAYMENT DUE: 14.08.2025")
	assert.Contains(t, all, "DELIVERY DATE: 20.07.2025")
	assert.Contains(t, all, "Order: PO-7781")
	assert.Contains(t, all, "Sold by")
	assert.Contains(t, all, "Billed to")
	assert.Contains(t, all, "VAT ID: DE123456789")
	assert.Contains(t, all, "Tax (19%):")
	assert.Contains(t, all, "TOTAL:")
	assert.Contains(t, all, "35,70 €")
	assert.Contains(t, all, "IBAN: DE02120300000000202051")
	assert.Contains(t, all, "Page 1 of 1")
}

func TestRender_Logo(t *testing.T) {
	logo := image.NewRGBA(image.Rect(0, 0, 200, 100))
	pages := render(sampleInvoice(1), document.WithLogo(logo))
	require.Len(t, pages, 1)

	img, ok := pages[0].Instructions[0].(layout.Image)
	require.True(t, ok, "logo is drawn first")
	assert.InDelta(t, 70.0, img.Width, 1e-9)
	assert.InDelta(t, 35.0, img.Height, 1e-9)
	assert.InDelta(t, layout.PageHeight-10-35, img.Y, 1e-9)

	texts := pages[0].Texts()
	assert.InDelta(t, img.Y-10, texts[0].Y, 1e-9, "header starts below the logo")
}

func TestRender_TallLogoLimitedByHeight(t *testing.T) {
	logo := image.NewRGBA(image.Rect(0, 0, 100, 400))
	pages := render(sampleInvoice(1), document.WithLogo(logo))

	img := pages[0].Instructions[0].(layout.Image)
	assert.InDelta(t, 40.0, img.Height, 1e-9)
	assert.InDelta(t, 10.0, img.Width, 1e-9)
}

func TestRender_Pagination(t *testing.T) {
	const n = 120
	pages := render(sampleInvoice(n))
	require.Greater(t, len(pages), 2)

	counts := make(map[string]int)
	for _, text := range allTexts(pages) {
		if strings.HasPrefix(text, "Item ") {
			counts[text]++
		}
	}
	assert.Len(t, counts, n)
	for name, c := range counts {
		assert.Equal(t, 1, c, name)
	}

	for i, p := range pages {
		footer := fmt.Sprintf("Page %d of %d", i+1, len(pages))
		assert.Contains(t, allTexts([]layout.Page{p}), footer)
	}

	last := strings.Join(allTexts(pages[len(pages)-1:]), "\n")
	assert.Contains(t, last, "TOTAL:")
}

func TestRender_ExemptLineAndSanitizing(t *testing.T) {
	inv := sampleInvoice(0)
	inv.Items = []model.LineItem{
		{Description: "Consulting\x07", Units: 2, UnitPrice: 100, ExemptionReason: "Reverse charge"},
	}
	pages := render(inv)

	all := allTexts(pages)
	joined := strings.Join(all, "\n")
	assert.Contains(t, all, "Consulting")
	assert.Contains(t, joined, "Reverse charge")
	for _, text := range all {
		assert.NotContains(t, text, "\x07")
		assert.NotContains(t, text, "Tax (")
	}
}

func TestRender_NoItems(t *testing.T) {
	pages := render(sampleInvoice(0))
	require.Len(t, pages, 1)
	assert.Contains(t, allTexts(pages), "Description")
}

func TestRender_CustomSections(t *testing.T) {
	pages := render(sampleInvoice(2), document.WithSections(document.DrawHeader), document.WithoutFooter())
	require.Len(t, pages, 1)

	all := allTexts(pages)
	assert.NotContains(t, all, "Sold by")
	assert.NotContains(t, all, "Page 1 of 1")
}

func TestRender_Deterministic(t *testing.T) {
	a := render(sampleInvoice(40))
	b := render(sampleInvoice(40))
	assert.Equal(t, a, b)
}

package xml_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-composer/internal/einvoice"
	"github.com/rezonia/invoice-composer/internal/model"
	xmlparser "github.com/rezonia/invoice-composer/internal/parser/xml"
)

func sampleInvoice() *model.Invoice {
	return &model.Invoice{
		Number:    "RE-2025-042",
		IssueDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC),
		Currency:  "EUR",
		Seller: model.Party{
			Name:  "Muster & Söhne GmbH",
			TaxID: "DE123456789",
		},
		Buyer: model.Party{Name: "Kunde AG"},
		Items: []model.LineItem{
			{Description: "Widget", Units: 10, UnitPrice: 9.99, TaxRate: 0.19},
			{Description: "Installation", Units: 2, UnitPrice: 100, TaxRate: 0, ExemptionReason: "reverse charge"},
		},
	}
}

func TestRegistry_Detect(t *testing.T) {
	registry := xmlparser.NewRegistry()

	cii, err := einvoice.EncodeCII(sampleInvoice())
	require.NoError(t, err)
	ubl, err := einvoice.EncodeUBL(sampleInvoice())
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		want    einvoice.Profile
		wantErr bool
	}{
		{"cii", cii, einvoice.ProfileCII, false},
		{"ubl", ubl, einvoice.ProfileUBL, false},
		{"bare invoice", "<Invoice/>", "", true},
		{"not xml", "hello", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := registry.Detect([]byte(tt.content))
			if tt.wantErr {
				var encErr *model.EncodingError
				require.ErrorAs(t, err, &encErr)
				assert.Equal(t, "root", encErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, adapter.Profile())
		})
	}
}

func TestParse_CII(t *testing.T) {
	content, err := einvoice.EncodeCII(sampleInvoice())
	require.NoError(t, err)

	doc, err := xmlparser.NewRegistry().Parse(context.Background(), []byte(content))
	require.NoError(t, err)

	assert.Equal(t, einvoice.ProfileCII, doc.Profile)
	assert.Equal(t, "RE-2025-042", doc.Number)
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	assert.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), doc.DueDate)
	assert.Equal(t, "EUR", doc.Currency)
	assert.Equal(t, "Muster & Söhne GmbH", doc.Seller)
	assert.Equal(t, "DE123456789", doc.SellerTaxID)
	assert.Equal(t, "Kunde AG", doc.Buyer)
	assert.Equal(t, 2, doc.Lines)
	assert.Equal(t, "299.9", doc.TaxBasis.String())
	assert.Equal(t, "18.98", doc.TaxTotal.String())
	assert.Equal(t, "318.88", doc.GrandTotal.String())
}

func TestParse_UBL(t *testing.T) {
	content, err := einvoice.EncodeUBL(sampleInvoice())
	require.NoError(t, err)

	doc, err := xmlparser.NewRegistry().Parse(context.Background(), []byte(content))
	require.NoError(t, err)

	assert.Equal(t, einvoice.ProfileUBL, doc.Profile)
	assert.Equal(t, "RE-2025-042", doc.Number)
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	assert.Equal(t, "Muster & Söhne GmbH", doc.Seller)
	assert.Equal(t, "Kunde AG", doc.Buyer)
	assert.Equal(t, 2, doc.Lines)
	assert.Equal(t, "318.88", doc.GrandTotal.String())
	assert.Equal(t, "18.98", doc.TaxTotal.String())
}

func TestParse_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		adapter xmlparser.Adapter
		content string
		field   string
	}{
		{
			name:    "cii without number",
			adapter: xmlparser.NewCIIAdapter(),
			content: `<rsm:CrossIndustryInvoice xmlns:rsm="urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"/>`,
			field:   "ExchangedDocument/ID",
		},
		{
			name:    "ubl bad date",
			adapter: xmlparser.NewUBLAdapter(),
			content: `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"><ID>1</ID><IssueDate>someday</IssueDate></Invoice>`,
			field:   "IssueDate",
		},
		{
			name:    "ubl bad amount",
			adapter: xmlparser.NewUBLAdapter(),
			content: `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"><ID>1</ID><IssueDate>2025-07-15</IssueDate><LegalMonetaryTotal><PayableAmount>lots</PayableAmount></LegalMonetaryTotal></Invoice>`,
			field:   "PayableAmount",
		},
		{
			name:    "truncated",
			adapter: xmlparser.NewUBLAdapter(),
			content: `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"><ID>`,
			field:   "xml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.adapter.Parse(ctx, strings.NewReader(tt.content))
			var encErr *model.EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, tt.field, encErr.Field)
		})
	}
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := xmlparser.NewCIIAdapter().Parse(ctx, strings.NewReader(""))
	assert.ErrorIs(t, err, context.Canceled)
}

type fixedAdapter struct{}

func (fixedAdapter) Parse(ctx context.Context, _ io.Reader) (*xmlparser.Document, error) {
	return &xmlparser.Document{Number: "custom"}, nil
}
func (fixedAdapter) CanParse([]byte) bool { return true }
func (fixedAdapter) Profile() einvoice.Profile { return "custom" }

func TestRegistry_RegisterAdapter(t *testing.T) {
	registry := xmlparser.NewRegistry()
	registry.RegisterAdapter(fixedAdapter{})

	doc, err := registry.Parse(context.Background(), []byte("<anything/>"))
	require.NoError(t, err)
	assert.Equal(t, "custom", doc.Number)

	assert.NotNil(t, registry.GetAdapter(einvoice.ProfileUBL))
	assert.Nil(t, registry.GetAdapter("edifact"))
}

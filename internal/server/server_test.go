package server_test

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-composer/internal/config"
	"github.com/rezonia/invoice-composer/internal/pdfa"
	"github.com/rezonia/invoice-composer/internal/server"
)

const invoiceJSON = `{
  "number": "RE-2025-042",
  "issue_date": "2025-07-15",
  "due_date": "2025-08-14",
  "currency": "EUR",
  "payment_method": "Bank transfer",
  "payment_details": [{"label": "IBAN", "value": "DE02120300000000202051"}],
  "seller": {"name": "Muster GmbH", "tax_id": "DE123456789",
    "address": {"street": "Hauptstraße", "house_number": "12", "postal_code": "10115", "town": "Berlin"}},
  "buyer": {"name": "Kunde AG",
    "address": {"street": "Ringweg", "house_number": "3", "postal_code": "80331", "town": "München"}},
  "items": [
    {"description": "Widget", "units": 10, "unit_price": 9.99, "tax_rate": 0.19},
    {"description": "Installation", "units": 2, "unit_price": 100, "tax_rate": 0, "exemption_reason": "reverse charge"}
  ]
}`

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

func newTestServer(t *testing.T, sealKey string) *server.Server {
	t.Helper()
	composer := config.Default()
	composer.Resources.ICCProfile = iccPath(t)
	composer.Seal.Key = sealKey

	return server.NewServer(&server.Config{
		Address:  ":8080",
		Composer: composer,
	}, server.WithLogger(log.New(io.Discard)))
}

func do(t *testing.T, srv *server.Server, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func generate(t *testing.T, srv *server.Server) *httptest.ResponseRecorder {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/api/v1/generate", []byte(invoiceJSON), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w
}

func TestHealthEndpoint(t *testing.T) {
	w := do(t, newTestServer(t, ""), http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestProfilesEndpoint(t *testing.T) {
	w := do(t, newTestServer(t, ""), http.MethodGet, "/api/v1/profiles", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var profiles []server.ProfileInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profiles))
	require.Len(t, profiles, 2)
	assert.Equal(t, "factur-x.xml", profiles[0].FileName)
	assert.Equal(t, "xrechnung.xml", profiles[1].FileName)
}

func TestXMLEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	w := do(t, srv, http.MethodPost, "/api/v1/xml/cii", []byte(invoiceJSON), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/xml")
	assert.Contains(t, w.Body.String(), "rsm:CrossIndustryInvoice")

	w = do(t, srv, http.MethodPost, "/api/v1/xml/xrechnung", []byte(invoiceJSON), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<cbc:TaxableAmount currencyID=\"EUR\">99.90</cbc:TaxableAmount>")

	w = do(t, srv, http.MethodPost, "/api/v1/xml/edifact", []byte(invoiceJSON), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestXMLEndpoint_BadInvoice(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		name string
		body []byte
	}{
		{"empty body", nil},
		{"not json", []byte("{")},
		{"missing number", []byte(`{"issue_date": "2025-07-15"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/v1/xml/cii", tt.body, "application/json")
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response server.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response.Error)
		})
	}
}

func TestGenerateEndpoint(t *testing.T) {
	srv := newTestServer(t, "")
	w := generate(t, srv)

	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "RE-2025-042.pdf")
	assert.Empty(t, w.Header().Get(server.SealHeader))

	report, err := pdfa.Inspect(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "3B", report.PDFA())
	require.Len(t, report.Attachments, 1)
	assert.Equal(t, "factur-x.xml", report.Attachments[0].Name)
}

func TestGenerateEndpoint_ProfileQuery(t *testing.T) {
	srv := newTestServer(t, "")

	w := do(t, srv, http.MethodPost, "/api/v1/generate?profile=ubl", []byte(invoiceJSON), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	_, err := pdfa.Attachment(w.Body.Bytes(), "xrechnung.xml")
	require.NoError(t, err)

	w = do(t, srv, http.MethodPost, "/api/v1/generate?profile=edifact", []byte(invoiceJSON), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateEndpoint_MissingICCProfile(t *testing.T) {
	composer := config.Default()
	composer.Resources.ICCProfile = filepath.Join(t.TempDir(), "missing.icc")
	srv := server.NewServer(&server.Config{Composer: composer}, server.WithLogger(log.New(io.Discard)))

	w := do(t, srv, http.MethodPost, "/api/v1/generate", []byte(invoiceJSON), "application/json")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "icc_profile")
}

func TestInspectEndpoint(t *testing.T) {
	srv := newTestServer(t, "")
	pdf := generate(t, srv).Body.Bytes()

	w := do(t, srv, http.MethodPost, "/api/v1/inspect", pdf, "application/pdf")
	require.Equal(t, http.StatusOK, w.Code)

	var report pdfa.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 1, report.AFCount)
	assert.Equal(t, 1, report.OutputIntents)
	assert.True(t, report.HasMetadata)

	var response struct {
		Invoice struct {
			Number     string `json:"number"`
			GrandTotal string `json:"grand_total"`
		} `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "RE-2025-042", response.Invoice.Number)
	assert.Equal(t, "318.88", response.Invoice.GrandTotal)

	w = do(t, srv, http.MethodPost, "/api/v1/inspect", []byte("not a pdf"), "application/pdf")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestEmbedEndpoint(t *testing.T) {
	srv := newTestServer(t, "")
	pdf := generate(t, srv).Body.Bytes()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("pdf", "invoice.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdf)
	require.NoError(t, err)
	part, err = mw.CreateFormFile("xml", "invoice.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte("<Invoice/>"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("filename", "custom.xml"))
	require.NoError(t, mw.Close())

	w := do(t, srv, http.MethodPost, "/api/v1/embed", body.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data, err := pdfa.Attachment(w.Body.Bytes(), "custom.xml")
	require.NoError(t, err)
	assert.Equal(t, "<Invoice/>", string(data))

	report, err := pdfa.Inspect(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, report.Attachments, 1, "embedding replaces the previous attachment")
}

func TestEmbedEndpoint_MissingPart(t *testing.T) {
	srv := newTestServer(t, "")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("filename", "x.xml"))
	require.NoError(t, mw.Close())

	w := do(t, srv, http.MethodPost, "/api/v1/embed", body.Bytes(), mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/embed", []byte("plain"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	srv := newTestServer(t, "test-seal-key")
	resp := generate(t, srv)
	digest := resp.Header().Get(server.SealHeader)
	require.Len(t, digest, 64)
	pdf := resp.Body.Bytes()

	q := url.Values{"invoice_id": {"RE-2025-042"}, "seal": {digest}}
	w := do(t, srv, http.MethodPost, "/api/v1/verify?"+q.Encode(), pdf, "application/pdf")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response server.VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Valid)
	assert.True(t, response.SealValid)
	assert.Equal(t, "factur-x.xml", response.Attachment)
	assert.Equal(t, "RE-2025-042", response.AttachedNumber)

	q.Set("invoice_id", "RE-2025-043")
	w = do(t, srv, http.MethodPost, "/api/v1/verify?"+q.Encode(), pdf, "application/pdf")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/verify", pdf, "application/pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEndpoint_NoKey(t *testing.T) {
	w := do(t, newTestServer(t, ""), http.MethodPost, "/api/v1/verify", []byte("%PDF-1.7"), "application/pdf")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInfoEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	w := do(t, srv, http.MethodPost, "/api/v1/info", []byte(`<?xml version="1.0"?><Invoice/>`), "")
	require.Equal(t, http.StatusOK, w.Code)

	var response server.InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.MimeType, "xml")
	assert.Equal(t, 31, response.Size)

	w = do(t, srv, http.MethodPost, "/api/v1/info", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package pdfa

import (
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFText(t *testing.T) {
	tests := []struct {
		in      string
		literal bool
	}{
		{"factur-x.xml", true},
		{`a(b)c\d`, true},
		{"Größe.xml", false},
		{"請求書.xml", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			obj := pdfText(tt.in)
			_, isLiteral := obj.(types.StringLiteral)
			assert.Equal(t, tt.literal, isLiteral)
			assert.Equal(t, tt.in, decodeText(obj))
		})
	}
}

func TestPDFText_EscapesParentheses(t *testing.T) {
	obj := pdfText("a(b)")
	assert.Equal(t, types.StringLiteral(`a\(b\)`), obj)
}

func TestDecodeText_ForeignStrings(t *testing.T) {
	tests := []struct {
		name string
		in   types.Object
		want string
	}{
		{"escaped newline", types.StringLiteral(`a\nb`), "a\nb"},
		{"octal", types.StringLiteral(`\101`), "A"},
		{"escaped paren", types.StringLiteral(`x\)`), "x)"},
		{"utf16 hex", types.HexLiteral("FEFF00470072"), "Gr"},
		{"not a string", types.Integer(7), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeText(tt.in))
		})
	}
}

func TestBuildXMP(t *testing.T) {
	out, err := buildXMP(xmpInput{
		profile:  DefaultProfile,
		info:     DocumentInfo{Title: "Invoice <1>", Author: "Muster & Co"},
		filename: "factur-x.xml",
		created:  time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "<?xpacket begin="))
	assert.Contains(t, s, `<?xpacket end="w"?>`)
	assert.Contains(t, s, "Invoice &lt;1")
	assert.Contains(t, s, "Muster &amp; Co")
	assert.Contains(t, s, "2025-07-15T10:00:00Z")
	assert.Contains(t, s, nsFacturX)
	assert.Contains(t, s, "uuid:")

	facts, err := parseXMP(out)
	require.NoError(t, err)
	assert.Equal(t, "3", facts.Part)
	assert.Equal(t, "B", facts.Conformance)
	assert.Equal(t, "factur-x.xml", facts.DocumentFileName)
	assert.Equal(t, "1.0", facts.Version)
}

package decimal_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rezonia/invoice-composer/internal/decimal"
)

func TestFromFloat(t *testing.T) {
	d := decimal.FromFloat(100.555)
	// Should round to 2 decimal places
	assert.True(t, d.Equal(dec.NewFromFloat(100.56)))
}

func TestLineNetAndTax(t *testing.T) {
	net := decimal.LineNet(10, 9.99)
	assert.Equal(t, "99.90", decimal.Fixed2(net))

	tax := decimal.LineTax(net, 0.19)
	// 18.981 rounds down to cents
	assert.Equal(t, "18.98", decimal.Fixed2(tax))

	assert.True(t, decimal.LineTax(net, 0).IsZero())
}

func TestPercent(t *testing.T) {
	tests := []struct {
		rate  float64
		whole int64
		exact string
	}{
		{0.19, 19, "19.00"},
		{0.07, 7, "7.00"},
		{0.055, 6, "5.50"},
		{0, 0, "0.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.whole, decimal.Percent(tt.rate))
		assert.Equal(t, tt.exact, decimal.PercentExact(tt.rate))
	}
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "47.60", decimal.Amount(47.6000000001))
	assert.Equal(t, "0.00", decimal.Amount(0))
	assert.Equal(t, "1234.57", decimal.Amount(1234.567))
}


func TestLineNet_RoundsPerLine(t *testing.T) {
	// 3 × 0.333 = 0.999 is rounded before it is summed
	assert.Equal(t, "1.00", decimal.Fixed2(decimal.LineNet(3, 0.333)))
	assert.True(t, decimal.LineNet(0, 12.5).Equal(decimal.Zero))
}

func TestExact(t *testing.T) {
	assert.True(t, decimal.Exact(0.055).Equal(dec.RequireFromString("0.055")))
	assert.True(t, decimal.FromFloat(0.055).Equal(dec.RequireFromString("0.06")))
}

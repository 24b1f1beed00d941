package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/invoice-composer/internal/model"
)

func TestSummarize_SingleRate(t *testing.T) {
	s := model.Summarize([]model.LineItem{
		{Description: "A", Units: 2, UnitPrice: 10.0, TaxRate: 0.19},
		{Description: "B", Units: 1, UnitPrice: 20.0, TaxRate: 0.19},
	})

	assert.InDelta(t, 40.0, s.Subtotal, 1e-9)
	require.Equal(t, 1, s.Taxes.Len())
	tax, ok := s.Taxes.Get(0.19)
	require.True(t, ok)
	assert.InDelta(t, 7.6, tax, 1e-9)
	assert.InDelta(t, 47.6, s.Total, 1e-9)
}

func TestSummarize_ZeroRateExcluded(t *testing.T) {
	s := model.Summarize([]model.LineItem{
		{Description: "A", Units: 3, UnitPrice: 5.0, TaxRate: 0},
	})

	assert.InDelta(t, 15.0, s.Subtotal, 1e-9)
	assert.Equal(t, 0, s.Taxes.Len())
	assert.Equal(t, s.Subtotal, s.Total)
}

func TestSummarize_Empty(t *testing.T) {
	s := model.Summarize(nil)

	assert.Zero(t, s.Subtotal)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Taxes.Len())
	assert.Empty(t, s.Taxes.Rates())
}

func TestSummarize_RatesAscending(t *testing.T) {
	s := model.Summarize([]model.LineItem{
		{Units: 1, UnitPrice: 100, TaxRate: 0.19},
		{Units: 1, UnitPrice: 100, TaxRate: 0.07},
		{Units: 2, UnitPrice: 50, TaxRate: 0.19},
		{Units: 1, UnitPrice: 10, TaxRate: 0.10},
	})

	assert.Equal(t, []float64{0.07, 0.10, 0.19}, s.Taxes.Rates())

	buckets := s.Taxes.Buckets()
	require.Len(t, buckets, 3)
	assert.Equal(t, 0.07, buckets[0].Rate)
	assert.InDelta(t, 100.0, buckets[0].Base, 1e-9)
	assert.InDelta(t, 200.0, buckets[2].Base, 1e-9)
	assert.InDelta(t, 38.0, buckets[2].Tax, 1e-9)
}

func TestSummarize_TotalInvariant(t *testing.T) {
	items := []model.LineItem{
		{Units: 7, UnitPrice: 3.33, TaxRate: 0.19},
		{Units: 11, UnitPrice: 0.99, TaxRate: 0.07},
		{Units: 1, UnitPrice: 1234.56, TaxRate: 0.19},
		{Units: 4, UnitPrice: 2.5, TaxRate: 0},
		{Units: 9, UnitPrice: 17.01, TaxRate: 0.055},
	}

	s := model.Summarize(items)

	sum := 0.0
	for _, r := range s.Taxes.Rates() {
		v, _ := s.Taxes.Get(r)
		sum += v
	}
	assert.Equal(t, s.Subtotal+sum, s.Total)
	assert.Equal(t, s.Taxes.TotalTax(), sum)
}

func TestSummarize_FloatRateKeysAreExact(t *testing.T) {
	s := model.Summarize([]model.LineItem{
		{Units: 1, UnitPrice: 100, TaxRate: 0.19},
		{Units: 1, UnitPrice: 100, TaxRate: 0.1900001},
	})

	assert.Equal(t, 2, s.Taxes.Len())
}

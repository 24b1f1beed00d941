package model

import "sort"

// TaxBucket aggregates the lines sharing one tax rate
type TaxBucket struct {
	Rate float64 `json:"rate"`
	Base float64 `json:"base"`
	Tax  float64 `json:"tax"`
}

// TaxBreakdown maps each distinct positive tax rate to its accumulated tax.
// Keys are the exact float rates as supplied on the lines; iteration is
// always in ascending rate order.
type TaxBreakdown struct {
	buckets map[float64]*TaxBucket
}

func newTaxBreakdown() TaxBreakdown {
	return TaxBreakdown{buckets: make(map[float64]*TaxBucket)}
}

func (b *TaxBreakdown) add(rate, base, tax float64) {
	if b.buckets == nil {
		b.buckets = make(map[float64]*TaxBucket)
	}
	bucket, ok := b.buckets[rate]
	if !ok {
		bucket = &TaxBucket{Rate: rate}
		b.buckets[rate] = bucket
	}
	bucket.Base += base
	bucket.Tax += tax
}

// Len returns the number of distinct rates
func (b TaxBreakdown) Len() int {
	return len(b.buckets)
}

// Rates returns the distinct rates in ascending order
func (b TaxBreakdown) Rates() []float64 {
	rates := make([]float64, 0, len(b.buckets))
	for r := range b.buckets {
		rates = append(rates, r)
	}
	sort.Float64s(rates)
	return rates
}

// Get returns the accumulated tax for rate
func (b TaxBreakdown) Get(rate float64) (float64, bool) {
	bucket, ok := b.buckets[rate]
	if !ok {
		return 0, false
	}
	return bucket.Tax, true
}

// Buckets returns copies of all buckets in ascending rate order
func (b TaxBreakdown) Buckets() []TaxBucket {
	out := make([]TaxBucket, 0, len(b.buckets))
	for _, r := range b.Rates() {
		out = append(out, *b.buckets[r])
	}
	return out
}

// TotalTax sums the bucket taxes in ascending rate order
func (b TaxBreakdown) TotalTax() float64 {
	total := 0.0
	for _, r := range b.Rates() {
		total += b.buckets[r].Tax
	}
	return total
}

// Summary holds the computed document totals
type Summary struct {
	Subtotal float64      `json:"subtotal"`
	Taxes    TaxBreakdown `json:"-"`
	Total    float64      `json:"total"`
}

// Summarize computes subtotal, per-rate tax breakdown and total.
// Lines with a zero rate contribute to the subtotal only.
func Summarize(items []LineItem) Summary {
	s := Summary{Taxes: newTaxBreakdown()}
	for _, item := range items {
		net := item.Net()
		s.Subtotal += net
		if item.TaxRate > 0 {
			s.Taxes.add(item.TaxRate, net, item.Tax())
		}
	}
	s.Total = s.Subtotal + s.Taxes.TotalTax()
	return s
}

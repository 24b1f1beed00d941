package document

import (
	"math"

	"github.com/rezonia/invoice-composer/internal/layout"
)

// Totals block geometry in millimetres
const (
	totalsLabelX   = layout.SecondColumn + 2
	totalsDivider  = 160.0
	totalsAmountX  = layout.RightEdge - 2
	totalsRow      = 6.0
	totalsRowSize  = 10.0
	totalsSumSize  = 12.0
	paymentMinY    = 20.0
	paymentRowSize = 9.0
)

// DrawTotals prints the financial summary in the right column and the
// payment details beside it in the left column.
func DrawTotals(c *Context) {
	e := c.Engine
	f := c.Format
	buckets := c.Summary.Taxes.Buckets()

	// subtotal and tax rows, divider, total row, closing rule
	height := float64(1+len(buckets))*totalsRow + 3 + totalsRow + 1 + 4
	e.EnsureSpace(layout.BottomMargin + height)

	top := e.Y()
	page := e.PageIndex()

	y := top
	e.HLine(layout.SecondColumn, layout.RightEdge, y)
	y -= totalsRow
	e.PlaceText("Subtotal:", totalsRowSize, totalsLabelX, y)
	c.placeRight(f.Money(c.Summary.Subtotal), totalsRowSize, totalsAmountX, y)
	for _, b := range buckets {
		y -= totalsRow
		e.PlaceText("Tax ("+f.Percent(b.Rate)+"):", totalsRowSize, totalsLabelX, y)
		c.placeRight(f.Money(b.Tax), totalsRowSize, totalsAmountX, y)
	}
	y -= 3
	e.HLine(layout.SecondColumn, layout.RightEdge, y)
	y -= totalsRow + 1
	e.PlaceText("TOTAL:", totalsSumSize, totalsLabelX, y)
	c.placeRight(f.Money(c.Summary.Total), totalsSumSize, totalsAmountX, y)
	y -= 4
	e.HLine(layout.SecondColumn, layout.RightEdge, y)
	for _, x := range []float64{layout.SecondColumn, totalsDivider, layout.RightEdge} {
		e.VLine(x, top, y)
	}
	bottom := y

	e.SetY(top - totalsRow)
	drawPayment(c)

	if e.PageIndex() == page {
		e.SetY(math.Min(e.Y(), bottom) - 8)
	}
}

func drawPayment(c *Context) {
	e := c.Engine
	inv := c.Invoice
	width := layout.SecondColumn - layout.LeftMargin - partyColumnGap

	if inv.PaymentMethod != "" {
		e.WrapText("Payment method: "+clean(inv.PaymentMethod), width, totalsRowSize, layout.LeftMargin)
		e.MoveDown(1)
	}
	for _, kv := range inv.PaymentDetails {
		line := clean(kv.Label) + ": " + clean(kv.Value)
		e.EnsureSpace(paymentMinY + e.MeasureHeight(line, paymentRowSize, width))
		e.WrapText(line, width, paymentRowSize, layout.LeftMargin)
	}
}

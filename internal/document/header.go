package document

import (
	"github.com/rezonia/invoice-composer/internal/layout"
)

// Logo box in millimetres, measured from the top edge of the page
const (
	logoMaxWidth  = 70.0
	logoMaxHeight = 40.0
	logoTopMargin = 10.0
	logoGap       = 10.0
)

// DrawLogo fits the logo into its box keeping the aspect ratio and moves
// the cursor below it. Without a logo the cursor stays at the top margin.
func DrawLogo(c *Context) {
	if c.Logo == nil {
		return
	}
	b := c.Logo.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return
	}

	scale := logoMaxWidth / float64(b.Dx())
	if s := logoMaxHeight / float64(b.Dy()); s < scale {
		scale = s
	}
	w := float64(b.Dx()) * scale
	h := float64(b.Dy()) * scale

	top := layout.PageHeight - logoTopMargin
	bottom := top - h
	c.Engine.PlaceImage(c.Logo, layout.LeftMargin, bottom, w, h)
	c.Engine.SetY(bottom - logoGap)
}

// DrawHeader prints the invoice number, dates, delivery info and the
// extra key-value rows followed by a rule.
func DrawHeader(c *Context) {
	e := c.Engine
	inv := c.Invoice
	f := c.Format

	e.PlaceText("INVOICE ID: "+clean(inv.Number), 14, layout.LeftMargin, e.Y())
	e.MoveDown(8)

	e.PlaceText("DATE: "+f.Date(inv.IssueDate), 10, layout.LeftMargin, e.Y())
	if !inv.DueDate.IsZero() {
		e.PlaceText("PAYMENT DUE: "+f.Date(inv.DueDate), 10, layout.SecondColumn, e.Y())
	}
	e.MoveDown(6)

	if inv.DeliveryDate != nil || inv.DeliveryType != "" {
		if inv.DeliveryType != "" {
			e.PlaceText("DELIVERY: "+clean(inv.DeliveryType), 10, layout.LeftMargin, e.Y())
		}
		if inv.DeliveryDate != nil {
			e.PlaceText("DELIVERY DATE: "+f.Date(*inv.DeliveryDate), 10, layout.SecondColumn, e.Y())
		}
		e.MoveDown(6)
	}

	for _, kv := range inv.Extra {
		e.EnsureSpace(layout.BottomMargin + 10)
		e.WrapText(clean(kv.Label)+": "+clean(kv.Value), layout.RightEdge-layout.LeftMargin, 10, layout.LeftMargin)
		e.MoveDown(1)
	}

	e.MoveDown(2)
	e.HLine(layout.LeftMargin, layout.RightEdge, e.Y())
	e.MoveDown(8)
}

package document

import (
	"math"

	"github.com/rezonia/invoice-composer/internal/layout"
	"github.com/rezonia/invoice-composer/internal/model"
)

const (
	partyHeadingSize = 15.0
	partyNameSize    = 10.0
	partyLineSize    = 9.0
	partyColumnGap   = 5.0
)

// DrawParties prints the seller ("Sold by") and buyer ("Billed to")
// blocks side by side.
func DrawParties(c *Context) {
	e := c.Engine
	leftWidth := layout.SecondColumn - layout.LeftMargin - partyColumnGap
	rightWidth := layout.RightEdge - layout.SecondColumn

	seller := partyLines(c.Invoice.Seller)
	buyer := partyLines(c.Invoice.Buyer)
	need := math.Max(measureParty(e, seller, leftWidth), measureParty(e, buyer, rightWidth))
	e.EnsureSpace(layout.BottomMargin + need)

	y := e.Y()
	e.PlaceText("Sold by", partyHeadingSize, layout.LeftMargin, y)
	e.PlaceText("Billed to", partyHeadingSize, layout.SecondColumn, y)
	y -= layout.LineHeight(partyHeadingSize) + 2

	left := drawParty(e, seller, layout.LeftMargin, y, leftWidth)
	right := drawParty(e, buyer, layout.SecondColumn, y, rightWidth)
	e.SetY(math.Min(left, right) - 8)
}

type partyBlock struct {
	name  string
	lines []string
}

func partyLines(p model.Party) partyBlock {
	b := partyBlock{name: clean(p.Name)}
	add := func(s string) {
		if s = clean(s); s != "" {
			b.lines = append(b.lines, s)
		}
	}
	add(p.Address.StreetLine())
	add(p.Address.TownLine())
	if p.Address.Country != "" {
		add(p.Address.CountryCode())
	}
	if p.TaxID != "" {
		add("VAT ID: " + p.TaxID)
	}
	add(p.Email)
	add(p.Phone)
	add(p.Website)
	return b
}

func measureParty(e *layout.Engine, b partyBlock, width float64) float64 {
	h := layout.LineHeight(partyHeadingSize) + 2
	h += e.MeasureHeight(b.name, partyNameSize, width) + 1
	for _, line := range b.lines {
		h += e.MeasureHeight(line, partyLineSize, width)
	}
	return h
}

func drawParty(e *layout.Engine, b partyBlock, x, y, width float64) float64 {
	y = e.WrapTextAt(b.name, partyNameSize, x, y, width) - 1
	for _, line := range b.lines {
		y = e.WrapTextAt(line, partyLineSize, x, y, width)
	}
	return y
}

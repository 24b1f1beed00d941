package document

import (
	"strconv"

	"github.com/rezonia/invoice-composer/internal/layout"
	"github.com/rezonia/invoice-composer/internal/model"
)

// ItemColumnWeights are the relative widths of description, units,
// unit price, tax and amount.
var ItemColumnWeights = []int{5, 1, 2, 2, 2}

// ItemHeadings label the item table columns
var ItemHeadings = []string{"Description", "Units", "Unit price", "Tax", "Amount"}

const (
	itemHeadingSize = 10.0
	itemRowSize     = 9.0
)

// DrawItems prints the line item table. Rows that do not fit continue
// on the next page with their own borders.
func DrawItems(c *Context) {
	e := c.Engine
	e.EnsureSpace(layout.TableMinY + layout.TableRowHeight)

	cols := layout.Columns(ItemColumnWeights, layout.PageWidth, layout.LeftMargin, layout.PageWidth-layout.RightEdge)
	table := layout.NewTable(e, cols)
	table.Header(ItemHeadings, itemHeadingSize)
	for _, item := range c.Invoice.Items {
		table.Row(itemCells(c, item), itemRowSize)
	}
	table.Close()
	e.MoveDown(8)
}

func itemCells(c *Context, item model.LineItem) []string {
	tax := c.Format.Percent(item.TaxRate)
	if item.IsExempt() {
		tax = clean(item.ExemptionReason)
	}
	return []string{
		clean(item.Description),
		strconv.FormatUint(uint64(item.Units), 10),
		c.Format.Money(item.UnitPrice),
		tax,
		c.Format.Money(item.Net()),
	}
}

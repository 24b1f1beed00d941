package document

import (
	"fmt"

	"github.com/rezonia/invoice-composer/internal/layout"
)

const (
	footerSize = 8.0
	footerY    = 8.0
)

func addFooters(c *Context, pages []layout.Page) {
	for i := range pages {
		text := fmt.Sprintf("Page %d of %d", i+1, len(pages))
		w := c.Engine.Estimator().Width(text, footerSize)
		pages[i].Add(layout.Text{Text: text, Size: footerSize, X: layout.RightEdge - w, Y: footerY})
	}
}

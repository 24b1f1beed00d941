// Package document lays out the printed invoice: logo, header, parties,
// item table, totals, payment details and page footers.
package document

import (
	"image"

	"github.com/rezonia/invoice-composer/internal/format"
	"github.com/rezonia/invoice-composer/internal/layout"
	"github.com/rezonia/invoice-composer/internal/model"
)

// Context is the state shared by all sections of one build
type Context struct {
	Engine  *layout.Engine
	Invoice *model.Invoice
	Summary model.Summary
	Format  *format.Formatter
	Logo    image.Image
}

// Section draws one block of the invoice at the engine cursor
type Section func(c *Context)

// DefaultSections is the drawing order of a standard invoice
var DefaultSections = []Section{
	DrawLogo,
	DrawHeader,
	DrawParties,
	DrawItems,
	DrawTotals,
}

type options struct {
	logo      image.Image
	estimator layout.WidthEstimator
	sections  []Section
	footer    bool
}

// Option configures Render
type Option func(*options)

// WithLogo places img in the top-left logo box
func WithLogo(img image.Image) Option {
	return func(o *options) {
		o.logo = img
	}
}

// WithEstimator overrides the text width estimator
func WithEstimator(est layout.WidthEstimator) Option {
	return func(o *options) {
		o.estimator = est
	}
}

// WithSections replaces the section list
func WithSections(sections ...Section) Option {
	return func(o *options) {
		o.sections = sections
	}
}

// WithoutFooter disables the "Page i of n" footer
func WithoutFooter() Option {
	return func(o *options) {
		o.footer = false
	}
}

// Render lays out inv and returns the finalized pages in order
func Render(inv *model.Invoice, summary model.Summary, opts ...Option) []layout.Page {
	o := &options{
		sections: DefaultSections,
		footer:   true,
	}
	for _, opt := range opts {
		opt(o)
	}

	var engineOpts []layout.Option
	if o.estimator != nil {
		engineOpts = append(engineOpts, layout.WithEstimator(o.estimator))
	}

	c := &Context{
		Engine:  layout.NewEngine(engineOpts...),
		Invoice: inv,
		Summary: summary,
		Format:  format.New(inv.Locale, inv.CurrencyCode()),
		Logo:    o.logo,
	}
	for _, section := range o.sections {
		section(c)
	}

	pages := c.Engine.Finish()
	if o.footer {
		addFooters(c, pages)
	}
	return pages
}

// placeRight draws text so that its estimated right edge is at x
func (c *Context) placeRight(text string, size, x, y float64) {
	w := c.Engine.Estimator().Width(text, size)
	c.Engine.PlaceText(text, size, x-w, y)
}

func clean(s string) string {
	return model.Sanitize(s)
}

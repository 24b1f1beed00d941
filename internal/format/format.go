// Package format renders amounts, percentages and dates for the printed invoice.
package format

import (
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats values for one locale and currency
type Formatter struct {
	tag      language.Tag
	printer  *message.Printer
	unit     currency.Unit
	code     string
	scale    int
	symbol   string
	prefixed bool
}

// currencies printed with the symbol in front of the amount
var prefixed = map[string]bool{
	"USD": true,
	"GBP": true,
	"JPY": true,
	"CNY": true,
}

// New creates a formatter for a BCP 47 locale ("de", "en-US") and an ISO 4217 code.
// Unknown locales fall back to English, unknown currencies print their code after the amount.
func New(locale, code string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "EUR"
	}

	f := &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
		code:    code,
		scale:   2,
		symbol:  code,
	}

	if unit, err := currency.ParseISO(code); err == nil {
		f.unit = unit
		scale, _ := currency.Standard.Rounding(unit)
		f.scale = scale
		f.symbol = f.printer.Sprint(currency.NarrowSymbol(unit))
		f.prefixed = prefixed[code]
	}
	return f
}

// Locale returns the resolved language tag
func (f *Formatter) Locale() language.Tag {
	return f.tag
}

// Code returns the ISO currency code
func (f *Formatter) Code() string {
	return f.code
}

// Number formats v with the currency's decimal digits and locale separators
func (f *Formatter) Number(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.Scale(f.scale)))
}

// Money formats v with the currency symbol ("1.234,50 €", "$1,234.50")
func (f *Formatter) Money(v float64) string {
	n := f.Number(v)
	if f.prefixed {
		return f.symbol + n
	}
	return n + " " + f.symbol
}

// Percent formats a fractional rate as a whole percentage ("19%")
func (f *Formatter) Percent(rate float64) string {
	return f.printer.Sprint(number.Decimal(rate*100, number.MaxFractionDigits(2))) + "%"
}

// Date formats t according to the locale's customary numeric layout
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	base, _ := f.tag.Base()
	switch base.String() {
	case "de":
		return t.Format("02.01.2006")
	case "fr", "it", "es":
		return t.Format("02/01/2006")
	case "ja":
		return t.Format("2006/01/02")
	}
	if region, _ := f.tag.Region(); region.String() == "US" {
		return t.Format("01/02/2006")
	}
	return t.Format("2006-01-02")
}

package layout

import (
	"image"
	"strings"
)

// Engine owns the vertical cursor, the page under construction and the
// pages already finalized. It is not safe for concurrent use; each build
// creates its own engine.
type Engine struct {
	estimator WidthEstimator
	width     float64
	height    float64
	top       float64

	y       float64
	current Page
	pages   []Page
	breaks  int
}

// Option configures an Engine
type Option func(*Engine)

// WithEstimator sets the width estimator used for wrapping and measuring
func WithEstimator(est WidthEstimator) Option {
	return func(e *Engine) {
		if est != nil {
			e.estimator = est
		}
	}
}

// WithTop sets the cursor position used at the start of every page
func WithTop(top float64) Option {
	return func(e *Engine) {
		e.top = top
	}
}

// NewEngine creates an engine positioned at the top of an empty A4 page
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		estimator: FixedWidth{Factor: DefaultWidthFactor},
		width:     PageWidth,
		height:    PageHeight,
		top:       TopMargin,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.y = e.top
	e.current = e.newPage()
	return e
}

func (e *Engine) newPage() Page {
	return Page{Width: e.width, Height: e.height}
}

// Y returns the cursor position
func (e *Engine) Y() float64 {
	return e.y
}

// SetY moves the cursor to an absolute position
func (e *Engine) SetY(y float64) {
	e.y = y
}

// MoveDown moves the cursor towards the bottom of the page
func (e *Engine) MoveDown(dy float64) {
	e.y -= dy
}

// Top returns the cursor position at the start of a page
func (e *Engine) Top() float64 {
	return e.top
}

// Estimator returns the width estimator in use
func (e *Engine) Estimator() WidthEstimator {
	return e.estimator
}

// Breaks returns how many times the cursor crossed a page threshold
func (e *Engine) Breaks() int {
	return e.breaks
}

// PlaceText draws text at an explicit position without moving the cursor
func (e *Engine) PlaceText(text string, size, x, y float64) {
	if strings.TrimSpace(text) == "" {
		return
	}
	e.current.Add(Text{Text: text, Size: size, X: x, Y: y})
}

// WriteText draws text at the cursor and advances by one line.
// Blank text is ignored and leaves the cursor untouched.
func (e *Engine) WriteText(text string, size, x float64) {
	if strings.TrimSpace(text) == "" {
		return
	}
	e.current.Add(Text{Text: text, Size: size, X: x, Y: e.y})
	e.y -= LineHeight(size)
}

// WrapLines splits text into lines that fit maxWidth using the engine's estimator
func (e *Engine) WrapLines(text string, maxWidth, size float64) []string {
	return WrapLines(e.estimator, text, maxWidth, size)
}

// WrapTextAt draws wrapped text starting at y and returns the position
// below the last line. The cursor is not moved.
func (e *Engine) WrapTextAt(text string, size, x, y, maxWidth float64) float64 {
	for _, line := range e.WrapLines(text, maxWidth, size) {
		e.current.Add(Text{Text: line, Size: size, X: x, Y: y})
		y -= LineHeight(size)
	}
	return y
}

// WrapText draws wrapped text at the cursor and moves the cursor below it
func (e *Engine) WrapText(text string, maxWidth, size, x float64) float64 {
	e.y = e.WrapTextAt(text, size, x, e.y, maxWidth)
	return e.y
}

// MeasureHeight returns the height wrapped text would occupy.
// Empty text still measures as one line.
func (e *Engine) MeasureHeight(text string, size, maxWidth float64) float64 {
	n := len(e.WrapLines(text, maxWidth, size))
	if n < 1 {
		n = 1
	}
	return float64(n) * LineHeight(size)
}

// HLine draws a horizontal rule at y
func (e *Engine) HLine(x1, x2, y float64) {
	e.current.Add(Line{X1: x1, Y1: y, X2: x2, Y2: y, Width: DefaultLineWidth})
}

// VLine draws a vertical rule at x between y1 and y2
func (e *Engine) VLine(x, y1, y2 float64) {
	e.current.Add(Line{X1: x, Y1: y1, X2: x, Y2: y2, Width: DefaultLineWidth})
}

// PlaceImage draws img with its bottom-left corner at (x, y)
func (e *Engine) PlaceImage(img image.Image, x, y, width, height float64) {
	if img == nil || width <= 0 || height <= 0 {
		return
	}
	e.current.Add(Image{Image: img, X: x, Y: y, Width: width, Height: height})
}

// EnsureSpace starts a new page when the cursor is below minY and
// reports whether a break happened.
func (e *Engine) EnsureSpace(minY float64) bool {
	if e.y >= minY {
		return false
	}
	e.BreakPage()
	return true
}

// BreakPage finalizes the current page and resets the cursor to the top
func (e *Engine) BreakPage() {
	e.pages = append(e.pages, e.current)
	e.current = e.newPage()
	e.y = e.top
	e.breaks++
}

// PageIndex returns the zero-based index of the page under construction
func (e *Engine) PageIndex() int {
	return len(e.pages)
}

// Finish finalizes the current page and returns every page in order.
// The engine must not be used afterwards.
func (e *Engine) Finish() []Page {
	pages := append(e.pages, e.current)
	e.pages = nil
	e.current = Page{}
	return pages
}

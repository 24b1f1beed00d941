// Package layout places text, rules and images on fixed-size pages.
//
// Positions are millimetres measured from the bottom-left corner of the page,
// so the cursor starts near the top and decreases as content is added. Font
// sizes are points.
package layout

import "image"

// Page geometry in millimetres
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	TopMargin    = 280.0
	LeftMargin   = 20.0
	RightEdge    = 190.0
	SecondColumn = 120.0
	BottomMargin = 15.0
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// DefaultLineWidth is the stroke width of rules in points
const DefaultLineWidth = 0.5

// Instruction is a single drawing operation on a page
type Instruction interface {
	isInstruction()
}

// Text draws a single line of text with its baseline starting at (X, Y)
type Text struct {
	Text string
	Size float64
	X, Y float64
}

// Line draws a straight rule from (X1, Y1) to (X2, Y2)
type Line struct {
	X1, Y1 float64
	X2, Y2 float64
	Width  float64 // points
}

// Image draws a raster image with its bottom-left corner at (X, Y)
type Image struct {
	Image         image.Image
	X, Y          float64
	Width, Height float64
}

func (Text) isInstruction()  {}
func (Line) isInstruction()  {}
func (Image) isInstruction() {}

// Page is a finalized list of drawing operations
type Page struct {
	Width        float64
	Height       float64
	Instructions []Instruction
}

// Add appends an instruction to the page
func (p *Page) Add(in Instruction) {
	p.Instructions = append(p.Instructions, in)
}

// Texts returns the text instructions in drawing order
func (p Page) Texts() []Text {
	var out []Text
	for _, in := range p.Instructions {
		if t, ok := in.(Text); ok {
			out = append(out, t)
		}
	}
	return out
}

// Lines returns the line instructions in drawing order
func (p Page) Lines() []Line {
	var out []Line
	for _, in := range p.Instructions {
		if l, ok := in.(Line); ok {
			out = append(out, l)
		}
	}
	return out
}

// LineHeight returns the advance in millimetres for one line of the given font size
func LineHeight(size float64) float64 {
	return size * 1.2 * PtToMm
}

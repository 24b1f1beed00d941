package layout

import "math"

// TableState is the position of a Table in its drawing cycle
type TableState int

const (
	TableDrawingRow TableState = iota
	TablePageFull
	TableDrawingBorders
	TableDone
)

func (s TableState) String() string {
	switch s {
	case TableDrawingRow:
		return "drawing-row"
	case TablePageFull:
		return "page-full"
	case TableDrawingBorders:
		return "drawing-borders"
	case TableDone:
		return "done"
	default:
		return "unknown"
	}
}

// Table geometry in millimetres
const (
	TableMinY        = 30.0 // a row never starts below this position
	TableCellPadding = 2.0
	TableRowHeight   = 6.0 // minimum row advance
	tableTopOffset   = 4.0
	tableNewPageGap  = 5.0
)

// Table draws rows that may span several pages. Borders on each page
// bracket exactly the rows drawn on that page: when a row would start
// below MinY or would not fit above BottomMargin, the borders are closed
// at the current cursor, the page is flushed and the row continues at the
// top of the next page below a repeated header.
type Table struct {
	engine  *Engine
	cols    []float64
	minY    float64
	state   TableState
	top     float64
	rows    []int
	current int

	header     []string
	headerSize float64
}

// NewTable starts a table at the engine cursor using the given column boundaries
func NewTable(e *Engine, cols []float64) *Table {
	return &Table{
		engine: e,
		cols:   cols,
		minY:   TableMinY,
		state:  TableDrawingRow,
		top:    e.Y() + tableTopOffset,
	}
}

// SetMinY overrides the lowest position a row may start at
func (t *Table) SetMinY(y float64) {
	t.minY = y
}

// State returns the current state
func (t *Table) State() TableState {
	return t.state
}

// RowsPerPage returns how many rows were drawn on each page the table touched
func (t *Table) RowsPerPage() []int {
	out := make([]int, 0, len(t.rows)+1)
	out = append(out, t.rows...)
	if t.state != TableDone || t.current > 0 {
		out = append(out, t.current)
	}
	return out
}

// Header draws a heading row and repeats it on every following page.
// It breaks pages like any row but is not counted in RowsPerPage.
func (t *Table) Header(cells []string, size float64) {
	if t.state == TableDone {
		return
	}
	t.row(cells, size, false)
	t.header = cells
	t.headerSize = size
}

// Row draws one row of cells, breaking the page first when needed.
// Cells beyond the column count are ignored.
func (t *Table) Row(cells []string, size float64) {
	t.row(cells, size, true)
}

func (t *Table) row(cells []string, size float64, counted bool) {
	if t.state == TableDone {
		return
	}
	e := t.engine
	lines := t.wrap(cells, size)
	height := t.height(lines, size)
	fits := height <= e.Top()-BottomMargin
	if e.Y() < t.minY || (fits && e.Y()-height < BottomMargin) {
		t.pageFull()
	}

	lh := LineHeight(size)
	y := e.Y()
	bottom := y - TableRowHeight
	for k := 0; k < maxLines(lines); k++ {
		if k > 0 && y-lh < BottomMargin {
			// the row is taller than a page and continues on the next one
			e.SetY(y)
			t.pageFull()
			y = e.Y()
			bottom = y - TableRowHeight
		}
		t.drawLine(lines, k, size, y)
		y -= lh
		bottom = math.Min(bottom, y)
	}
	e.SetY(bottom)
	if counted {
		t.current++
	}
}

func (t *Table) drawLine(lines [][]string, k int, size, y float64) {
	for i, cell := range lines {
		if k < len(cell) {
			t.engine.PlaceText(cell[k], size, t.cols[i]+TableCellPadding, y)
		}
	}
}

// wrap splits every cell that has a column into lines
func (t *Table) wrap(cells []string, size float64) [][]string {
	var out [][]string
	for i, cell := range cells {
		if i+1 >= len(t.cols) {
			break
		}
		out = append(out, t.engine.WrapLines(cell, t.width(i), size))
	}
	return out
}

func (t *Table) width(i int) float64 {
	return t.cols[i+1] - t.cols[i] - 2*TableCellPadding
}

// height is the advance of a row: its tallest cell, at least TableRowHeight
func (t *Table) height(lines [][]string, size float64) float64 {
	return math.Max(TableRowHeight, float64(maxLines(lines))*LineHeight(size))
}

func maxLines(lines [][]string) int {
	n := 0
	for _, l := range lines {
		n = max(n, len(l))
	}
	return n
}

// pageFull closes the borders at the cursor, flushes the page and
// redraws the header on the new one.
func (t *Table) pageFull() {
	e := t.engine
	t.state = TablePageFull
	t.drawBorders(e.Y())
	t.rows = append(t.rows, t.current)
	t.current = 0
	e.BreakPage()
	t.top = e.Y() + tableNewPageGap
	t.state = TableDrawingRow
	if t.header != nil {
		lines := t.wrap(t.header, t.headerSize)
		y := e.Y()
		for k := 0; k < maxLines(lines); k++ {
			t.drawLine(lines, k, t.headerSize, y-float64(k)*LineHeight(t.headerSize))
		}
		e.SetY(y - t.height(lines, t.headerSize))
	}
}

// Close draws the borders of the last page and finishes the table
func (t *Table) Close() {
	if t.state == TableDone {
		return
	}
	t.drawBorders(t.engine.Y())
	t.state = TableDone
	t.rows = append(t.rows, t.current)
	t.current = 0
}

func (t *Table) drawBorders(bottom float64) {
	if len(t.cols) < 2 {
		return
	}
	prev := t.state
	t.state = TableDrawingBorders
	left, right := t.cols[0], t.cols[len(t.cols)-1]
	t.engine.HLine(left, right, t.top)
	t.engine.HLine(left, right, bottom)
	for _, x := range t.cols {
		t.engine.VLine(x, t.top, bottom)
	}
	t.state = prev
}

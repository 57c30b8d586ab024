// Package grid implements the editor's cell grids: the root grid plus any
// number of split, floating, external and message grids, each addressed by
// a small integer id.
//
// Grids are mutated by redraw events and become visible to renderers only
// through Store.Flush, which materializes every changed grid into a View.
package grid

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cell is one character cell: its text (a single grapheme, or "" for the
// right half of a double-width character) and its highlight id.
type Cell struct {
	Text string
	HL   int
}

// Blank is the cleared cell: a space in the default highlight.
var Blank = Cell{Text: " "}

// Width returns the display width of the cell text.
func (c Cell) Width() int {
	return runewidth.StringWidth(c.Text)
}

// LineCell is one entry of a grid_line event.  HL is only meaningful when
// HasHL is set; otherwise the previous cell's highlight is reused.  Repeat
// values below one are treated as one.
type LineCell struct {
	Text   string
	HL     int
	HasHL  bool
	Repeat int
}

// Grid is the working state of one grid.
type Grid struct {
	ID        int
	Width     int
	Height    int
	CursorRow int
	CursorCol int
	Pos       Position

	cells [][]Cell
	dirty bool
}

func newGrid(id, width, height int) *Grid {
	g := &Grid{ID: id, dirty: true}
	g.resize(width, height)
	return g
}

func blankRow(width int) []Cell {
	row := make([]Cell, width)
	for i := range row {
		row[i] = Blank
	}
	return row
}

// resize reallocates the cell buffer.  Cells inside both the old and the new
// bounds are kept; everything else is blank.
func (g *Grid) resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([][]Cell, height)
	for r := range cells {
		cells[r] = blankRow(width)
		if r < len(g.cells) {
			copy(cells[r], g.cells[r])
		}
	}
	g.cells = cells
	g.Width, g.Height = width, height
	g.clampCursor()
	g.dirty = true
}

func (g *Grid) clampCursor() {
	if g.CursorRow >= g.Height {
		g.CursorRow = max(g.Height-1, 0)
	}
	if g.CursorCol >= g.Width {
		g.CursorCol = max(g.Width-1, 0)
	}
}

// line writes a run of cells on row starting at col.  Writes outside the
// grid are clipped.
func (g *Grid) line(row, col int, cells []LineCell) {
	g.dirty = true
	if row < 0 || row >= g.Height {
		return
	}
	dst := g.cells[row]
	hl := 0
	for _, c := range cells {
		if c.HasHL {
			hl = c.HL
		}
		n := max(c.Repeat, 1)
		for ; n > 0; n-- {
			if col >= 0 && col < g.Width {
				dst[col] = Cell{Text: c.Text, HL: hl}
			}
			col++
		}
	}
}

func (g *Grid) clear() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = Blank
		}
	}
	g.dirty = true
}

// scroll shifts the rectangle [top,bot) x [left,right) by rows.  Positive
// rows move content up.  Vacated cells are blank; cells outside the
// rectangle are untouched.
func (g *Grid) scroll(top, bot, left, right, rows int) {
	top, bot = max(top, 0), min(bot, g.Height)
	left, right = max(left, 0), min(right, g.Width)
	if top >= bot || left >= right || rows == 0 {
		return
	}
	g.dirty = true

	span := bot - top
	if rows >= span || -rows >= span {
		for r := top; r < bot; r++ {
			g.blank(r, left, right)
		}
		return
	}
	if rows > 0 {
		for r := top; r < bot-rows; r++ {
			copy(g.cells[r][left:right], g.cells[r+rows][left:right])
		}
		for r := bot - rows; r < bot; r++ {
			g.blank(r, left, right)
		}
		return
	}
	for r := bot - 1; r >= top-rows; r-- {
		copy(g.cells[r][left:right], g.cells[r+rows][left:right])
	}
	for r := top; r < top-rows; r++ {
		g.blank(r, left, right)
	}
}

func (g *Grid) blank(row, left, right int) {
	for c := left; c < right; c++ {
		g.cells[row][c] = Blank
	}
}

// Cell returns the working cell at row, col.  Out of range positions read as
// Blank.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return Blank
	}
	return g.cells[row][col]
}

// View is the materialized, read-only state of a grid at a flush.
type View struct {
	ID        int
	Width     int
	Height    int
	CursorRow int
	CursorCol int
	Pos       Position
	Cells     [][]Cell
}

func (g *Grid) view() *View {
	cells := make([][]Cell, len(g.cells))
	for r, row := range g.cells {
		cells[r] = append([]Cell(nil), row...)
	}
	return &View{
		ID:        g.ID,
		Width:     g.Width,
		Height:    g.Height,
		CursorRow: g.CursorRow,
		CursorCol: g.CursorCol,
		Pos:       g.Pos,
		Cells:     cells,
	}
}

// Cell returns the cell at row, col, or Blank when out of range.
func (v *View) Cell(row, col int) Cell {
	if row < 0 || row >= len(v.Cells) || col < 0 || col >= len(v.Cells[row]) {
		return Blank
	}
	return v.Cells[row][col]
}

// Line returns the text of row, exactly as wide on screen as the grid.  The
// empty right half of a double-width character contributes nothing.  A
// wide character that lost its right half, or a right half that lost its
// character, reads as a space.
func (v *View) Line(row int) string {
	if row < 0 || row >= len(v.Cells) {
		return ""
	}
	cells := v.Cells[row]
	var sb strings.Builder
	for col, c := range cells {
		switch {
		case c.Text == "":
			if col == 0 || cells[col-1].Width() < 2 {
				sb.WriteByte(' ')
			}
		case c.Width() > 1 && (col+1 >= len(cells) || cells[col+1].Text != ""):
			sb.WriteByte(' ')
		default:
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}

// Text returns every row joined by newlines.
func (v *View) Text() string {
	var sb strings.Builder
	for r := range v.Cells {
		sb.WriteString(v.Line(r))
		sb.WriteByte('\n')
	}
	return sb.String()
}

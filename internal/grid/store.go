package grid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/neovim/go-client/nvim"
)

// RootID is the default grid.  It always exists.
const RootID = 1

// ErrUnknownGrid is returned for events that reference a grid that no
// grid_resize has created.
var ErrUnknownGrid = errors.New("unknown grid")

// maxAnchorDepth bounds anchor chain walks so a cycle sent by a misbehaving
// peer cannot hang the dispatcher.
const maxAnchorDepth = 64

// Store owns every grid.  It is not safe for concurrent use; the session
// goroutine is its only user.
type Store struct {
	grids   map[int]*Grid
	views   map[int]*View
	current int
}

// NewStore returns a store holding an empty root grid.
func NewStore() *Store {
	s := &Store{
		grids:   make(map[int]*Grid),
		views:   make(map[int]*View),
		current: RootID,
	}
	s.grids[RootID] = newGrid(RootID, 0, 0)
	return s
}

func (s *Store) get(id int) (*Grid, error) {
	g, ok := s.grids[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrUnknownGrid, id)
	}
	return g, nil
}

// Grid returns the working state of id, or nil.
func (s *Store) Grid(id int) *Grid {
	return s.grids[id]
}

// Current returns the id of the grid that last received the cursor.
func (s *Store) Current() int {
	return s.current
}

// IDs returns the ids of all live grids in ascending order.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.grids))
	for id := range s.grids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Resize creates id if it does not exist, otherwise reallocates its buffer.
func (s *Store) Resize(id, width, height int) {
	if g, ok := s.grids[id]; ok {
		g.resize(width, height)
		return
	}
	s.grids[id] = newGrid(id, width, height)
}

// Line writes a run of cells.
func (s *Store) Line(id, row, col int, cells []LineCell) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	g.line(row, col, cells)
	return nil
}

// Clear blanks every cell of id.
func (s *Store) Clear(id int) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	g.clear()
	return nil
}

// Destroy removes id.  Floats anchored to it are hidden.  The root grid is
// never removed; destroying it only clears it.
func (s *Store) Destroy(id int) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	if id == RootID {
		g.clear()
		return nil
	}
	delete(s.grids, id)
	for _, other := range s.grids {
		if other.Pos.Kind == Float && other.Pos.Anchor == id {
			other.Pos = Position{Kind: Hidden, Window: other.Pos.Window}
			other.dirty = true
		}
	}
	if s.current == id {
		s.current = RootID
	}
	return nil
}

// CursorGoto moves the cursor of id and makes it the current grid.
func (s *Store) CursorGoto(id, row, col int) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	g.CursorRow, g.CursorCol = row, col
	g.dirty = true
	s.current = id
	return nil
}

// Scroll shifts a rectangle of id.  bot and right are exclusive.
func (s *Store) Scroll(id, top, bot, left, right, rows int) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	g.scroll(top, bot, left, right, rows)
	return nil
}

func (s *Store) setPos(id int, pos Position) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	g.Pos = pos
	g.dirty = true
	return nil
}

// WinPos tiles id into the root grid.
func (s *Store) WinPos(id int, win nvim.Window, row, col, width, height int) error {
	return s.setPos(id, Position{
		Kind:   Tiled,
		Window: win,
		Row:    float64(row),
		Col:    float64(col),
		Width:  width,
		Height: height,
	})
}

// WinFloatPos anchors id to another grid.
func (s *Store) WinFloatPos(id int, win nvim.Window, corner string, anchor int, row, col float64, focusable bool, zindex int) error {
	if _, err := s.get(anchor); err != nil {
		return fmt.Errorf("float anchor: %w", err)
	}
	return s.setPos(id, Position{
		Kind:         Float,
		Window:       win,
		Anchor:       anchor,
		AnchorCorner: corner,
		Row:          row,
		Col:          col,
		Focusable:    focusable,
		ZIndex:       zindex,
	})
}

// WinExternalPos gives id its own top-level surface.
func (s *Store) WinExternalPos(id int, win nvim.Window) error {
	return s.setPos(id, Position{Kind: External, Window: win})
}

// WinHide hides id until it is positioned again.
func (s *Store) WinHide(id int) error {
	g, err := s.get(id)
	if err != nil {
		return err
	}
	return s.setPos(id, Position{Kind: Hidden, Window: g.Pos.Window})
}

// WinClose drops the window's positioning.  The grid itself lives until
// grid_destroy.
func (s *Store) WinClose(id int) error {
	return s.setPos(id, Position{Kind: Hidden})
}

// MsgSetPos places the message grid at row of the root grid.
func (s *Store) MsgSetPos(id, row int, scrolled bool, sepChar string) error {
	return s.setPos(id, Position{
		Kind:     Message,
		Row:      float64(row),
		Scrolled: scrolled,
		SepChar:  sepChar,
	})
}

// Position returns the effective placement of id.  A float whose anchor
// chain reaches a destroyed or hidden grid is reported as hidden.
func (s *Store) Position(id int) (Position, error) {
	g, err := s.get(id)
	if err != nil {
		return Position{}, err
	}
	return s.effective(g), nil
}

func (s *Store) effective(g *Grid) Position {
	pos := g.Pos
	cur := g
	for depth := 0; cur.Pos.Kind == Float; depth++ {
		anchor, ok := s.grids[cur.Pos.Anchor]
		if !ok || depth >= maxAnchorDepth || anchor.Pos.Kind == Hidden {
			return Position{Kind: Hidden, Window: pos.Window}
		}
		cur = anchor
	}
	return pos
}

// Flush materializes every changed grid and returns the views of all live
// grids in ascending id order.  Unchanged grids reuse their previous view.
func (s *Store) Flush() []*View {
	for id := range s.views {
		if _, ok := s.grids[id]; !ok {
			delete(s.views, id)
		}
	}
	views := make([]*View, 0, len(s.grids))
	for _, id := range s.IDs() {
		g := s.grids[id]
		pos := s.effective(g)
		v, ok := s.views[id]
		if !ok || g.dirty || v.Pos != pos {
			v = g.view()
			v.Pos = pos
			s.views[id] = v
			g.dirty = false
		}
		views = append(views, v)
	}
	return views
}

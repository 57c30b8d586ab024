package grid

import "github.com/neovim/go-client/nvim"

// Kind says how a grid is placed on screen.
type Kind int

const (
	// Tiled grids are laid out in the root grid (the root grid itself and
	// anything placed with win_pos).
	Tiled Kind = iota
	// Float grids are positioned relative to an anchor grid.
	Float
	// External grids own a top-level surface.
	External
	// Message grids hold the message area (msg_set_pos).
	Message
	// Hidden grids are not drawn.
	Hidden
)

func (k Kind) String() string {
	switch k {
	case Tiled:
		return "tiled"
	case Float:
		return "float"
	case External:
		return "external"
	case Message:
		return "message"
	case Hidden:
		return "hidden"
	}
	return "unknown"
}

// Position is the placement metadata of a grid.  Only the fields relevant to
// Kind are set.
type Position struct {
	Kind   Kind
	Window nvim.Window

	// Tiled and Message: cell offset in the root grid.  Float: offset from
	// the anchor corner, in cells of the anchor grid.
	Row, Col float64
	// Tiled: size in cells.
	Width, Height int

	// Float.
	Anchor       int
	AnchorCorner string // "NW", "NE", "SW" or "SE"
	Focusable    bool
	ZIndex       int

	// Message.
	Scrolled bool
	SepChar  string
}

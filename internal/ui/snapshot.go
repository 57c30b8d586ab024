package ui

import (
	"github.com/cptaffe/nvgrid/internal/cmdline"
	"github.com/cptaffe/nvgrid/internal/colors"
	"github.com/cptaffe/nvgrid/internal/font"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"github.com/cptaffe/nvgrid/internal/tabline"
	"github.com/cptaffe/nvgrid/internal/uievent"
	"github.com/cptaffe/nvgrid/style"
)

// Mode is the active editor mode and its cursor style.
type Mode struct {
	Name  string
	Index int
	Info  uievent.ModeInfo
	// Grid is the grid the cursor style applies to.
	Grid int
	// CursorStyleEnabled is false when the UI should keep its own cursor.
	CursorStyleEnabled bool
}

// Animations are the transition durations set over the extension channel,
// in milliseconds.
type Animations struct {
	CursorBlink    float64
	CursorPosition float64
	Scroll         float64
}

// Snapshot is the reconciled state handed to renderers.  A snapshot is never
// modified after it is published.
type Snapshot struct {
	// Seq increases with every published snapshot.
	Seq uint64

	Grids   []*grid.View
	Current int
	Colors  *colors.Colors
	Theme   []style.PaletteEntry
	Font    font.Font

	// GeometryChanged and ThemeChanged report what the flush that produced
	// this snapshot reconciled.
	GeometryChanged bool
	ThemeChanged    bool

	Title       string
	Busy        bool
	Mode        Mode
	ShowTabline int
	Tabline     tabline.View
	Cmdline     cmdline.View

	GridPopupmenu    popupmenu.View
	CmdlinePopupmenu popupmenu.View

	Debug      bool
	Animations Animations
}

// Grid returns the view of id, or nil.
func (s *Snapshot) Grid(id int) *grid.View {
	for _, v := range s.Grids {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// Popupmenu returns the visible menu, preferring the command-line one.
func (s *Snapshot) Popupmenu() popupmenu.View {
	if s.CmdlinePopupmenu.Visible {
		return s.CmdlinePopupmenu
	}
	return s.GridPopupmenu
}

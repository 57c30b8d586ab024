// Package uievent decodes the editor's "redraw" notifications into typed UI
// events, and the records of the nvgrid extension channel.
package uievent

import (
	"github.com/cptaffe/nvgrid/internal/cmdline"
	"github.com/cptaffe/nvgrid/internal/colors"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"github.com/cptaffe/nvgrid/internal/tabline"
	"github.com/neovim/go-client/nvim"
)

// Event is one decoded UI event.
type Event interface {
	// EventName returns the protocol name, e.g. "grid_line".
	EventName() string
}

// Global events.

type SetTitle struct{ Title string }

type ModeInfoSet struct {
	CursorStyleEnabled bool
	Modes              []ModeInfo
}

// ModeInfo is one cursor style descriptor.
type ModeInfo struct {
	Name           string
	ShortName      string
	CursorShape    string // "block", "horizontal" or "vertical"
	CellPercentage int
	AttrID         int
	BlinkWait      int
	BlinkOn        int
	BlinkOff       int
}

type ModeChange struct {
	Mode  string
	Index int
}

// OptionSet carries one UI option.  Value is the raw decoded value; see
// ToInt, ToString and ToBool.
type OptionSet struct {
	Name  string
	Value interface{}
}

type BusyStart struct{}
type BusyStop struct{}
type Flush struct{}

// Ignored is an event accepted without effect (set_icon, mouse_on, bell,
// chdir, ...).
type Ignored struct{ Name string }

// Linegrid events.

type GridResize struct{ Grid, Width, Height int }

// DefaultColorsSet colors are -1 when unset.
type DefaultColorsSet struct{ FG, BG, SP int64 }

type HlAttrDefine struct {
	ID    int
	Attrs colors.HlAttrs
}

type HlGroupSet struct {
	Name string
	ID   int
}

type GridLine struct {
	Grid, Row, Col int
	Cells          []grid.LineCell
}

type GridClear struct{ Grid int }
type GridDestroy struct{ Grid int }
type GridCursorGoto struct{ Grid, Row, Col int }

// GridScroll bounds are exclusive for Bot and Right.
type GridScroll struct {
	Grid, Top, Bot, Left, Right, Rows, Cols int
}

// Multigrid events.

type WinPos struct {
	Grid          int
	Window        nvim.Window
	Row, Col      int
	Width, Height int
}

type WinFloatPos struct {
	Grid         int
	Window       nvim.Window
	AnchorCorner string
	Anchor       int
	Row, Col     float64
	Focusable    bool
	ZIndex       int
}

type WinExternalPos struct {
	Grid   int
	Window nvim.Window
}

type WinHide struct{ Grid int }
type WinClose struct{ Grid int }

type MsgSetPos struct {
	Grid     int
	Row      int
	Scrolled bool
	SepChar  string
}

// WinViewport is accepted and ignored.
type WinViewport struct {
	Grid   int
	Window nvim.Window
}

// Popupmenu events.

type PopupmenuShow struct {
	Items    []popupmenu.Item
	Selected int
	Row, Col int
	Grid     int
}

type PopupmenuSelect struct{ Selected int }
type PopupmenuHide struct{}

// Tabline events.

type TablineUpdate struct {
	Current nvim.Tabpage
	Tabs    []tabline.Tab
	CurBuf  nvim.Buffer
	Buffers []tabline.Buffer
}

// Cmdline events.

type CmdlineShow struct{ Show cmdline.Show }

type CmdlinePos struct{ Pos, Level int }

type CmdlineSpecialChar struct {
	Char  string
	Shift bool
	Level int
}

type CmdlineHide struct{ Level int }
type CmdlineBlockShow struct{ Lines []cmdline.Line }
type CmdlineBlockAppend struct{ Line cmdline.Line }
type CmdlineBlockHide struct{}

func (SetTitle) EventName() string           { return "set_title" }
func (ModeInfoSet) EventName() string        { return "mode_info_set" }
func (ModeChange) EventName() string         { return "mode_change" }
func (OptionSet) EventName() string          { return "option_set" }
func (BusyStart) EventName() string          { return "busy_start" }
func (BusyStop) EventName() string           { return "busy_stop" }
func (Flush) EventName() string              { return "flush" }
func (e Ignored) EventName() string          { return e.Name }
func (GridResize) EventName() string         { return "grid_resize" }
func (DefaultColorsSet) EventName() string   { return "default_colors_set" }
func (HlAttrDefine) EventName() string       { return "hl_attr_define" }
func (HlGroupSet) EventName() string         { return "hl_group_set" }
func (GridLine) EventName() string           { return "grid_line" }
func (GridClear) EventName() string          { return "grid_clear" }
func (GridDestroy) EventName() string        { return "grid_destroy" }
func (GridCursorGoto) EventName() string     { return "grid_cursor_goto" }
func (GridScroll) EventName() string         { return "grid_scroll" }
func (WinPos) EventName() string             { return "win_pos" }
func (WinFloatPos) EventName() string        { return "win_float_pos" }
func (WinExternalPos) EventName() string     { return "win_external_pos" }
func (WinHide) EventName() string            { return "win_hide" }
func (WinClose) EventName() string           { return "win_close" }
func (MsgSetPos) EventName() string          { return "msg_set_pos" }
func (WinViewport) EventName() string        { return "win_viewport" }
func (PopupmenuShow) EventName() string      { return "popupmenu_show" }
func (PopupmenuSelect) EventName() string    { return "popupmenu_select" }
func (PopupmenuHide) EventName() string      { return "popupmenu_hide" }
func (TablineUpdate) EventName() string      { return "tabline_update" }
func (CmdlineShow) EventName() string        { return "cmdline_show" }
func (CmdlinePos) EventName() string         { return "cmdline_pos" }
func (CmdlineSpecialChar) EventName() string { return "cmdline_special_char" }
func (CmdlineHide) EventName() string        { return "cmdline_hide" }
func (CmdlineBlockShow) EventName() string   { return "cmdline_block_show" }
func (CmdlineBlockAppend) EventName() string { return "cmdline_block_append" }
func (CmdlineBlockHide) EventName() string   { return "cmdline_block_hide" }

// Package ui applies decoded UI events to the model: highlight table, grid
// store, mode table, popup menus, command line and tabline.  Changes become
// visible to renderers only at flush, as a Snapshot.
package ui

import (
	"fmt"

	"github.com/cptaffe/nvgrid/internal/cmdline"
	"github.com/cptaffe/nvgrid/internal/colors"
	"github.com/cptaffe/nvgrid/internal/font"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"github.com/cptaffe/nvgrid/internal/tabline"
	"github.com/cptaffe/nvgrid/internal/uievent"
	"github.com/cptaffe/nvgrid/style"
)

// Hooks receive the effects of a flush.  Either may be nil.
type Hooks struct {
	// Publish receives every new snapshot.
	Publish func(*Snapshot)
	// Resize is called when a flush finds the geometry dirty, with the grid
	// size that fits the current allocation.  Debouncing is up to the
	// callee.
	Resize func(cols, rows int)
}

// Config configures a Dispatcher.
type Config struct {
	// Cols and Rows size the initial allocation.
	Cols, Rows int
	Font       font.Font
	// Metrics defaults to font.Estimate.
	Metrics font.Metrics
	// PopupmenuBatch defaults to popupmenu.DefaultBatch.
	PopupmenuBatch int
}

// Dispatcher routes events to their owners and reconciles at flush.  It is
// not safe for concurrent use.
type Dispatcher struct {
	hooks   Hooks
	metrics font.Metrics

	colors  *colors.Colors
	grids   *grid.Store
	popup   *popupmenu.Router
	cmdline *cmdline.State
	tabline *tabline.State

	font        font.Font
	showTabline int
	width       int // allocation, pixels
	height      int

	modes              []uievent.ModeInfo
	cursorStyleEnabled bool
	mode               Mode

	title      string
	busy       bool
	debug      bool
	animations Animations

	resizeDirty   bool
	themeDirty    bool
	colorsChanged bool

	views     []*grid.View
	published *colors.Colors
	theme     []style.PaletteEntry
	shown     *shown
	seq       uint64
}

// shown is the working state captured at the last flush.  Snapshots are
// built from it, never from the working state.
type shown struct {
	current     int
	font        font.Font
	title       string
	busy        bool
	mode        Mode
	showTabline int
	cmdline     cmdline.View
	gridMenu    popupmenu.View
	cmdMenu     popupmenu.View
	gridGen     uint64
	cmdGen      uint64
}

// New returns a dispatcher with an empty model.  The theme is dirty so the
// first flush derives it.
func New(cfg Config, hooks Hooks) *Dispatcher {
	if cfg.Metrics == nil {
		cfg.Metrics = font.Estimate{}
	}
	if cfg.Font.Family == "" {
		cfg.Font = font.Default()
	}
	d := &Dispatcher{
		hooks:       hooks,
		metrics:     cfg.Metrics,
		colors:      colors.New(),
		grids:       grid.NewStore(),
		popup:       popupmenu.NewRouter(cfg.PopupmenuBatch),
		cmdline:     cmdline.New(),
		tabline:     tabline.New(),
		font:        cfg.Font,
		showTabline: 1,
		mode:        Mode{Grid: grid.RootID},
		themeDirty:  true,
	}
	cw, ch := cfg.Metrics.CellSize(cfg.Font)
	d.width = int(cw * float64(cfg.Cols))
	d.height = int((ch + float64(cfg.Font.Linespace)) * float64(cfg.Rows))
	return d
}

// GeometryDirty reports whether a flush is owed a resize.
func (d *Dispatcher) GeometryDirty() bool { return d.resizeDirty }

// ThemeDirty reports whether a flush is owed a theme regeneration.
func (d *Dispatcher) ThemeDirty() bool { return d.themeDirty }

// Colors returns the working highlight table.
func (d *Dispatcher) Colors() *colors.Colors { return d.colors }

// Grids returns the working grid store.
func (d *Dispatcher) Grids() *grid.Store { return d.grids }

// Font returns the current font.
func (d *Dispatcher) Font() font.Font { return d.font }

// Apply routes one event.  The returned error is fatal for the session.
func (d *Dispatcher) Apply(e uievent.Event) error {
	if err := d.apply(e); err != nil {
		return &ProtocolError{Event: e.EventName(), Err: err}
	}
	return nil
}

func (d *Dispatcher) apply(e uievent.Event) error {
	switch e := e.(type) {
	case uievent.SetTitle:
		d.title = e.Title
	case uievent.ModeInfoSet:
		d.modes = e.Modes
		d.cursorStyleEnabled = e.CursorStyleEnabled
		d.mode.CursorStyleEnabled = e.CursorStyleEnabled
	case uievent.ModeChange:
		return d.modeChange(e)
	case uievent.OptionSet:
		return d.optionSet(e)
	case uievent.BusyStart:
		d.busy = true
	case uievent.BusyStop:
		d.busy = false
	case uievent.Flush:
		d.flush()
	case uievent.Ignored, uievent.WinViewport:

	case uievent.GridResize:
		d.grids.Resize(e.Grid, e.Width, e.Height)
	case uievent.DefaultColorsSet:
		d.colors.SetDefaults(e.FG, e.BG, e.SP)
		d.colorsChanged = true
		d.themeDirty = true
	case uievent.HlAttrDefine:
		d.colors.Define(e.ID, e.Attrs)
		d.colorsChanged = true
		if d.colors.References(e.ID) {
			d.themeDirty = true
		}
	case uievent.HlGroupSet:
		if g, ok := colors.ParseHlGroup(e.Name); ok {
			d.colors.SetGroup(g, e.ID)
			d.colorsChanged = true
			d.themeDirty = true
		}
	case uievent.GridLine:
		return d.grids.Line(e.Grid, e.Row, e.Col, e.Cells)
	case uievent.GridClear:
		return d.grids.Clear(e.Grid)
	case uievent.GridDestroy:
		return d.grids.Destroy(e.Grid)
	case uievent.GridCursorGoto:
		if err := d.grids.CursorGoto(e.Grid, e.Row, e.Col); err != nil {
			return err
		}
		d.mode.Grid = e.Grid
	case uievent.GridScroll:
		return d.grids.Scroll(e.Grid, e.Top, e.Bot, e.Left, e.Right, e.Rows)

	case uievent.WinPos:
		return d.grids.WinPos(e.Grid, e.Window, e.Row, e.Col, e.Width, e.Height)
	case uievent.WinFloatPos:
		return d.grids.WinFloatPos(e.Grid, e.Window, e.AnchorCorner, e.Anchor, e.Row, e.Col, e.Focusable, e.ZIndex)
	case uievent.WinExternalPos:
		return d.grids.WinExternalPos(e.Grid, e.Window)
	case uievent.WinHide:
		return d.grids.WinHide(e.Grid)
	case uievent.WinClose:
		return d.grids.WinClose(e.Grid)
	case uievent.MsgSetPos:
		return d.grids.MsgSetPos(e.Grid, e.Row, e.Scrolled, e.SepChar)

	case uievent.PopupmenuShow:
		d.popup.Show(e.Items, e.Selected, e.Row, e.Col, e.Grid)
	case uievent.PopupmenuSelect:
		d.popup.Select(e.Selected)
	case uievent.PopupmenuHide:
		d.popup.Hide()

	case uievent.TablineUpdate:
		d.tabline.Update(e.Current, e.Tabs, e.CurBuf, e.Buffers)

	case uievent.CmdlineShow:
		d.cmdline.Show(e.Show)
	case uievent.CmdlinePos:
		d.cmdline.SetPos(e.Pos, e.Level)
	case uievent.CmdlineSpecialChar:
		d.cmdline.SpecialChar(e.Char, e.Shift, e.Level)
	case uievent.CmdlineHide:
		d.cmdline.Hide()
	case uievent.CmdlineBlockShow:
		d.cmdline.BlockShow(e.Lines)
	case uievent.CmdlineBlockAppend:
		d.cmdline.BlockAppend(e.Line)
	case uievent.CmdlineBlockHide:
		d.cmdline.BlockHide()

	default:
		return fmt.Errorf("%w: %T", uievent.ErrUnknownEvent, e)
	}
	return nil
}

func (d *Dispatcher) modeChange(e uievent.ModeChange) error {
	if e.Index < 0 || e.Index >= len(d.modes) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrModeIndex, e.Index, len(d.modes))
	}
	d.mode.Name = e.Mode
	d.mode.Index = e.Index
	d.mode.Info = d.modes[e.Index]
	d.mode.Grid = d.grids.Current()
	return nil
}

func (d *Dispatcher) optionSet(e uievent.OptionSet) error {
	switch e.Name {
	case "linespace":
		ls, err := uievent.ToInt(e.Value)
		if err != nil {
			return err
		}
		d.font = d.font.WithLinespace(ls)
	case "guifont":
		s, err := uievent.ToString(e.Value)
		if err != nil {
			return err
		}
		f, _ := font.ParseGuifont(s)
		d.font = f.WithLinespace(d.font.Linespace)
	case "showtabline":
		n, err := uievent.ToInt(e.Value)
		if err != nil {
			return err
		}
		d.showTabline = n
	default:
		return nil
	}
	d.resizeDirty = true
	d.themeDirty = true
	return nil
}

// flush reconciles in a fixed order: grids, tabline, geometry, theme.
func (d *Dispatcher) flush() {
	d.views = d.grids.Flush()
	d.tabline.Flush()

	geometry := d.resizeDirty
	if d.resizeDirty {
		d.resizeDirty = false
		if d.hooks.Resize != nil {
			d.hooks.Resize(d.GridSize())
		}
	}

	theme := d.themeDirty
	if d.themeDirty {
		d.themeDirty = false
		d.theme = Theme(d.colors, d.font)
	}

	if d.colorsChanged || d.published == nil {
		d.published = d.colors.Clone()
		d.colorsChanged = false
	}
	d.shown = &shown{
		current:     d.grids.Current(),
		font:        d.font,
		title:       d.title,
		busy:        d.busy,
		mode:        d.mode,
		showTabline: d.showTabline,
		cmdline:     d.cmdline.View(),
		gridMenu:    d.popup.Grid.View(),
		cmdMenu:     d.popup.Cmdline.View(),
		gridGen:     d.popup.Grid.Generation(),
		cmdGen:      d.popup.Cmdline.Generation(),
	}
	d.publish(geometry, theme)
}

// tablineVisible applies 'showtabline': 0 never, 1 with two or more tabs,
// 2 always.
func (d *Dispatcher) tablineVisible() bool {
	switch d.showTabline {
	case 0:
		return false
	case 1:
		return len(d.tabline.View().Tabs) > 1
	}
	return true
}

// GridSize returns the root grid size that fits the allocation.  A visible
// tabline takes one row.
func (d *Dispatcher) GridSize() (cols, rows int) {
	cols, rows = font.GridSize(d.metrics, d.font, d.width, d.height)
	if d.tablineVisible() && rows > 1 {
		rows--
	}
	return cols, rows
}

// SetAllocation records a new window size in pixels and returns the grid
// size that fits it.
func (d *Dispatcher) SetAllocation(width, height int) (cols, rows int) {
	d.width, d.height = width, height
	return d.GridSize()
}

// Allocation returns the window size in pixels.
func (d *Dispatcher) Allocation() (width, height int) {
	return d.width, d.height
}

// ApplyExt applies an extension channel record.  EchoRepeat is left to the
// caller, which owns the editor connection.  Before the first flush the
// record is only stored.
func (d *Dispatcher) ApplyExt(e uievent.ExtEvent) {
	switch e := e.(type) {
	case uievent.Debugger:
		d.debug = true
	case uievent.Transition:
		switch e.Name {
		case "cursor_blink_transition":
			d.animations.CursorBlink = e.Millis
		case "cursor_position_transition":
			d.animations.CursorPosition = e.Millis
		case "scroll_transition":
			d.animations.Scroll = e.Millis
		}
	default:
		return
	}
	if d.shown != nil {
		d.publish(false, false)
	}
}

// PopupmenuPending reports whether Tick has work.
func (d *Dispatcher) PopupmenuPending() bool {
	return d.popup.Pending()
}

// Tick materializes one batch of popup menu items and reports whether more
// remain.  New items are published only for a menu that has not changed
// since the last flush; anything else waits for the next flush.
func (d *Dispatcher) Tick() bool {
	if !d.popup.Pending() {
		return false
	}
	more := d.popup.Tick()
	if d.shown == nil {
		return more
	}
	g := extendMenu(&d.shown.gridMenu, d.popup.Grid, d.shown.gridGen)
	c := extendMenu(&d.shown.cmdMenu, d.popup.Cmdline, d.shown.cmdGen)
	if g || c {
		d.publish(false, false)
	}
	return more
}

// extendMenu copies newly materialized items of m into v if m is still the
// menu v was taken from.
func extendMenu(v *popupmenu.View, m *popupmenu.Menu, gen uint64) bool {
	if m.Generation() != gen {
		return false
	}
	items := m.Model().Items()
	if len(items) == len(v.Items) {
		return false
	}
	v.Items = append([]popupmenu.Item(nil), items...)
	return true
}

func (d *Dispatcher) publish(geometry, theme bool) {
	if d.hooks.Publish == nil || d.shown == nil {
		return
	}
	d.seq++
	published := d.published
	if published == nil {
		published = colors.New()
	}
	d.hooks.Publish(&Snapshot{
		Seq:              d.seq,
		Grids:            d.views,
		Current:          d.shown.current,
		Colors:           published,
		Theme:            d.theme,
		Font:             d.shown.font,
		GeometryChanged:  geometry,
		ThemeChanged:     theme,
		Title:            d.shown.title,
		Busy:             d.shown.busy,
		Mode:             d.shown.mode,
		ShowTabline:      d.shown.showTabline,
		Tabline:          d.tabline.View(),
		Cmdline:          d.shown.cmdline,
		GridPopupmenu:    d.shown.gridMenu,
		CmdlinePopupmenu: d.shown.cmdMenu,
		Debug:            d.debug,
		Animations:       d.animations,
	})
}

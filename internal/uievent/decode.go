package uievent

import (
	"errors"
	"fmt"

	"github.com/cptaffe/nvgrid/internal/cmdline"
	"github.com/cptaffe/nvgrid/internal/colors"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"github.com/cptaffe/nvgrid/internal/tabline"
)

// ErrUnknownEvent is returned for a redraw event name this package does not
// know.
var ErrUnknownEvent = errors.New("unknown ui event")

type decodeFunc func(a *args) Event

var ignored = []string{
	"set_icon", "mouse_on", "mouse_off", "suspend", "update_menu", "bell",
	"visual_bell", "chdir", "win_viewport_margins",
}

var decoders = map[string]decodeFunc{
	"set_title":     func(a *args) Event { return SetTitle{Title: a.str(0)} },
	"mode_info_set": decodeModeInfoSet,
	"mode_change":   func(a *args) Event { return ModeChange{Mode: a.str(0), Index: a.int(1)} },
	"option_set":    func(a *args) Event { return OptionSet{Name: a.str(0), Value: a.raw(1)} },
	"busy_start":    func(*args) Event { return BusyStart{} },
	"busy_stop":     func(*args) Event { return BusyStop{} },
	"flush":         func(*args) Event { return Flush{} },

	"grid_resize": func(a *args) Event {
		return GridResize{Grid: a.int(0), Width: a.int(1), Height: a.int(2)}
	},
	"default_colors_set": func(a *args) Event {
		return DefaultColorsSet{FG: a.int64(0), BG: a.int64(1), SP: a.int64(2)}
	},
	"hl_attr_define": decodeHlAttrDefine,
	"hl_group_set":   func(a *args) Event { return HlGroupSet{Name: a.str(0), ID: a.int(1)} },
	"grid_line":      decodeGridLine,
	"grid_clear":     func(a *args) Event { return GridClear{Grid: a.int(0)} },
	"grid_destroy":   func(a *args) Event { return GridDestroy{Grid: a.int(0)} },
	"grid_cursor_goto": func(a *args) Event {
		return GridCursorGoto{Grid: a.int(0), Row: a.int(1), Col: a.int(2)}
	},
	"grid_scroll": func(a *args) Event {
		return GridScroll{
			Grid: a.int(0), Top: a.int(1), Bot: a.int(2),
			Left: a.int(3), Right: a.int(4), Rows: a.int(5), Cols: a.int(6),
		}
	},

	"win_pos": func(a *args) Event {
		return WinPos{
			Grid: a.int(0), Window: a.window(1),
			Row: a.int(2), Col: a.int(3), Width: a.int(4), Height: a.int(5),
		}
	},
	"win_float_pos": decodeWinFloatPos,
	"win_external_pos": func(a *args) Event {
		return WinExternalPos{Grid: a.int(0), Window: a.window(1)}
	},
	"win_hide":  func(a *args) Event { return WinHide{Grid: a.int(0)} },
	"win_close": func(a *args) Event { return WinClose{Grid: a.int(0)} },
	"msg_set_pos": func(a *args) Event {
		e := MsgSetPos{Grid: a.int(0), Row: a.int(1), Scrolled: a.bool(2)}
		if a.has(3) {
			e.SepChar = a.str(3)
		}
		return e
	},
	"win_viewport": func(a *args) Event { return WinViewport{Grid: a.int(0), Window: a.window(1)} },

	"popupmenu_show":   decodePopupmenuShow,
	"popupmenu_select": func(a *args) Event { return PopupmenuSelect{Selected: a.int(0)} },
	"popupmenu_hide":   func(*args) Event { return PopupmenuHide{} },

	"tabline_update": decodeTablineUpdate,

	"cmdline_show": func(a *args) Event {
		return CmdlineShow{Show: cmdline.Show{
			Content: a.line(0),
			Pos:     a.int(1),
			Firstc:  a.str(2),
			Prompt:  a.str(3),
			Indent:  a.int(4),
			Level:   a.int(5),
		}}
	},
	"cmdline_pos": func(a *args) Event { return CmdlinePos{Pos: a.int(0), Level: a.int(1)} },
	"cmdline_special_char": func(a *args) Event {
		return CmdlineSpecialChar{Char: a.str(0), Shift: a.bool(1), Level: a.int(2)}
	},
	"cmdline_hide": func(a *args) Event {
		var e CmdlineHide
		if a.has(0) {
			e.Level = a.int(0)
		}
		return e
	},
	"cmdline_block_show": func(a *args) Event {
		var lines []cmdline.Line
		for i, v := range a.array(0) {
			sub := &args{v: []interface{}{v}}
			lines = append(lines, sub.line(0))
			a.fail(i, sub.err)
		}
		return CmdlineBlockShow{Lines: lines}
	},
	"cmdline_block_append": func(a *args) Event { return CmdlineBlockAppend{Line: a.line(0)} },
	"cmdline_block_hide":   func(*args) Event { return CmdlineBlockHide{} },
}

func init() {
	for _, name := range ignored {
		name := name
		decoders[name] = func(*args) Event { return Ignored{Name: name} }
	}
}

// DecodeRedraw decodes the params of a "redraw" notification.  Each element
// is [name, args...] with one argument tuple per event instance; the result
// has one Event per tuple, in order.  An unknown name or malformed arguments
// fail the whole batch.
func DecodeRedraw(params []interface{}) ([]Event, error) {
	var events []Event
	for i, raw := range params {
		batch, err := ToArray(raw)
		if err != nil {
			return nil, fmt.Errorf("redraw batch %d: %w", i, err)
		}
		if len(batch) == 0 {
			return nil, fmt.Errorf("redraw batch %d: %w: empty", i, ErrMalformed)
		}
		name, err := ToString(batch[0])
		if err != nil {
			return nil, fmt.Errorf("redraw batch %d: event name: %w", i, err)
		}
		dec, ok := decoders[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
		}
		tuples := batch[1:]
		if len(tuples) == 0 {
			tuples = []interface{}{nil}
		}
		for _, t := range tuples {
			v, err := ToArray(t)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			a := &args{v: v}
			e := dec(a)
			if a.err != nil {
				return nil, fmt.Errorf("%s: %w", name, a.err)
			}
			events = append(events, e)
		}
	}
	return events, nil
}

func decodeModeInfoSet(a *args) Event {
	e := ModeInfoSet{CursorStyleEnabled: a.bool(0)}
	for i, v := range a.array(1) {
		m, err := ToMap(v)
		if err != nil {
			a.fail(1, fmt.Errorf("mode %d: %w", i, err))
			break
		}
		e.Modes = append(e.Modes, ModeInfo{
			Name:           optString(m, "name"),
			ShortName:      optString(m, "short_name"),
			CursorShape:    optString(m, "cursor_shape"),
			CellPercentage: optInt(m, "cell_percentage"),
			AttrID:         optInt(m, "attr_id"),
			BlinkWait:      optInt(m, "blinkwait"),
			BlinkOn:        optInt(m, "blinkon"),
			BlinkOff:       optInt(m, "blinkoff"),
		})
	}
	return e
}

func decodeHlAttrDefine(a *args) Event {
	e := HlAttrDefine{ID: a.int(0)}
	m := a.dict(1)
	color := func(key string) *colors.Color {
		v, ok := m[key]
		if !ok {
			return nil
		}
		n, err := ToInt64(v)
		if err != nil {
			a.fail(1, fmt.Errorf("%s: %w", key, err))
			return nil
		}
		c, ok := colors.FromInt64(n)
		if !ok {
			return nil
		}
		return &c
	}
	e.Attrs = colors.HlAttrs{
		FG:            color("foreground"),
		BG:            color("background"),
		SP:            color("special"),
		Bold:          optBool(m, "bold"),
		Italic:        optBool(m, "italic"),
		Reverse:       optBool(m, "reverse"),
		Strikethrough: optBool(m, "strikethrough"),
		Underline:     optBool(m, "underline"),
		Undercurl:     optBool(m, "undercurl"),
		Underdouble:   optBool(m, "underdouble"),
		Underdotted:   optBool(m, "underdotted"),
		Underdashed:   optBool(m, "underdashed"),
		Blend:         optInt(m, "blend"),
	}
	return e
}

// decodeGridLine decodes [grid, row, col_start, cells, wrap?] where each
// cell is [text, hl_id?, repeat?].
func decodeGridLine(a *args) Event {
	e := GridLine{Grid: a.int(0), Row: a.int(1), Col: a.int(2)}
	raw := a.array(3)
	e.Cells = make([]grid.LineCell, 0, len(raw))
	for i, v := range raw {
		c := &args{}
		c.v, c.err = ToArray(v)
		lc := grid.LineCell{Text: c.str(0)}
		if c.has(1) {
			lc.HL = c.int(1)
			lc.HasHL = true
		}
		if c.has(2) {
			lc.Repeat = c.int(2)
		}
		if c.err != nil {
			a.fail(3, fmt.Errorf("cell %d: %w", i, c.err))
			break
		}
		e.Cells = append(e.Cells, lc)
	}
	return e
}

// decodeWinFloatPos decodes [grid, win, anchor, anchor_grid, anchor_row,
// anchor_col, focusable?, zindex?].
func decodeWinFloatPos(a *args) Event {
	e := WinFloatPos{
		Grid:         a.int(0),
		Window:       a.window(1),
		AnchorCorner: a.str(2),
		Anchor:       a.int(3),
		Row:          a.float(4),
		Col:          a.float(5),
		Focusable:    true,
	}
	if a.has(6) {
		e.Focusable = a.bool(6)
	}
	if a.has(7) {
		e.ZIndex = a.int(7)
	}
	return e
}

// decodePopupmenuShow decodes [items, selected, row, col, grid] where each
// item is [word, kind, menu, info].
func decodePopupmenuShow(a *args) Event {
	e := PopupmenuShow{Selected: a.int(1), Row: a.int(2), Col: a.int(3), Grid: a.int(4)}
	raw := a.array(0)
	e.Items = make([]popupmenu.Item, 0, len(raw))
	for i, v := range raw {
		it := &args{}
		it.v, it.err = ToArray(v)
		item := popupmenu.Item{Word: it.str(0), Kind: it.str(1), Menu: it.str(2), Info: it.str(3)}
		if it.err != nil {
			a.fail(0, fmt.Errorf("item %d: %w", i, it.err))
			break
		}
		e.Items = append(e.Items, item)
	}
	return e
}

// decodeTablineUpdate decodes [curtab, tabs, curbuf?, buffers?] where tabs
// are {tab, name} and buffers {buffer, name} dicts.
func decodeTablineUpdate(a *args) Event {
	e := TablineUpdate{Current: a.tabpage(0)}
	for i, v := range a.array(1) {
		m, err := ToMap(v)
		if err == nil {
			var t tabline.Tab
			if t.Tab, err = ToTabpage(m["tab"]); err == nil {
				t.Name = optString(m, "name")
				e.Tabs = append(e.Tabs, t)
				continue
			}
		}
		a.fail(1, fmt.Errorf("tab %d: %w", i, err))
		return e
	}
	if a.has(2) {
		e.CurBuf = a.buffer(2)
	}
	if a.has(3) {
		for i, v := range a.array(3) {
			m, err := ToMap(v)
			if err == nil {
				var b tabline.Buffer
				if b.Buffer, err = ToBuffer(m["buffer"]); err == nil {
					b.Name = optString(m, "name")
					e.Buffers = append(e.Buffers, b)
					continue
				}
			}
			a.fail(3, fmt.Errorf("buffer %d: %w", i, err))
			return e
		}
	}
	return e
}

// line decodes cmdline content: [[hl_id, text, ...], ...].
func (a *args) line(i int) cmdline.Line {
	raw := a.array(i)
	var l cmdline.Line
	for j, v := range raw {
		c := &args{}
		c.v, c.err = ToArray(v)
		var hl int
		if c.has(0) {
			// Older editors send an attribute dict instead of an id.
			if _, err := ToMap(c.v[0]); err != nil {
				hl = c.int(0)
			}
		}
		text := c.str(1)
		if c.err != nil {
			a.fail(i, fmt.Errorf("chunk %d: %w", j, c.err))
			return l
		}
		l = append(l, cmdline.Chunk{HL: hl, Text: text})
	}
	return l
}

func optString(m map[string]interface{}, key string) string {
	s, _ := ToString(m[key])
	return s
}

func optInt(m map[string]interface{}, key string) int {
	n, _ := ToInt(m[key])
	return n
}

func optBool(m map[string]interface{}, key string) bool {
	b, _ := ToBool(m[key])
	return b
}

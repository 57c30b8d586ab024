package uievent

import (
	"testing"

	"github.com/cptaffe/nvgrid/internal/cmdline"
	"github.com/cptaffe/nvgrid/internal/colors"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"github.com/cptaffe/nvgrid/internal/tabline"
	"github.com/neovim/go-client/nvim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a builds a msgpack-style array.
func a(v ...interface{}) []interface{} { return v }

func TestDecodeRedrawFlattensTuples(t *testing.T) {
	events, err := DecodeRedraw(a(
		a("grid_resize", a(int64(1), int64(80), int64(24)), a(uint64(2), uint64(10), uint64(5))),
		a("grid_clear", a(int64(1))),
		a("flush", a()),
	))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		GridResize{Grid: 1, Width: 80, Height: 24},
		GridResize{Grid: 2, Width: 10, Height: 5},
		GridClear{Grid: 1},
		Flush{},
	}, events)
}

func TestDecodeRedrawNoTuple(t *testing.T) {
	events, err := DecodeRedraw(a(a("popupmenu_hide"), a("cmdline_block_hide", a())))
	require.NoError(t, err)
	assert.Equal(t, []Event{PopupmenuHide{}, CmdlineBlockHide{}}, events)
}

func TestDecodeRedrawUnknownEvent(t *testing.T) {
	_, err := DecodeRedraw(a(a("grid_clear", a(int64(1))), a("grid_explode", a(int64(1)))))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeRedrawMalformed(t *testing.T) {
	for name, params := range map[string][]interface{}{
		"missing arg":  a(a("grid_resize", a(int64(1), int64(2)))),
		"wrong type":   a(a("grid_clear", a("one"))),
		"not an array": a("flush"),
		"empty batch":  a(a()),
		"bad cell":     a(a("grid_line", a(int64(1), int64(0), int64(0), a("x")))),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRedraw(params)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeIgnored(t *testing.T) {
	events, err := DecodeRedraw(a(
		a("set_icon", a("icon")),
		a("mouse_on", a()),
		a("chdir", a("/tmp")),
		a("win_viewport", a(int64(2), nvim.Window(1000), int64(0), int64(10), int64(3), int64(0), int64(100), int64(0))),
	))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		Ignored{Name: "set_icon"},
		Ignored{Name: "mouse_on"},
		Ignored{Name: "chdir"},
		WinViewport{Grid: 2, Window: 1000},
	}, events)
}

func TestDecodeGridLine(t *testing.T) {
	events, err := DecodeRedraw(a(a("grid_line",
		a(int64(1), int64(3), int64(2), a(a("a", int64(7)), a("b"), a(" ", int64(0), int64(4))), false),
	)))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, GridLine{Grid: 1, Row: 3, Col: 2, Cells: []grid.LineCell{
		{Text: "a", HL: 7, HasHL: true},
		{Text: "b"},
		{Text: " ", HL: 0, HasHL: true, Repeat: 4},
	}}, events[0])
}

func TestDecodeHlAttrDefine(t *testing.T) {
	events, err := DecodeRedraw(a(a("hl_attr_define",
		a(int64(5), map[string]interface{}{
			"foreground": int64(0x112233),
			"background": int64(-1),
			"bold":       true,
			"undercurl":  true,
			"blend":      int64(20),
		}, map[string]interface{}{}, a()),
	)))
	require.NoError(t, err)
	fg := colors.Color(0x112233)
	assert.Equal(t, HlAttrDefine{ID: 5, Attrs: colors.HlAttrs{FG: &fg, Bold: true, Undercurl: true, Blend: 20}}, events[0])
}

func TestDecodeMultigrid(t *testing.T) {
	events, err := DecodeRedraw(a(
		a("win_pos", a(int64(2), nvim.Window(1000), int64(1), int64(0), int64(40), int64(10))),
		a("win_float_pos", a(int64(3), nvim.Window(1001), "NW", int64(2), 1.5, int64(4), false, int64(50))),
		a("win_float_pos", a(int64(4), int64(1002), "SE", int64(1), int64(0), int64(0))),
		a("msg_set_pos", a(int64(5), int64(20), true, "-")),
	))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		WinPos{Grid: 2, Window: 1000, Row: 1, Col: 0, Width: 40, Height: 10},
		WinFloatPos{Grid: 3, Window: 1001, AnchorCorner: "NW", Anchor: 2, Row: 1.5, Col: 4, Focusable: false, ZIndex: 50},
		WinFloatPos{Grid: 4, Window: 1002, AnchorCorner: "SE", Anchor: 1, Focusable: true},
		MsgSetPos{Grid: 5, Row: 20, Scrolled: true, SepChar: "-"},
	}, events)
}

func TestDecodeModeInfoSet(t *testing.T) {
	events, err := DecodeRedraw(a(
		a("mode_info_set", a(true, a(
			map[string]interface{}{"name": "normal", "short_name": "n", "cursor_shape": "block", "cell_percentage": int64(0), "attr_id": int64(3)},
			map[interface{}]interface{}{"name": "insert", "cursor_shape": "vertical", "cell_percentage": int64(25), "blinkon": int64(400)},
		))),
		a("mode_change", a("insert", int64(1))),
	))
	require.NoError(t, err)
	assert.Equal(t, ModeInfoSet{CursorStyleEnabled: true, Modes: []ModeInfo{
		{Name: "normal", ShortName: "n", CursorShape: "block", AttrID: 3},
		{Name: "insert", CursorShape: "vertical", CellPercentage: 25, BlinkOn: 400},
	}}, events[0])
	assert.Equal(t, ModeChange{Mode: "insert", Index: 1}, events[1])
}

func TestDecodePopupmenuAndTabline(t *testing.T) {
	events, err := DecodeRedraw(a(
		a("popupmenu_show", a(a(a("foo", "f", "", ""), a("bar", "v", "menu", "info")), int64(-1), int64(3), int64(4), int64(-1))),
		a("tabline_update", a(nvim.Tabpage(2),
			a(map[string]interface{}{"tab": nvim.Tabpage(1), "name": "a"}, map[string]interface{}{"tab": nvim.Tabpage(2), "name": "b"}),
			nvim.Buffer(3),
			a(map[string]interface{}{"buffer": nvim.Buffer(3), "name": "b"}),
		)),
	))
	require.NoError(t, err)
	assert.Equal(t, PopupmenuShow{
		Items:    []popupmenu.Item{{Word: "foo", Kind: "f"}, {Word: "bar", Kind: "v", Menu: "menu", Info: "info"}},
		Selected: -1, Row: 3, Col: 4, Grid: -1,
	}, events[0])
	assert.Equal(t, TablineUpdate{
		Current: 2,
		Tabs:    []tabline.Tab{{Tab: 1, Name: "a"}, {Tab: 2, Name: "b"}},
		CurBuf:  3,
		Buffers: []tabline.Buffer{{Buffer: 3, Name: "b"}},
	}, events[1])
}

func TestDecodeCmdline(t *testing.T) {
	events, err := DecodeRedraw(a(
		a("cmdline_show", a(a(a(int64(0), "e"), a(int64(9), "dit")), int64(4), ":", "", int64(0), int64(1))),
		a("cmdline_special_char", a("^V", true, int64(1))),
		a("cmdline_block_show", a(a(a(a(int64(0), "if 1"))))),
		a("cmdline_block_append", a(a(a(int64(0), "endif")))),
		a("cmdline_hide", a(int64(1), false)),
	))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		CmdlineShow{Show: cmdline.Show{Content: cmdline.Line{{Text: "e"}, {HL: 9, Text: "dit"}}, Pos: 4, Firstc: ":", Level: 1}},
		CmdlineSpecialChar{Char: "^V", Shift: true, Level: 1},
		CmdlineBlockShow{Lines: []cmdline.Line{{{Text: "if 1"}}}},
		CmdlineBlockAppend{Line: cmdline.Line{{Text: "endif"}}},
		CmdlineHide{Level: 1},
	}, events)
}

func TestDecodeExt(t *testing.T) {
	events, errs := DecodeExt(a(
		a("echo_repeat", "hi", int64(3)),
		a("bogus"),
		a("debugger"),
		a("scroll_transition", 150.0),
		"not a record",
		a("cursor_blink_transition"),
		a("cursor_position_transition", int64(80)),
		a("echo_repeat", "x", int64(1)<<62),
		a("echo_repeat", "x", int64(-1)),
	))
	assert.Equal(t, []ExtEvent{
		EchoRepeat{Msg: "hi", Times: 3},
		Debugger{},
		Transition{Name: "scroll_transition", Millis: 150},
		Transition{Name: "cursor_position_transition", Millis: 80},
	}, events)
	require.Len(t, errs, 5)
	assert.ErrorIs(t, errs[0], ErrUnknownRecord)
	for _, err := range errs[1:] {
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

package server

import (
	"testing"

	"github.com/cptaffe/nvgrid/internal/cmdline"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"github.com/cptaffe/nvgrid/internal/tabline"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/stretchr/testify/assert"
)

func TestFormatCmdline(t *testing.T) {
	snap := &ui.Snapshot{Cmdline: cmdline.View{
		Visible: true,
		Show: cmdline.Show{
			Content: cmdline.Line{{Text: "set "}, {HL: 2, Text: "nu"}},
			Pos:     4,
			Firstc:  ":",
			Indent:  2,
		},
		BlockVisible: true,
		Block:        []cmdline.Line{{{Text: "function! F()"}}},
	}}
	assert.Equal(t, "function! F()\n:  set nu\n       ^\n", formatCmdline(snap))

	snap.Cmdline.Special = &cmdline.Special{Char: "^V"}
	assert.Equal(t, "function! F()\n:  set ^Vnu\n       ^\n", formatCmdline(snap))

	snap.Cmdline.Visible = false
	snap.Cmdline.BlockVisible = false
	assert.Empty(t, formatCmdline(snap))
}

func TestFormatPopupmenu(t *testing.T) {
	snap := &ui.Snapshot{CmdlinePopupmenu: popupmenu.View{
		Visible:  true,
		Host:     popupmenu.Host{Cmdline: true, Grid: popupmenu.CmdlineGrid, Col: 3},
		Items:    []popupmenu.Item{{Word: "edit", Kind: "c"}, {Word: "echo"}},
		Total:    5,
		Selected: 1,
	}}
	assert.Equal(t, "cmdline 0 3 1 2/5\n edit\tc\t\t\n>echo\t\t\t\n", formatPopupmenu(snap))
}

func TestFormatTablineFollowsShowtabline(t *testing.T) {
	snap := &ui.Snapshot{
		ShowTabline: 1,
		Tabline: tabline.View{
			Current: 2,
			Tabs:    []tabline.Tab{{Tab: 1, Name: "a.go"}},
		},
	}
	assert.Empty(t, formatTabline(snap))

	snap.ShowTabline = 2
	assert.Equal(t, "  a.go\n", formatTabline(snap))

	snap.ShowTabline = 1
	snap.Tabline.Tabs = append(snap.Tabline.Tabs, tabline.Tab{Tab: 2, Name: "b.go"})
	assert.Equal(t, "  a.go\n* b.go\n", formatTabline(snap))

	snap.ShowTabline = 0
	assert.Empty(t, formatTabline(snap))
}

func TestFormatHLRuns(t *testing.T) {
	v := &grid.View{Cells: [][]grid.Cell{
		{{Text: "a", HL: 1}, {Text: "b", HL: 1}, {Text: "c"}, {Text: "d", HL: 2}},
		{{Text: " "}, {Text: " "}},
	}}
	assert.Equal(t, "0 0 2 1\n0 3 1 2\n", formatHL(v))
}

func TestFormatPos(t *testing.T) {
	v := &grid.View{Width: 80, Height: 1, Pos: grid.Position{Kind: grid.Message, Row: 23, Scrolled: true, SepChar: "-"}}
	assert.Equal(t, "message win=0 size=80x1 at=23 scrolled=true sep=\"-\"\n", formatPos(v))

	v.Pos = grid.Position{Kind: grid.Hidden, Window: 1001}
	assert.Equal(t, "hidden win=1001 size=80x1\n", formatPos(v))
}

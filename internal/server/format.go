package server

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cptaffe/nvgrid/internal/colors"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/popupmenu"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/cptaffe/nvgrid/style"
)

// The text formats below are what the file server hands to renderers.  Each
// is line oriented with space separated fields.

// formatColors writes the defaults and then one line per highlight id in
// ascending order, with colors resolved against the defaults:
//
//	default fg=#rrggbb bg=#rrggbb sp=#rrggbb
//	<id> fg=#rrggbb bg=#rrggbb sp=#rrggbb [bold] [italic] ... [blend=N]
func formatColors(c *colors.Colors) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "default fg=%s bg=%s sp=%s\n", c.FG.Hex(), c.BG.Hex(), c.SP.Hex())
	ids := make([]int, 0, c.Len())
	c.Each(func(id int, _ colors.HlAttrs) { ids = append(ids, id) })
	sort.Ints(ids)
	for _, id := range ids {
		a := c.Get(id)
		fg, bg, sp := c.Resolve(a)
		fmt.Fprintf(&sb, "%d fg=%s bg=%s sp=%s", id, fg.Hex(), bg.Hex(), sp.Hex())
		for _, f := range []struct {
			on   bool
			name string
		}{
			{a.Bold, "bold"},
			{a.Italic, "italic"},
			{a.Reverse, "reverse"},
			{a.Strikethrough, "strikethrough"},
			{a.Underline, "underline"},
			{a.Undercurl, "undercurl"},
			{a.Underdouble, "underdouble"},
			{a.Underdotted, "underdotted"},
			{a.Underdashed, "underdashed"},
		} {
			if f.on {
				sb.WriteString(" " + f.name)
			}
		}
		if a.Blend != 0 {
			fmt.Fprintf(&sb, " blend=%d", a.Blend)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatTheme(snap *ui.Snapshot) string {
	return style.Format(snap.Theme)
}

func formatTitle(snap *ui.Snapshot) string {
	return snap.Title + "\n"
}

// formatMode is one line of key=value pairs.
func formatMode(snap *ui.Snapshot) string {
	m := snap.Mode
	return fmt.Sprintf("mode=%s index=%d grid=%d shape=%s cell=%d attr=%d blink=%d,%d,%d styled=%t busy=%t\n",
		orDash(m.Name), m.Index, m.Grid, orDash(m.Info.CursorShape), m.Info.CellPercentage,
		m.Info.AttrID, m.Info.BlinkWait, m.Info.BlinkOn, m.Info.BlinkOff,
		m.CursorStyleEnabled, snap.Busy)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatTabline prints the tabs only when the tabline is shown.
func formatTabline(snap *ui.Snapshot) string {
	visible := snap.ShowTabline == 2 || (snap.ShowTabline == 1 && len(snap.Tabline.Tabs) > 1)
	if !visible {
		return ""
	}
	return snap.Tabline.Text()
}

// formatCmdline prints the block lines followed by the active line: the
// first character or prompt, the indent, the content, and a caret line
// marking the cursor.
func formatCmdline(snap *ui.Snapshot) string {
	v := snap.Cmdline
	var sb strings.Builder
	if v.BlockVisible {
		for _, l := range v.Block {
			sb.WriteString(l.Text())
			sb.WriteByte('\n')
		}
	}
	if !v.Visible {
		return sb.String()
	}
	prefix := v.Show.Firstc + v.Show.Prompt + strings.Repeat(" ", v.Show.Indent)
	text := v.Show.Content.Text()
	pos := min(max(v.Show.Pos, 0), len(text))
	if v.Special != nil {
		text = text[:pos] + v.Special.Char + text[pos:]
	}
	sb.WriteString(prefix + text + "\n")
	sb.WriteString(strings.Repeat(" ", len(prefix)+pos) + "^\n")
	return sb.String()
}

// formatPopupmenu prints a header and one tab separated line per
// materialized item.  The selected item is marked with '>'.
//
//	<grid|cmdline> <row> <col> <selected> <materialized>/<total>
func formatPopupmenu(snap *ui.Snapshot) string {
	v := snap.Popupmenu()
	if !v.Visible {
		return ""
	}
	var sb strings.Builder
	host := strconv.Itoa(v.Host.Grid)
	if v.Host.Cmdline || v.Host.Grid == popupmenu.CmdlineGrid {
		host = "cmdline"
	}
	fmt.Fprintf(&sb, "%s %d %d %d %d/%d\n", host, v.Host.Row, v.Host.Col, v.Selected, len(v.Items), v.Total)
	for i, it := range v.Items {
		mark := " "
		if i == v.Selected {
			mark = ">"
		}
		fmt.Fprintf(&sb, "%s%s\t%s\t%s\t%s\n", mark, it.Word, it.Kind, it.Menu, it.Info)
	}
	return sb.String()
}

func formatGridText(v *grid.View) string {
	return v.Text()
}

func formatCursor(v *grid.View) string {
	return fmt.Sprintf("%d %d\n", v.CursorRow, v.CursorCol)
}

// formatPos prints the placement of a grid, with the fields that apply to
// its kind.
func formatPos(v *grid.View) string {
	p := v.Pos
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s win=%d size=%dx%d", p.Kind, p.Window, v.Width, v.Height)
	switch p.Kind {
	case grid.Tiled:
		fmt.Fprintf(&sb, " at=%g,%g", p.Row, p.Col)
	case grid.Float:
		fmt.Fprintf(&sb, " anchor=%d corner=%s at=%g,%g focusable=%t z=%d",
			p.Anchor, p.AnchorCorner, p.Row, p.Col, p.Focusable, p.ZIndex)
	case grid.Message:
		fmt.Fprintf(&sb, " at=%g scrolled=%t sep=%q", p.Row, p.Scrolled, p.SepChar)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// formatHL run-length encodes highlight ids: one "<row> <col> <n> <hl>"
// line per run of equal ids.  Runs of the default id 0 are omitted.
func formatHL(v *grid.View) string {
	var sb strings.Builder
	for r, row := range v.Cells {
		for c := 0; c < len(row); {
			hl := row[c].HL
			n := 1
			for c+n < len(row) && row[c+n].HL == hl {
				n++
			}
			if hl != 0 {
				fmt.Fprintf(&sb, "%d %d %d %d\n", r, c, n, hl)
			}
			c += n
		}
	}
	return sb.String()
}

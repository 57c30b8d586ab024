// Package style defines the wire format for nvgrid's derived theme output.
//
// A theme is a list of named PaletteEntry values, one per UI element the
// renderer draws outside the grids (popup menu, tabline, command line, ...).
// The dispatcher regenerates it whenever a flush follows a change to the
// default colors, a tracked highlight group, or the font; renderers read it
// from the theme file of the snapshot filesystem and parse it with Parse.
//
//	:pmenu fg=#c0c0c0 bg=#303030 pad=2,1
//	:pmenu_sel fg=#000000 bg=#87afff bold
package style

import (
	"fmt"
	"strconv"
	"strings"
)

// PaletteEntry is a named visual style definition.
type PaletteEntry struct {
	Name      string // e.g. "pmenu_sel"
	Font      string // "family:hN" guifont string, or ""
	FG        string // "#rrggbb", or ""
	BG        string // "#rrggbb", or ""
	SP        string // "#rrggbb", or ""
	Bold      bool
	Italic    bool
	Underline bool
	PadTop    int // extra pixels above a row
	PadBottom int // extra pixels below a row
}

// Equal reports whether e and b have identical visual properties (all fields
// except Name).
func (e PaletteEntry) Equal(b PaletteEntry) bool {
	return e.Font == b.Font &&
		e.FG == b.FG &&
		e.BG == b.BG &&
		e.SP == b.SP &&
		e.Bold == b.Bold &&
		e.Italic == b.Italic &&
		e.Underline == b.Underline &&
		e.PadTop == b.PadTop &&
		e.PadBottom == b.PadBottom
}

// Lookup returns the entry called name.
func Lookup(palette []PaletteEntry, name string) (PaletteEntry, bool) {
	for _, e := range palette {
		if e.Name == name {
			return e, true
		}
	}
	return PaletteEntry{}, false
}

// PalettesEqual reports whether two palettes have the same named entries
// with identical visual definitions (order-insensitive).
func PalettesEqual(a, b []PaletteEntry) bool {
	if len(a) != len(b) {
		return false
	}
	bm := make(map[string]PaletteEntry, len(b))
	for _, e := range b {
		bm[e.Name] = e
	}
	for _, e := range a {
		be, ok := bm[e.Name]
		if !ok || !e.Equal(be) {
			return false
		}
	}
	return true
}

// Format serialises palette entries into the wire format.
func Format(palette []PaletteEntry) string {
	var sb strings.Builder
	for _, e := range palette {
		writePaletteLine(&sb, e)
	}
	return sb.String()
}

func writePaletteLine(sb *strings.Builder, e PaletteEntry) {
	fmt.Fprintf(sb, ":%s", e.Name)
	if e.Font != "" {
		fmt.Fprintf(sb, " font=%s", strings.ReplaceAll(e.Font, " ", "_"))
	}
	if e.FG != "" {
		fmt.Fprintf(sb, " fg=%s", e.FG)
	}
	if e.BG != "" {
		fmt.Fprintf(sb, " bg=%s", e.BG)
	}
	if e.SP != "" {
		fmt.Fprintf(sb, " sp=%s", e.SP)
	}
	if e.Bold {
		sb.WriteString(" bold")
	}
	if e.Italic {
		sb.WriteString(" italic")
	}
	if e.Underline {
		sb.WriteString(" underline")
	}
	if e.PadTop != 0 || e.PadBottom != 0 {
		fmt.Fprintf(sb, " pad=%d,%d", e.PadTop, e.PadBottom)
	}
	sb.WriteByte('\n')
}

// Parse parses wire-format content back into palette entries.  Blank lines,
// '#' comments and lines that do not start with ':' are skipped.
func Parse(content string) []PaletteEntry {
	var palette []PaletteEntry
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, ":") {
			continue
		}
		if e, ok := parsePaletteLine(line[1:]); ok {
			palette = append(palette, e)
		}
	}
	return palette
}

// parsePaletteLine parses "name [prop ...]" (after the leading ':' is stripped).
func parsePaletteLine(line string) (PaletteEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return PaletteEntry{}, false
	}
	e := PaletteEntry{Name: fields[0]}
	for _, tok := range fields[1:] {
		switch {
		case tok == "bold":
			e.Bold = true
		case tok == "italic":
			e.Italic = true
		case tok == "underline":
			e.Underline = true
		case strings.HasPrefix(tok, "font="):
			e.Font = strings.ReplaceAll(tok[5:], "_", " ")
		case strings.HasPrefix(tok, "fg="):
			e.FG = tok[3:]
		case strings.HasPrefix(tok, "bg="):
			e.BG = tok[3:]
		case strings.HasPrefix(tok, "sp="):
			e.SP = tok[3:]
		case strings.HasPrefix(tok, "pad="):
			top, bottom, ok := strings.Cut(tok[4:], ",")
			if !ok {
				continue
			}
			e.PadTop, _ = strconv.Atoi(top)
			e.PadBottom, _ = strconv.Atoi(bottom)
		}
	}
	return e, true
}

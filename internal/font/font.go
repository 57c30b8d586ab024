// Package font models the guifont and linespace options and converts a
// pixel allocation into a grid size.
package font

import (
	"math"
	"strconv"
	"strings"
)

// DefaultGuifont is used until the editor sets 'guifont'.
const DefaultGuifont = "Monospace:h12"

// Font is the current font selection.
type Font struct {
	Family    string
	Size      float64 // points
	Bold      bool
	Italic    bool
	Linespace int // extra pixels between rows
}

// Default returns the font described by DefaultGuifont.
func Default() Font {
	f, _ := ParseGuifont(DefaultGuifont)
	return f
}

// ParseGuifont parses a 'guifont' value such as "Fira Code,Hack:h11:b".
// Only the first font of a comma separated list is used.  ok is false for
// an empty value, in which case the default font is returned.
func ParseGuifont(s string) (f Font, ok bool) {
	first, _, _ := strings.Cut(s, ",")
	parts := strings.Split(strings.TrimSpace(first), ":")
	if parts[0] == "" {
		return Default(), false
	}
	f = Font{Family: strings.ReplaceAll(parts[0], "_", " "), Size: 12}
	for _, opt := range parts[1:] {
		switch {
		case strings.HasPrefix(opt, "h"):
			if v, err := strconv.ParseFloat(opt[1:], 64); err == nil && v > 0 {
				f.Size = v
			}
		case opt == "b":
			f.Bold = true
		case opt == "i":
			f.Italic = true
		}
	}
	return f, true
}

// Guifont formats f in 'guifont' syntax.
func (f Font) Guifont() string {
	var sb strings.Builder
	sb.WriteString(f.Family)
	sb.WriteString(":h")
	sb.WriteString(strconv.FormatFloat(f.Size, 'f', -1, 64))
	if f.Bold {
		sb.WriteString(":b")
	}
	if f.Italic {
		sb.WriteString(":i")
	}
	return sb.String()
}

// WithLinespace returns f with a different line spacing.
func (f Font) WithLinespace(ls int) Font {
	f.Linespace = ls
	return f
}

// Metrics measures the cell size of a font in pixels.  Renderers supply a
// real implementation; Estimate is used when none is available.
type Metrics interface {
	CellSize(f Font) (width, height float64)
}

// Estimate approximates monospace metrics from the point size at 96 DPI.
type Estimate struct{}

// CellSize implements Metrics.
func (Estimate) CellSize(f Font) (width, height float64) {
	px := f.Size * 96 / 72
	return math.Ceil(px * 0.6), math.Ceil(px * 1.2)
}

// GridSize returns how many columns and rows of f fit in a w×h pixel
// allocation.  Each row is the cell height plus the linespace.  The result
// is never smaller than 1×1.
func GridSize(m Metrics, f Font, w, h int) (cols, rows int) {
	cw, ch := m.CellSize(f)
	ch += float64(f.Linespace)
	if cw <= 0 || ch <= 0 {
		return 1, 1
	}
	cols = int(math.Floor(float64(w) / cw))
	rows = int(math.Floor(float64(h) / ch))
	return max(cols, 1), max(rows, 1)
}

// Padding splits the linespace into pixels above and below a row.
func (f Font) Padding() (top, bottom int) {
	ls := max(f.Linespace, 0)
	return (ls + 1) / 2, ls / 2
}

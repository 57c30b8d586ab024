// Package colors holds the highlight attribute table and the default colors
// announced by the editor.
package colors

import (
	"maps"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit RGB value, 0xRRGGBB.
type Color uint32

// Built-in fallbacks used until the editor announces default colors, and for
// negative (unset) values in default_colors_set.
const (
	DefaultFG Color = 0xffffff
	DefaultBG Color = 0x000000
	DefaultSP Color = 0xff0000
)

// FromInt64 converts a protocol color.  ok is false for negative values,
// which the editor uses for "not set".
func FromInt64(v int64) (c Color, ok bool) {
	if v < 0 {
		return 0, false
	}
	return Color(v & 0xffffff), true
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64((c>>16)&0xff) / 255,
		G: float64((c>>8)&0xff) / 255,
		B: float64(c&0xff) / 255,
	}
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return c.colorful().Hex()
}

// Shade scales the lightness of c by factor, clamped to the RGB gamut.
func (c Color) Shade(factor float64) Color {
	h, s, l := c.colorful().Hsl()
	l *= factor
	if l > 1 {
		l = 1
	}
	r, g, b := colorful.Hsl(h, s, l).Clamped().RGB255()
	return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// HlAttrs are the RGB attributes of one highlight id.  Nil colors inherit
// the defaults.  The style flags are stored and forwarded untouched.
type HlAttrs struct {
	FG, BG, SP *Color

	Bold          bool
	Italic        bool
	Reverse       bool
	Strikethrough bool
	Underline     bool
	Undercurl     bool
	Underdouble   bool
	Underdotted   bool
	Underdashed   bool
	Blend         int
}

// HlGroup is one of the semantic highlight groups the UI draws itself.
type HlGroup int

const (
	MsgSeparator HlGroup = iota
	Pmenu
	PmenuSel
	PmenuSbar
	PmenuThumb
	TabLine
	TabLineFill
	TabLineSel
	Menu
)

var groupNames = map[string]HlGroup{
	"MsgSeparator": MsgSeparator,
	"Pmenu":        Pmenu,
	"PmenuSel":     PmenuSel,
	"PmenuSbar":    PmenuSbar,
	"PmenuThumb":   PmenuThumb,
	"TabLine":      TabLine,
	"TabLineFill":  TabLineFill,
	"TabLineSel":   TabLineSel,
	"Menu":         Menu,
}

// ParseHlGroup maps an editor highlight group name onto a tracked group.
func ParseHlGroup(name string) (HlGroup, bool) {
	g, ok := groupNames[name]
	return g, ok
}

func (g HlGroup) String() string {
	for name, v := range groupNames {
		if v == g {
			return name
		}
	}
	return "HlGroup(?)"
}

// Colors is the reconciled palette: defaults, highlight ids and group links.
type Colors struct {
	FG, BG, SP Color

	hls    map[int]HlAttrs
	groups map[HlGroup]int
}

// New returns a table holding only the built-in defaults.
func New() *Colors {
	return &Colors{
		FG:     DefaultFG,
		BG:     DefaultBG,
		SP:     DefaultSP,
		hls:    make(map[int]HlAttrs),
		groups: make(map[HlGroup]int),
	}
}

// SetDefaults applies default_colors_set.  Unset (negative) values fall back
// to the built-in defaults.
func (c *Colors) SetDefaults(fg, bg, sp int64) {
	c.FG = orDefault(fg, DefaultFG)
	c.BG = orDefault(bg, DefaultBG)
	c.SP = orDefault(sp, DefaultSP)
}

func orDefault(v int64, def Color) Color {
	if col, ok := FromInt64(v); ok {
		return col
	}
	return def
}

// Define sets or replaces the attributes of id.
func (c *Colors) Define(id int, attrs HlAttrs) {
	c.hls[id] = attrs
}

// SetGroup links a semantic group to a highlight id.
func (c *Colors) SetGroup(g HlGroup, id int) {
	c.groups[g] = id
}

// Get returns the attributes of id.  Id 0 and ids never defined resolve to
// the default (empty) attributes.
func (c *Colors) Get(id int) HlAttrs {
	return c.hls[id]
}

// Group returns the attributes linked to g, or the default attributes when
// the group was never set.
func (c *Colors) Group(g HlGroup) HlAttrs {
	id, ok := c.groups[g]
	if !ok {
		return HlAttrs{}
	}
	return c.Get(id)
}

// References reports whether any tracked group links to id.
func (c *Colors) References(id int) bool {
	for _, v := range c.groups {
		if v == id {
			return true
		}
	}
	return false
}

// Resolve returns the effective foreground, background and special colors
// of attrs, applying defaults and reverse video.
func (c *Colors) Resolve(attrs HlAttrs) (fg, bg, sp Color) {
	fg, bg, sp = c.FG, c.BG, c.SP
	if attrs.FG != nil {
		fg = *attrs.FG
	}
	if attrs.BG != nil {
		bg = *attrs.BG
	}
	if attrs.SP != nil {
		sp = *attrs.SP
	}
	if attrs.Reverse {
		fg, bg = bg, fg
	}
	return fg, bg, sp
}

// Clone returns a deep copy suitable for handing to a renderer.
func (c *Colors) Clone() *Colors {
	return &Colors{
		FG:     c.FG,
		BG:     c.BG,
		SP:     c.SP,
		hls:    maps.Clone(c.hls),
		groups: maps.Clone(c.groups),
	}
}

// Len returns the number of defined highlight ids.
func (c *Colors) Len() int {
	return len(c.hls)
}

// Each calls fn for every defined highlight id, in no particular order.
func (c *Colors) Each(fn func(id int, attrs HlAttrs)) {
	for id, a := range c.hls {
		fn(id, a)
	}
}

package ui

import (
	"github.com/cptaffe/nvgrid/internal/colors"
	"github.com/cptaffe/nvgrid/internal/font"
	"github.com/cptaffe/nvgrid/style"
)

// omnibarBorderShade darkens the menu foreground for the command-line frame.
const omnibarBorderShade = 0.8

// Theme derives the palette for UI elements drawn outside the grids from
// the default colors, the tracked highlight groups and the font.
func Theme(c *colors.Colors, f font.Font) []style.PaletteEntry {
	group := func(g colors.HlGroup) (fg, bg string) {
		fc, bc, _ := c.Resolve(c.Group(g))
		return fc.Hex(), bc.Hex()
	}
	top, bottom := f.Padding()

	msgsepFG, _ := group(colors.MsgSeparator)
	pmenuFG, pmenuBG := group(colors.Pmenu)
	selFG, selBG := group(colors.PmenuSel)
	_, sbarBG := group(colors.PmenuSbar)
	_, thumbBG := group(colors.PmenuThumb)
	tabFG, tabBG := group(colors.TabLine)
	_, fillBG := group(colors.TabLineFill)
	tabSelFG, tabSelBG := group(colors.TabLineSel)
	menuFG, menuBG := group(colors.Menu)
	menuFGColor, _, _ := c.Resolve(c.Group(colors.Menu))

	return []style.PaletteEntry{
		{Name: "app", Font: f.Guifont(), FG: c.FG.Hex(), BG: c.BG.Hex(), SP: c.SP.Hex()},
		{Name: "msgsep", FG: msgsepFG},
		{Name: "pmenu", FG: pmenuFG, BG: pmenuBG, PadTop: top, PadBottom: bottom},
		{Name: "pmenu_sel", FG: selFG, BG: selBG},
		{Name: "pmenu_sbar", BG: sbarBG},
		{Name: "pmenu_thumb", FG: thumbBG, BG: thumbBG},
		{Name: "tabline", FG: tabFG, BG: tabBG},
		{Name: "tabline_fill", BG: fillBG},
		{Name: "tabline_sel", FG: tabSelFG, BG: tabSelBG},
		{Name: "menu", FG: menuFG, BG: menuBG},
		{Name: "omnibar_border", FG: menuFGColor.Shade(omnibarBorderShade).Hex(), BG: menuBG, PadTop: top, PadBottom: bottom},
		{Name: "cmdline", FG: c.FG.Hex(), BG: c.BG.Hex()},
	}
}

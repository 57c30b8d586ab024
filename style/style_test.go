package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	got := Format([]PaletteEntry{
		{Name: "pmenu", FG: "#c0c0c0", BG: "#303030", PadTop: 2, PadBottom: 1},
		{Name: "app", Font: "Fira Code:h12", BG: "#000000", Bold: true},
	})
	assert.Equal(t,
		":pmenu fg=#c0c0c0 bg=#303030 pad=2,1\n"+
			":app font=Fira_Code:h12 bg=#000000 bold\n",
		got)
}

func TestParseRoundTrip(t *testing.T) {
	in := []PaletteEntry{
		{Name: "pmenu_sel", FG: "#000000", BG: "#87afff", Bold: true, Italic: true},
		{Name: "app", Font: "Fira Code:h12", SP: "#ff0000", Underline: true, PadBottom: 3},
	}
	out := Parse("# theme\n\n" + Format(in) + "garbage line\n")
	require.Len(t, out, 2)
	assert.Equal(t, in, out)
}

func TestPalettesEqual(t *testing.T) {
	a := []PaletteEntry{{Name: "a", FG: "#111111"}, {Name: "b", BG: "#222222"}}
	b := []PaletteEntry{{Name: "b", BG: "#222222"}, {Name: "a", FG: "#111111"}}
	assert.True(t, PalettesEqual(a, b))

	b[0].BG = "#333333"
	assert.False(t, PalettesEqual(a, b))
	assert.False(t, PalettesEqual(a, a[:1]))
}

func TestLookup(t *testing.T) {
	p := []PaletteEntry{{Name: "menu", FG: "#ffffff"}}
	e, ok := Lookup(p, "menu")
	assert.True(t, ok)
	assert.Equal(t, "#ffffff", e.FG)
	_, ok = Lookup(p, "missing")
	assert.False(t, ok)
}

package cmdline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowPosSpecialHide(t *testing.T) {
	s := New()
	assert.False(t, s.Visible())

	s.Show(Show{Content: Line{{HL: 0, Text: "e"}, {HL: 3, Text: "dit"}}, Pos: 4, Firstc: ":", Level: 1})
	require.True(t, s.Visible())
	assert.Equal(t, "edit", s.View().Show.Content.Text())

	s.SetPos(2, 1)
	s.SpecialChar("^", true, 1)
	v := s.View()
	assert.Equal(t, 2, v.Show.Pos)
	require.NotNil(t, v.Special)
	assert.Equal(t, Special{Char: "^", Shift: true, Pos: 2}, *v.Special)

	// A new show clears the special character.
	s.Show(Show{Content: Line{{Text: "edit"}}, Pos: 4, Firstc: ":", Level: 1})
	assert.Nil(t, s.View().Special)

	s.Hide()
	assert.False(t, s.Visible())
}

func TestBlock(t *testing.T) {
	s := New()
	s.BlockShow([]Line{{{Text: "function! F()"}}})
	s.BlockAppend(Line{{Text: "  return 1"}})
	s.BlockAppend(Line{{Text: "endfunction"}})

	v := s.View()
	assert.True(t, v.BlockVisible)
	require.Len(t, v.Block, 3)
	assert.Equal(t, "  return 1", v.Block[1].Text())

	// Hiding the command line keeps the block.
	s.Show(Show{Firstc: ":"})
	s.Hide()
	assert.Len(t, s.View().Block, 3)

	s.BlockHide()
	v = s.View()
	assert.False(t, v.BlockVisible)
	assert.Empty(t, v.Block)

	// A fresh block starts empty.
	s.BlockShow(nil)
	assert.Empty(t, s.View().Block)
}

func TestViewIsACopy(t *testing.T) {
	s := New()
	s.BlockShow([]Line{{{Text: "a"}}})
	v := s.View()
	s.BlockAppend(Line{{Text: "b"}})
	assert.Len(t, v.Block, 1)
}

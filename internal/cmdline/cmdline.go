// Package cmdline holds the state of the externalized command line.
package cmdline

import "strings"

// Chunk is a run of command-line text in one highlight.
type Chunk struct {
	HL   int
	Text string
}

// Line is a sequence of chunks.
type Line []Chunk

// Text returns the line without highlighting.
func (l Line) Text() string {
	var sb strings.Builder
	for _, c := range l {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// Show is the payload of cmdline_show.
type Show struct {
	Content Line
	Pos     int
	Firstc  string
	Prompt  string
	Indent  int
	Level   int
}

// Special is the character shown at the cursor while a key sequence such as
// CTRL-V is pending.
type Special struct {
	Char  string
	Shift bool
	Pos   int
}

// State is the command-line overlay.
type State struct {
	visible bool
	show    Show
	special *Special

	blockVisible bool
	block        []Line
}

// New returns a hidden command line.
func New() *State {
	return &State{}
}

// Show displays the command line, replacing its content and clearing any
// special character.
func (s *State) Show(sh Show) {
	s.visible = true
	s.show = sh
	s.special = nil
}

// SetPos moves the cursor within the prompt.
func (s *State) SetPos(pos, level int) {
	s.show.Pos = pos
	s.show.Level = level
}

// SpecialChar shows c at the cursor until the next Show.
func (s *State) SpecialChar(c string, shift bool, level int) {
	s.special = &Special{Char: c, Shift: shift, Pos: s.show.Pos}
	s.show.Level = level
}

// Hide hides the command line.  Block content is unaffected.
func (s *State) Hide() {
	s.visible = false
	s.special = nil
}

// BlockShow starts a block with the given lines.
func (s *State) BlockShow(lines []Line) {
	s.blockVisible = true
	s.block = append([]Line(nil), lines...)
}

// BlockAppend appends a line to the block.
func (s *State) BlockAppend(line Line) {
	s.block = append(s.block, line)
}

// BlockHide hides the block and clears its lines.
func (s *State) BlockHide() {
	s.blockVisible = false
	s.block = nil
}

// Visible reports whether the command line is shown.
func (s *State) Visible() bool {
	return s.visible
}

// View is a renderer copy of the command line.
type View struct {
	Visible      bool
	Show         Show
	Special      *Special
	BlockVisible bool
	Block        []Line
}

// View returns a copy of the current state.
func (s *State) View() View {
	v := View{
		Visible:      s.visible,
		Show:         s.show,
		BlockVisible: s.blockVisible,
		Block:        append([]Line(nil), s.block...),
	}
	v.Show.Content = append(Line(nil), s.show.Content...)
	if s.special != nil {
		sp := *s.special
		v.Special = &sp
	}
	return v
}

// Package tabline holds the externalized tabline.  Updates are staged and
// become visible on Flush.
package tabline

import "github.com/neovim/go-client/nvim"

// Tab is one tab page entry.
type Tab struct {
	Tab  nvim.Tabpage
	Name string
}

// Buffer is one buffer entry.
type Buffer struct {
	Buffer nvim.Buffer
	Name   string
}

// View is a flushed tabline.
type View struct {
	Current nvim.Tabpage
	Tabs    []Tab
	CurBuf  nvim.Buffer
	Buffers []Buffer
}

// Text renders the tabline one tab per line, the current tab marked with
// '*'.
func (v View) Text() string {
	var b []byte
	for _, t := range v.Tabs {
		if t.Tab == v.Current {
			b = append(b, '*')
		} else {
			b = append(b, ' ')
		}
		b = append(b, ' ')
		b = append(b, t.Name...)
		b = append(b, '\n')
	}
	return string(b)
}

// State is the staged and flushed tabline.
type State struct {
	pending *View
	flushed View
}

// New returns an empty tabline.
func New() *State {
	return &State{}
}

// Update stages a tabline_update.
func (s *State) Update(cur nvim.Tabpage, tabs []Tab, curbuf nvim.Buffer, buffers []Buffer) {
	s.pending = &View{
		Current: cur,
		Tabs:    append([]Tab(nil), tabs...),
		CurBuf:  curbuf,
		Buffers: append([]Buffer(nil), buffers...),
	}
}

// Flush publishes the staged update, if any, and reports whether one was
// published.
func (s *State) Flush() bool {
	if s.pending == nil {
		return false
	}
	s.flushed = *s.pending
	s.pending = nil
	return true
}

// View returns the last flushed tabline.
func (s *State) View() View {
	return s.flushed
}

// Package popupmenu implements the completion menu: a show/select/hide state
// machine per host and a lazily materialized item list.
package popupmenu

// CmdlineGrid is the anchor grid id the editor uses for a menu that belongs
// to the command line.
const CmdlineGrid = -1

// DefaultBatch is how many items are materialized per tick.
const DefaultBatch = 40

// Item is one completion candidate.
type Item struct {
	Word string
	Kind string
	Menu string
	Info string
}

// Model holds the declared items of a menu and exposes them in batches.
// Items move from pending to materialized, Batch at a time, so a renderer
// never has to build rows for a whole large list in one frame.
type Model struct {
	Batch int

	pending  []Item
	items    []Item
	selected int
}

// NewModel returns an empty model that materializes batch items per tick.
func NewModel(batch int) *Model {
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Model{Batch: batch, selected: -1}
}

// SetItems replaces the item list.  The first batch is materialized
// immediately; the rest waits for Tick.
func (m *Model) SetItems(items []Item) {
	m.items = nil
	m.pending = append([]Item(nil), items...)
	m.Tick()
}

// Tick materializes up to one batch of pending items and reports whether
// more remain.
func (m *Model) Tick() bool {
	n := min(m.Batch, len(m.pending))
	m.items = append(m.items, m.pending[:n]...)
	m.pending = m.pending[n:]
	return len(m.pending) > 0
}

// Pending reports whether items are waiting to be materialized.
func (m *Model) Pending() bool {
	return len(m.pending) > 0
}

// Items returns the materialized items.
func (m *Model) Items() []Item {
	return m.items
}

// Total returns the number of declared items, materialized or not.
func (m *Model) Total() int {
	return len(m.items) + len(m.pending)
}

// Select sets the selected index.  Indexes outside the declared list clear
// the selection.
func (m *Model) Select(i int) {
	if i < 0 || i >= m.Total() {
		m.selected = -1
		return
	}
	m.selected = i
}

// Selected returns the selected index, or -1.  The index refers to the
// declared list and may point past the materialized items.
func (m *Model) Selected() int {
	return m.selected
}

// Host identifies where a menu is drawn.
type Host struct {
	Cmdline bool
	Grid    int
	Row     int
	Col     int
}

// Menu is one popup menu instance.
type Menu struct {
	visible bool
	host    Host
	model   *Model
	gen     uint64
}

// NewMenu returns a hidden menu.
func NewMenu(batch int) *Menu {
	return &Menu{model: NewModel(batch)}
}

// Show replaces the items and makes the menu visible.
func (m *Menu) Show(items []Item, selected int, host Host) {
	m.model.SetItems(items)
	m.model.Select(selected)
	m.host = host
	m.visible = true
	m.gen++
}

// Select changes the selection.  It is a no-op while hidden.
func (m *Menu) Select(i int) {
	if !m.visible {
		return
	}
	m.model.Select(i)
	m.gen++
}

// Hide hides the menu and drops its items.
func (m *Menu) Hide() {
	m.visible = false
	m.model.SetItems(nil)
	m.model.Select(-1)
	m.gen++
}

// Generation counts show, select and hide calls.  Materializing items does
// not change it.
func (m *Menu) Generation() uint64 {
	return m.gen
}

// Visible reports whether the menu is shown.
func (m *Menu) Visible() bool {
	return m.visible
}

// Model returns the item model.
func (m *Menu) Model() *Model {
	return m.model
}

// View is a renderer copy of a menu.
type View struct {
	Visible  bool
	Host     Host
	Items    []Item
	Total    int
	Selected int
}

// View returns a copy of the menu's current state.
func (m *Menu) View() View {
	return View{
		Visible:  m.visible,
		Host:     m.host,
		Items:    append([]Item(nil), m.model.Items()...),
		Total:    m.model.Total(),
		Selected: m.model.Selected(),
	}
}

// Router owns the grid-anchored menu and the command-line menu.  At most one
// is visible; select and hide go to the command-line menu whenever it is
// visible, regardless of the grid id in the event.
type Router struct {
	Grid    *Menu
	Cmdline *Menu
}

// NewRouter returns a router with two hidden menus.
func NewRouter(batch int) *Router {
	return &Router{Grid: NewMenu(batch), Cmdline: NewMenu(batch)}
}

// Show routes popupmenu_show by anchor grid.
func (r *Router) Show(items []Item, selected, row, col, grid int) {
	if grid == CmdlineGrid {
		r.Grid.Hide()
		r.Cmdline.Show(items, selected, Host{Cmdline: true, Grid: grid, Row: row, Col: col})
		return
	}
	r.Cmdline.Hide()
	r.Grid.Show(items, selected, Host{Grid: grid, Row: row, Col: col})
}

// Select routes popupmenu_select to the active menu.
func (r *Router) Select(i int) {
	r.Active().Select(i)
}

// Hide routes popupmenu_hide to the active menu.
func (r *Router) Hide() {
	r.Active().Hide()
}

// Active returns the command-line menu if it is visible, else the grid menu.
func (r *Router) Active() *Menu {
	if r.Cmdline.Visible() {
		return r.Cmdline
	}
	return r.Grid
}

// Pending reports whether either menu has items left to materialize.
func (r *Router) Pending() bool {
	return r.Grid.model.Pending() || r.Cmdline.model.Pending()
}

// Tick materializes one batch on each menu with pending items and reports
// whether any remain.
func (r *Router) Tick() bool {
	more := false
	for _, m := range []*Menu{r.Grid, r.Cmdline} {
		if m.model.Pending() && m.model.Tick() {
			more = true
		}
	}
	return more
}

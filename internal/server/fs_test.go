package server

import (
	"context"
	"net"
	"sort"
	"strings"
	"testing"
	"time"

	"9fans.net/go/plan9"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// p9 is a minimal 9P client speaking raw fcalls to a Server.
type p9 struct {
	t   *testing.T
	c   net.Conn
	tag uint16
}

func mount(t *testing.T, h *harness) *p9 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := NewServer(ctx, h.sess)
	sc, cc := net.Pipe()
	srv.ServeConn(sc)
	t.Cleanup(func() {
		cc.Close()
		srv.Wait()
	})

	p := &p9{t: t, c: cc}
	r := p.rpc(&plan9.Fcall{Type: plan9.Tversion, Msize: 8192 + plan9.IOHDRSZ, Version: "9P2000"})
	require.Equal(t, uint8(plan9.Rversion), r.Type)
	require.Equal(t, "9P2000", r.Version)
	r = p.rpc(&plan9.Fcall{Type: plan9.Tattach, Fid: 0, Afid: plan9.NOFID, Uname: "none"})
	require.Equal(t, uint8(plan9.Rattach), r.Type)
	return p
}

func (p *p9) rpc(fc *plan9.Fcall) *plan9.Fcall {
	p.t.Helper()
	fc.Tag = p.tag
	p.tag++
	require.NoError(p.t, p.c.SetDeadline(time.Now().Add(waitFor)))
	require.NoError(p.t, plan9.WriteFcall(p.c, fc))
	r, err := plan9.ReadFcall(p.c)
	require.NoError(p.t, err)
	require.Equal(p.t, fc.Tag, r.Tag)
	return r
}

// open walks fid 1 to path and opens it.  It returns the Rerror message on
// failure.
func (p *p9) open(path string, mode uint8) string {
	p.t.Helper()
	var names []string
	if path != "" {
		names = strings.Split(path, "/")
	}
	r := p.rpc(&plan9.Fcall{Type: plan9.Twalk, Fid: 0, Newfid: 1, Wname: names})
	if r.Type == plan9.Rerror {
		return r.Ename
	}
	if len(r.Wqid) != len(names) {
		return "walk incomplete"
	}
	r = p.rpc(&plan9.Fcall{Type: plan9.Topen, Fid: 1, Mode: mode})
	if r.Type == plan9.Rerror {
		p.clunk()
		return r.Ename
	}
	return ""
}

func (p *p9) clunk() {
	p.t.Helper()
	p.rpc(&plan9.Fcall{Type: plan9.Tclunk, Fid: 1})
}

func (p *p9) readBytes(path string) []byte {
	p.t.Helper()
	require.Empty(p.t, p.open(path, plan9.OREAD))
	defer p.clunk()
	var out []byte
	for {
		r := p.rpc(&plan9.Fcall{Type: plan9.Tread, Fid: 1, Offset: uint64(len(out)), Count: 100})
		require.Equal(p.t, uint8(plan9.Rread), r.Type, r.Ename)
		if len(r.Data) == 0 {
			return out
		}
		out = append(out, r.Data...)
	}
}

func (p *p9) read(path string) string {
	p.t.Helper()
	return string(p.readBytes(path))
}

func (p *p9) write(path, data string) string {
	p.t.Helper()
	if msg := p.open(path, plan9.OWRITE); msg != "" {
		return msg
	}
	defer p.clunk()
	r := p.rpc(&plan9.Fcall{Type: plan9.Twrite, Fid: 1, Data: []byte(data)})
	if r.Type == plan9.Rerror {
		return r.Ename
	}
	return ""
}

func (p *p9) ls(path string) []string {
	p.t.Helper()
	b := p.readBytes(path)
	var names []string
	for len(b) >= 2 {
		n := int(b[0]) | int(b[1])<<8 + 2
		d, err := plan9.UnmarshalDir(b[:n])
		require.NoError(p.t, err)
		names = append(names, d.Name)
		b = b[n:]
	}
	sort.Strings(names)
	return names
}

func withGrid(t *testing.T) *harness {
	t.Helper()
	h := start(t, Options{})
	h.redraw(t,
		a("set_title", a("main.go")),
		a("hl_attr_define", a(3, map[string]interface{}{"foreground": 0xff0000, "bold": true}, map[string]interface{}{}, a())),
		a("grid_resize", a(1, 6, 2)),
		a("grid_line", a(1, 0, 0, a(a("a"), a("b", 3, 2), a("c", 0)))),
		a("grid_cursor_goto", a(1, 0, 4)),
		a("grid_resize", a(4, 3, 1)),
		a("win_float_pos", a(4, 1000, "NW", 1, 1.0, 2.0, true, 50)),
		flush(),
	)
	h.wait(t, func(s *ui.Snapshot) bool { return s.Grid(4) != nil })
	return h
}

func TestFSRootListing(t *testing.T) {
	p := mount(t, withGrid(t))
	assert.Equal(t, []string{
		"cmdline", "colors", "ctl", "grids", "input", "mode",
		"popupmenu", "tabline", "theme", "title",
	}, p.ls(""))
	assert.Equal(t, []string{"1", "4"}, p.ls("grids"))
	assert.Equal(t, []string{"cursor", "hl", "pos", "text"}, p.ls("grids/1"))
}

func TestFSDirReadsWholeEntries(t *testing.T) {
	p := mount(t, withGrid(t))
	require.Empty(t, p.open("", plan9.OREAD))
	defer p.clunk()

	// Room for one entry and a half: only the whole entry comes back.
	r := p.rpc(&plan9.Fcall{Type: plan9.Tread, Fid: 1, Offset: 0, Count: 100})
	require.Equal(t, uint8(plan9.Rread), r.Type, r.Ename)
	n := int(r.Data[0]) | int(r.Data[1])<<8 + 2
	require.Len(t, r.Data, n)
	_, err := plan9.UnmarshalDir(r.Data)
	require.NoError(t, err)

	r = p.rpc(&plan9.Fcall{Type: plan9.Tread, Fid: 1, Offset: uint64(n), Count: 10})
	assert.Equal(t, uint8(plan9.Rerror), r.Type)
	assert.Equal(t, "read count too small", r.Ename)
}

func TestFSGridFiles(t *testing.T) {
	p := mount(t, withGrid(t))
	assert.Equal(t, "abbc  \n      \n", p.read("grids/1/text"))
	assert.Equal(t, "0 4\n", p.read("grids/1/cursor"))
	assert.Equal(t, "0 1 2 3\n", p.read("grids/1/hl"))
	assert.Equal(t, "tiled win=0 size=6x2 at=0,0\n", p.read("grids/1/pos"))
	assert.Equal(t, "float win=1000 size=3x1 anchor=1 corner=NW at=1,2 focusable=true z=50\n", p.read("grids/4/pos"))
}

func TestFSGlobalFiles(t *testing.T) {
	p := mount(t, withGrid(t))
	assert.Equal(t, "main.go\n", p.read("title"))

	colors := strings.Split(p.read("colors"), "\n")
	require.GreaterOrEqual(t, len(colors), 2)
	assert.True(t, strings.HasPrefix(colors[0], "default fg="))
	assert.True(t, strings.HasPrefix(colors[1], "3 fg=#ff0000 "), colors[1])
	assert.True(t, strings.HasSuffix(colors[1], " bold"), colors[1])

	assert.Contains(t, p.read("theme"), ":app ")
	assert.Contains(t, p.read("mode"), "grid=1 ")
	assert.Empty(t, p.read("tabline"))
	assert.Empty(t, p.read("popupmenu"))
	assert.Contains(t, p.read("ctl"), "seq 1\n")
}

func TestFSWalkErrors(t *testing.T) {
	p := mount(t, withGrid(t))
	assert.Equal(t, "walk incomplete", p.open("grids/9", plan9.OREAD))
	assert.Equal(t, ErrNoFile.Error(), p.open("nope", plan9.OREAD))
	assert.Equal(t, "permission denied", p.open("title", plan9.OWRITE))
	assert.Equal(t, "permission denied", p.open("input", plan9.OREAD))
	assert.Equal(t, "is a directory", p.open("grids", plan9.OWRITE))
}

func TestFSCtlResize(t *testing.T) {
	h := withGrid(t)
	p := mount(t, h)
	assert.Empty(t, p.write("ctl", "resize 1000 600\n"))
	require.Eventually(t, func() bool {
		return len(h.ed.Requests("nvim_ui_try_resize_grid")) == 1
	}, waitFor, time.Millisecond)
	assert.Contains(t, p.read("ctl"), "allocation 1000 600\n")

	assert.Contains(t, p.write("ctl", "resize ten 600\n"), "bad size")
	assert.Contains(t, p.write("ctl", "explode\n"), "unknown ctl command")
}

func TestFSInput(t *testing.T) {
	h := withGrid(t)
	h.ed.Handle("nvim_input", func([]interface{}) (interface{}, error) { return int64(6), nil })
	p := mount(t, h)
	assert.Empty(t, p.write("input", "<C-w>v"))
	reqs := h.ed.Requests("nvim_input")
	require.Len(t, reqs, 1)
	assert.Equal(t, "<C-w>v", reqs[0].Args[0])
}

func TestFSReadIsOneSnapshot(t *testing.T) {
	h := withGrid(t)
	p := mount(t, h)
	require.Empty(t, p.open("grids/1/text", plan9.OREAD))
	defer p.clunk()

	h.redraw(t, a("grid_line", a(1, 0, 0, a(a("z", 0, 6)))), flush())
	h.wait(t, func(s *ui.Snapshot) bool { return s.Seq == 2 })

	r := p.rpc(&plan9.Fcall{Type: plan9.Tread, Fid: 1, Offset: 0, Count: 100})
	assert.Equal(t, "abbc  \n      \n", string(r.Data))
}

package gridfs_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/cptaffe/nvgrid/gridfs"
	"github.com/cptaffe/nvgrid/internal/rpc"
	"github.com/cptaffe/nvgrid/internal/rpc/rpctest"
	"github.com/cptaffe/nvgrid/internal/server"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func a(v ...interface{}) []interface{} { return v }

// serve runs a session against a fake editor, draws two grids and serves
// the tree on a unix socket.
func serve(t *testing.T) (*rpctest.Editor, *server.Session, string) {
	t.Helper()
	ed, pc := rpctest.New(t)
	ed.Handle("nvim_input", func(args []interface{}) (interface{}, error) { return int64(1), nil })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sess := server.NewSession(ctx, rpc.NewConn(pc), server.Options{Debounce: time.Millisecond})
	go sess.Run() //nolint:errcheck

	require.NoError(t, ed.Redraw(
		a("grid_resize", a(1, 4, 2)),
		a("grid_line", a(1, 1, 0, a(a("o", 0), a("k")))),
		a("grid_cursor_goto", a(1, 1, 2)),
		a("grid_resize", a(3, 2, 1)),
		a("flush", a()),
	))
	wctx, wcancel := context.WithTimeout(ctx, 2*time.Second)
	defer wcancel()
	_, err := sess.WaitSnapshot(wctx, func(s *ui.Snapshot) bool { return s.Grid(3) != nil })
	require.NoError(t, err)

	addr := filepath.Join(t.TempDir(), "nvgrid")
	ln, err := net.Listen("unix", addr)
	require.NoError(t, err)
	srv := server.NewServer(ctx, sess)
	go srv.Serve(ln) //nolint:errcheck
	return ed, sess, addr
}

func TestClient(t *testing.T) {
	ed, sess, addr := serve(t)
	c, err := gridfs.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	ids, err := c.Grids()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)

	text, err := c.GridText(1)
	require.NoError(t, err)
	assert.Equal(t, "    \nok  \n", text)

	row, col, err := c.Cursor(1)
	require.NoError(t, err)
	assert.Equal(t, 1, row)
	assert.Equal(t, 2, col)

	require.NoError(t, c.Input("<Esc>"))
	reqs := ed.Requests("nvim_input")
	require.Len(t, reqs, 1)
	assert.Equal(t, "<Esc>", reqs[0].Args[0])

	require.NoError(t, c.Resize(400, 200))
	require.Eventually(t, func() bool {
		return len(ed.Requests("nvim_ui_try_resize_grid")) == 1
	}, 2*time.Second, time.Millisecond)

	_, err = c.GridText(9)
	assert.Error(t, err)

	require.NoError(t, c.Quit())
	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session still running after quit")
	}
}

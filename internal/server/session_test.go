package server

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cptaffe/nvgrid/internal/font"
	"github.com/cptaffe/nvgrid/internal/rpc"
	"github.com/cptaffe/nvgrid/internal/rpc/rpctest"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/cptaffe/nvgrid/internal/uievent"
	"github.com/cptaffe/nvgrid/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const waitFor = 2 * time.Second

type harness struct {
	sess *Session
	ed   *rpctest.Editor
	errc chan error
	logs *observer.ObservedLogs
}

// start runs a session against a fake editor and waits for it to attach.
func start(t *testing.T, opts Options) *harness {
	t.Helper()
	ed, pc := rpctest.New(t)
	core, logs := observer.New(zap.DebugLevel)
	ctx, cancel := context.WithCancel(logger.NewContext(context.Background(), zap.New(core)))
	t.Cleanup(cancel)

	if opts.Font.Family == "" {
		opts.Font = font.Default()
	}
	h := &harness{
		sess: NewSession(ctx, rpc.NewConn(pc), opts),
		ed:   ed,
		errc: make(chan error, 1),
		logs: logs,
	}
	go func() { h.errc <- h.sess.Run() }()
	require.Eventually(t, func() bool {
		return len(ed.Requests("nvim_ui_attach")) == 1
	}, waitFor, time.Millisecond)
	return h
}

func (h *harness) redraw(t *testing.T, batches ...[]interface{}) {
	t.Helper()
	require.NoError(t, h.ed.Redraw(batches...))
}

func (h *harness) wait(t *testing.T, ok func(*ui.Snapshot) bool) *ui.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	snap, err := h.sess.WaitSnapshot(ctx, ok)
	require.NoError(t, err)
	return snap
}

func a(v ...interface{}) []interface{} { return v }

func flush() []interface{} { return a("flush", a()) }

func toInts(t *testing.T, args []interface{}) []int {
	t.Helper()
	out := make([]int, len(args))
	for i, v := range args {
		n, err := uievent.ToInt(v)
		require.NoError(t, err)
		out[i] = n
	}
	return out
}

func TestAttachSequence(t *testing.T) {
	h := start(t, Options{Cols: 100, Rows: 40, Attach: rpc.DefaultAttachOptions()})

	info := h.ed.Requests("nvim_set_client_info")
	require.Len(t, info, 1)
	assert.Equal(t, ClientName, info[0].Args[0])

	attach := h.ed.Requests("nvim_ui_attach")
	require.Len(t, attach, 1)
	assert.Equal(t, []int{100, 40}, toInts(t, attach[0].Args[:2]))
	opts, err := uievent.ToMap(attach[0].Args[2])
	require.NoError(t, err)
	assert.Equal(t, true, opts["ext_linegrid"])
	assert.Equal(t, true, opts["ext_multigrid"])
}

func TestAttachFailureEndsSession(t *testing.T) {
	ed, pc := rpctest.New(t)
	ed.Handle("nvim_ui_attach", func([]interface{}) (interface{}, error) {
		return nil, errors.New("UI already attached")
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess := NewSession(ctx, rpc.NewConn(pc), Options{})

	err := sess.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UI already attached")
}

func TestRedrawPublishesAtFlush(t *testing.T) {
	h := start(t, Options{})
	h.redraw(t,
		a("grid_resize", a(1, 5, 2)),
		a("grid_line", a(1, 0, 0, a(a("h", 0), a("i")))),
		a("grid_cursor_goto", a(1, 1, 3)),
		flush(),
	)
	snap := h.wait(t, func(s *ui.Snapshot) bool { return s.Grid(1) != nil && s.Grid(1).Width == 5 })
	v := snap.Grid(1)
	assert.Equal(t, "hi   \n     \n", v.Text())
	assert.Equal(t, 1, v.CursorRow)
	assert.Equal(t, 3, v.CursorCol)
}

func TestNothingPublishedBeforeFlush(t *testing.T) {
	h := start(t, Options{})
	h.redraw(t, a("grid_resize", a(1, 5, 2)))
	h.redraw(t, a("set_title", a("before")))
	// The session processes batches in order, so once the second flush is
	// visible the first batch has been applied without publishing.
	h.redraw(t, flush())
	snap := h.wait(t, func(*ui.Snapshot) bool { return true })
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, "before", snap.Title)
}

// TestResizeDebounced checks that geometry changes inside the debounce
// window reach the editor as a single resize with the final size.
func TestResizeDebounced(t *testing.T) {
	h := start(t, Options{Cols: 80, Rows: 25, Debounce: 50 * time.Millisecond})
	h.redraw(t, a("option_set", a("linespace", 2)), flush())
	h.redraw(t, a("option_set", a("linespace", 4)), flush())

	require.Eventually(t, func() bool {
		return len(h.ed.Requests("nvim_ui_try_resize_grid")) > 0
	}, waitFor, time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	reqs := h.ed.Requests("nvim_ui_try_resize_grid")
	require.Len(t, reqs, 1)
	// Estimate metrics for 12pt: 10x20 cells, 800x500 pixels.  Rows of
	// 20+4 pixels leave 20 rows.
	assert.Equal(t, []int{1, 80, 20}, toInts(t, reqs[0].Args))
}

func TestAllocationResizeDebounced(t *testing.T) {
	h := start(t, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, h.sess.Resize(1000, 600))
	require.NoError(t, h.sess.Resize(1200, 800))

	require.Eventually(t, func() bool {
		return len(h.ed.Requests("nvim_ui_try_resize_grid")) > 0
	}, waitFor, time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	reqs := h.ed.Requests("nvim_ui_try_resize_grid")
	require.Len(t, reqs, 1)
	assert.Equal(t, []int{1, 120, 40}, toInts(t, reqs[0].Args))

	w, ht := h.sess.Allocation()
	assert.Equal(t, 1200, w)
	assert.Equal(t, 800, ht)
}

func TestResizeRejectsEmptyAllocation(t *testing.T) {
	h := start(t, Options{})
	assert.Error(t, h.sess.Resize(0, 100))
}

func TestResizeFailureEndsSession(t *testing.T) {
	h := start(t, Options{Debounce: time.Millisecond})
	h.ed.Handle("nvim_ui_try_resize_grid", func([]interface{}) (interface{}, error) {
		return nil, errors.New("no such grid")
	})
	require.NoError(t, h.sess.Resize(500, 500))

	select {
	case err := <-h.errc:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resize")
	case <-time.After(waitFor):
		t.Fatal("session did not end")
	}
}

func TestEchoRepeatFailureIsLogged(t *testing.T) {
	h := start(t, Options{})
	h.ed.Handle("nvim_echo", func([]interface{}) (interface{}, error) {
		return nil, errors.New("E5555: nope")
	})
	require.NoError(t, h.ed.Notify(uievent.ExtChannel, a("echo_repeat", "hi", 3)))

	require.Eventually(t, func() bool {
		return h.logs.FilterMessage("echo").FilterLevelExact(zap.WarnLevel).Len() == 1
	}, waitFor, time.Millisecond)

	reqs := h.ed.Requests("nvim_echo")
	require.Len(t, reqs, 1)
	chunks, err := uievent.ToArray(reqs[0].Args[0])
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	// The session keeps running.
	h.redraw(t, a("set_title", a("still here")), flush())
	snap := h.wait(t, func(s *ui.Snapshot) bool { return s.Title == "still here" })
	assert.NotNil(t, snap)
}

func TestOversizedEchoRepeatIsSkipped(t *testing.T) {
	h := start(t, Options{})
	require.NoError(t, h.ed.Notify(uievent.ExtChannel, a("echo_repeat", "x", int64(1)<<62)))
	require.Eventually(t, func() bool {
		return h.logs.FilterMessage("bad extension record").Len() == 1
	}, waitFor, time.Millisecond)
	assert.Empty(t, h.ed.Requests("nvim_echo"))

	h.redraw(t, a("set_title", a("alive")), flush())
	h.wait(t, func(s *ui.Snapshot) bool { return s.Title == "alive" })
}

func TestExtensionRecordsPublish(t *testing.T) {
	h := start(t, Options{})
	h.redraw(t, flush())
	require.NoError(t, h.ed.Notify(uievent.ExtChannel, a("debugger"), a("scroll_transition", 120.0)))
	snap := h.wait(t, func(s *ui.Snapshot) bool { return s.Animations.Scroll == 120 })
	assert.True(t, snap.Debug)
}

func TestProtocolErrorEndsSession(t *testing.T) {
	h := start(t, Options{})
	h.redraw(t, a("grid_line", a(7, 0, 0, a(a("x")))), flush())

	select {
	case err := <-h.errc:
		var perr *ui.ProtocolError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "grid_line", perr.Event)
	case <-time.After(waitFor):
		t.Fatal("session did not end")
	}
}

func TestEditorExitEndsSession(t *testing.T) {
	h := start(t, Options{})
	require.NoError(t, h.ed.Close())

	select {
	case err := <-h.errc:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("session did not end")
	}
}

func TestInputForwarded(t *testing.T) {
	h := start(t, Options{})
	h.ed.Handle("nvim_input", func(args []interface{}) (interface{}, error) {
		s, _ := uievent.ToString(args[0])
		return int64(len(s)), nil
	})

	n, err := h.sess.Input(context.Background(), "ihi<Esc>")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	reqs := h.ed.Requests("nvim_input")
	require.Len(t, reqs, 1)
	assert.Equal(t, "ihi<Esc>", reqs[0].Args[0])
}

func TestPopupmenuMaterializedWhenIdle(t *testing.T) {
	h := start(t, Options{PopupmenuBatch: 10})
	items := make([]interface{}, 95)
	for i := range items {
		items[i] = a(fmt.Sprintf("item%d", i), "", "", "")
	}
	h.redraw(t,
		a("grid_resize", a(1, 20, 5)),
		a("popupmenu_show", a(items, 0, 1, 1, 1)),
		flush(),
	)
	snap := h.wait(t, func(s *ui.Snapshot) bool { return len(s.GridPopupmenu.Items) == 95 })
	pm := snap.Popupmenu()
	assert.True(t, pm.Visible)
	assert.Equal(t, 95, pm.Total)
	assert.Equal(t, "item94", pm.Items[94].Word)
}

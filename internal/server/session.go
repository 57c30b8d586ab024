package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cptaffe/nvgrid/internal/font"
	"github.com/cptaffe/nvgrid/internal/grid"
	"github.com/cptaffe/nvgrid/internal/rpc"
	"github.com/cptaffe/nvgrid/internal/ui"
	"github.com/cptaffe/nvgrid/internal/uievent"
	"github.com/cptaffe/nvgrid/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long a resize request waits for a newer one before
// it is sent to the editor.
const DefaultDebounce = 10 * time.Millisecond

// callTimeout is the maximum time call() will wait for the session goroutine
// to process a closure.
const callTimeout = 5 * time.Second

// ClientName is reported to the editor in nvim_set_client_info.
const ClientName = "nvgrid"

// ClientVersion is reported alongside ClientName.
var ClientVersion = rpc.Version{Major: 0, Minor: 1}

// Options configures a Session.
type Options struct {
	// Cols and Rows are the size requested at attach.
	Cols, Rows int
	Font       font.Font
	Metrics    font.Metrics
	// Debounce defaults to DefaultDebounce.
	Debounce       time.Duration
	PopupmenuBatch int
	Attach         rpc.AttachOptions
}

type gridSize struct{ cols, rows int }

// Session is the actor for one attached editor.
//
// ctx, cancel, cmdCh, conn, g and opts are set once at construction and may
// be read from any goroutine.  snap and changed are guarded by mu.  The
// remaining fields are owned by run().
type Session struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	cmdCh  chan func(*Session)
	conn   *rpc.Conn
	g      *errgroup.Group
	opts   Options

	mu      sync.Mutex
	snap    *ui.Snapshot
	changed chan struct{}

	// Owned by run().
	disp        *ui.Dispatcher
	resizeTimer *time.Timer
	resize      *gridSize
	err         error
}

// NewSession returns a session over conn.  Nothing is sent to the editor
// until Run.
func NewSession(ctx context.Context, conn *rpc.Conn, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Cols <= 0 || opts.Rows <= 0 {
		opts.Cols, opts.Rows = 80, 24
	}
	sctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(sctx)
	s := &Session{
		parent:  ctx,
		ctx:     gctx,
		cancel:  cancel,
		cmdCh:   make(chan func(*Session), 64),
		conn:    conn,
		g:       g,
		opts:    opts,
		changed: make(chan struct{}),
	}
	s.disp = ui.New(ui.Config{
		Cols:           opts.Cols,
		Rows:           opts.Rows,
		Font:           opts.Font,
		Metrics:        opts.Metrics,
		PopupmenuBatch: opts.PopupmenuBatch,
	}, ui.Hooks{
		Publish: s.publish,
		Resize:  s.requestResize,
	})
	return s
}

// Run attaches to the editor and processes its events until the editor
// exits, a fatal error occurs, or the parent context is cancelled.  An
// editor exit or a cancelled parent is not an error.
func (s *Session) Run() error {
	defer s.cancel()
	s.g.Go(func() error { return s.conn.Serve(s.ctx, s.handle) })
	s.g.Go(func() error { return s.run(s.ctx) })
	s.g.Go(func() error { return s.attach(s.ctx) })
	err := s.g.Wait()
	switch {
	case s.parent.Err() != nil:
		return nil
	case errors.Is(err, rpc.ErrClosed):
		logger.L(s.parent).Info("editor exited")
		return nil
	}
	return err
}

// Stop cancels the session.
func (s *Session) Stop() {
	s.cancel()
}

// Done is closed once the session is shutting down.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// submit enqueues fn to run in the session goroutine.  fn is dropped if the
// session is shutting down.
func (s *Session) submit(fn func(*Session)) {
	select {
	case s.cmdCh <- fn:
	case <-s.ctx.Done():
	}
}

// call enqueues fn and blocks until it has run, the session ends or
// callTimeout elapses.
func (s *Session) call(fn func(*Session)) bool {
	done := make(chan struct{})
	s.submit(func(s *Session) {
		fn(s)
		close(done)
	})
	select {
	case <-done:
		return true
	case <-s.ctx.Done():
		return false
	case <-time.After(callTimeout):
		logger.L(s.ctx).Warn("call timed out; session goroutine unresponsive")
		return false
	}
}

func (s *Session) attach(ctx context.Context) error {
	log := logger.L(ctx)
	if err := s.conn.SetClientInfo(ctx, ClientName, ClientVersion); err != nil {
		return fmt.Errorf("set client info: %w", err)
	}
	log.Debug("attaching", zap.Int("cols", s.opts.Cols), zap.Int("rows", s.opts.Rows))
	if err := s.conn.AttachUI(ctx, s.opts.Cols, s.opts.Rows, s.opts.Attach); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	log.Info("attached")
	return nil
}

// handle runs on the connection's read goroutine.  Decoded batches are
// handed to the session goroutine in arrival order.
func (s *Session) handle(ctx context.Context, n rpc.Notification) error {
	switch n.Method {
	case "redraw":
		events, err := uievent.DecodeRedraw(n.Params)
		if err != nil {
			return fmt.Errorf("redraw: %w", err)
		}
		s.submit(func(s *Session) { s.applyRedraw(events) })
	case uievent.ExtChannel:
		events, errs := uievent.DecodeExt(n.Params)
		for _, err := range errs {
			logger.L(ctx).Warn("bad extension record", zap.Error(err))
		}
		s.submit(func(s *Session) { s.applyExt(events) })
	default:
		logger.L(ctx).Debug("ignoring notification", zap.String("method", n.Method))
	}
	return nil
}

// run is the session goroutine.  It owns the dispatcher and the resize
// timer.
func (s *Session) run(ctx context.Context) error {
	log := logger.L(ctx)
	s.resizeTimer = time.NewTimer(s.opts.Debounce)
	s.resizeTimer.Stop()
	defer s.resizeTimer.Stop()

	ready := make(chan struct{})
	close(ready)

	for {
		// Popup menu items are materialized only when nothing else is
		// waiting.
		var idle <-chan struct{}
		if s.disp.PopupmenuPending() && len(s.cmdCh) == 0 {
			idle = ready
		}

		select {
		case fn := <-s.cmdCh:
			fn(s)
			if s.err != nil {
				log.Error("protocol error", zap.Error(s.err))
				return s.err
			}

		case <-s.resizeTimer.C:
			if s.resize != nil {
				s.sendResize(*s.resize)
				s.resize = nil
			}

		case <-idle:
			s.disp.Tick()

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) applyRedraw(events []uievent.Event) {
	for _, e := range events {
		if err := s.disp.Apply(e); err != nil {
			s.err = err
			return
		}
	}
}

func (s *Session) applyExt(events []uievent.ExtEvent) {
	for _, e := range events {
		if r, ok := e.(uievent.EchoRepeat); ok {
			s.echoRepeat(r)
			continue
		}
		s.disp.ApplyExt(e)
	}
}

// echoRepeat is best effort: a failure is logged and the session goes on.
func (s *Session) echoRepeat(r uievent.EchoRepeat) {
	var chunks [][]string
	for i := 0; i < min(r.Times, uievent.MaxEchoRepeat); i++ {
		chunks = append(chunks, []string{r.Msg})
	}
	s.g.Go(func() error {
		if err := s.conn.Echo(s.ctx, chunks, false); err != nil {
			logger.L(s.ctx).Warn("echo", zap.Error(err))
		}
		return nil
	})
}

// requestResize records the wanted grid size and restarts the debounce
// timer.  Only the last request inside the window reaches the editor.
func (s *Session) requestResize(cols, rows int) {
	s.resize = &gridSize{cols, rows}
	resetTimer(s.resizeTimer, s.opts.Debounce)
}

func (s *Session) sendResize(sz gridSize) {
	logger.L(s.ctx).Debug("resizing", zap.Int("cols", sz.cols), zap.Int("rows", sz.rows))
	s.g.Go(func() error {
		if err := s.conn.TryResizeGrid(s.ctx, grid.RootID, sz.cols, sz.rows); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
		return nil
	})
}

// resetTimer stops t, drains it if it already fired, and restarts it.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func (s *Session) publish(snap *ui.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// Snapshot returns the latest published snapshot, or nil before the first
// flush.
func (s *Session) Snapshot() *ui.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Changed returns a channel that is closed at the next publish.
func (s *Session) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// WaitSnapshot blocks until a snapshot satisfying ok is published or ctx is
// done.
func (s *Session) WaitSnapshot(ctx context.Context, ok func(*ui.Snapshot) bool) (*ui.Snapshot, error) {
	for {
		s.mu.Lock()
		snap, ch := s.snap, s.changed
		s.mu.Unlock()
		if snap != nil && ok(snap) {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		}
	}
}

// Resize records a new window allocation in pixels.  The resulting grid size
// goes through the same debounce as geometry changes from the editor.
func (s *Session) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("bad allocation %dx%d", width, height)
	}
	ok := s.call(func(s *Session) {
		s.requestResize(s.disp.SetAllocation(width, height))
	})
	if !ok {
		return errSessionGone
	}
	return nil
}

// Input forwards keys to the editor.  A failure ends the session.
func (s *Session) Input(ctx context.Context, keys string) (int, error) {
	type result struct {
		n   int
		err error
	}
	resc := make(chan result, 1)
	ok := s.call(func(s *Session) {
		s.g.Go(func() error {
			n, err := s.conn.Input(s.ctx, keys)
			resc <- result{n, err}
			if err != nil {
				return fmt.Errorf("input: %w", err)
			}
			return nil
		})
	})
	if !ok {
		return 0, errSessionGone
	}
	select {
	case r := <-resc:
		return r.n, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Allocation returns the window size in pixels.
func (s *Session) Allocation() (width, height int) {
	type size struct{ w, h int }
	res := make(chan size, 1)
	if s.call(func(s *Session) {
		w, h := s.disp.Allocation()
		res <- size{w, h}
	}) {
		sz := <-res
		return sz.w, sz.h
	}
	return 0, 0
}

var errSessionGone = errors.New("session gone")

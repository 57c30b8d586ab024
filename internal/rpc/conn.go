// Package rpc is a msgpack-RPC connection to an editor process.
//
// A Conn multiplexes outbound calls over one stream.  Serve is the read
// loop: it routes responses to the pending call they answer, rejects
// editor-to-client requests, and hands notifications to a Handler.
package rpc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cptaffe/nvgrid/logger"
	"github.com/neovim/go-client/msgpack"
	"github.com/neovim/go-client/nvim"
	"go.uber.org/zap"
)

// Message types.
const (
	typeRequest      = 0
	typeResponse     = 1
	typeNotification = 2
)

var (
	// ErrClosed is returned by calls issued on, or pending when, a closed
	// connection.
	ErrClosed = errors.New("rpc: connection closed")
	// ErrMalformed is returned by Serve for a message it cannot classify.
	ErrMalformed = errors.New("rpc: malformed message")
)

// Error is an error reply from the editor.
type Error struct {
	Type    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("editor error %d: %s", e.Type, e.Message)
}

// Notification is an inbound notification.
type Notification struct {
	Method string
	Params []interface{}
}

// Handler consumes notifications.  A non-nil error ends Serve.
type Handler func(ctx context.Context, n Notification) error

type result struct {
	value interface{}
	err   error
}

// extensions decodes the editor's handle types.
var extensions = msgpack.ExtensionMap{
	0: func(p []byte) (interface{}, error) {
		n, err := decodeHandle(p)
		return nvim.Buffer(n), err
	},
	1: func(p []byte) (interface{}, error) {
		n, err := decodeHandle(p)
		return nvim.Window(n), err
	},
	2: func(p []byte) (interface{}, error) {
		n, err := decodeHandle(p)
		return nvim.Tabpage(n), err
	},
}

func decodeHandle(p []byte) (int, error) {
	var n int64
	if err := msgpack.NewDecoder(bytes.NewReader(p)).Decode(&n); err != nil {
		return 0, fmt.Errorf("decode handle: %w", err)
	}
	return int(n), nil
}

// Conn is a msgpack-RPC connection.
type Conn struct {
	rwc io.ReadWriteCloser
	dec *msgpack.Decoder

	wmu sync.Mutex // guards bw, enc
	bw  *bufio.Writer
	enc *msgpack.Encoder

	mu      sync.Mutex // guards seq, pending, closed
	seq     uint64
	pending map[uint64]chan result
	closed  bool
}

// NewConn returns a connection over rwc.
func NewConn(rwc io.ReadWriteCloser) *Conn {
	dec := msgpack.NewDecoder(bufio.NewReader(rwc))
	dec.SetExtensions(extensions)
	bw := bufio.NewWriter(rwc)
	return &Conn{
		rwc:     rwc,
		dec:     dec,
		bw:      bw,
		enc:     msgpack.NewEncoder(bw),
		pending: make(map[uint64]chan result),
	}
}

// Close closes the stream and fails all pending calls with ErrClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[uint64]chan result)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: ErrClosed}
	}
	return c.rwc.Close()
}

func (c *Conn) write(msg []interface{}) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.enc.Encode(msg); err != nil {
		return err
	}
	return c.bw.Flush()
}

// Call issues method with args and waits for its result.  Calls may
// complete in any order.
func (c *Conn) Call(ctx context.Context, method string, args ...interface{}) (interface{}, error) {
	if args == nil {
		args = []interface{}{}
	}
	ch := make(chan result, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	id := c.seq
	c.seq++
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.write([]interface{}{typeRequest, id, method, args}); err != nil {
		c.forget(id)
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%s: %w", method, r.err)
		}
		return r.value, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// Notify sends a notification.
func (c *Conn) Notify(method string, args ...interface{}) error {
	if args == nil {
		args = []interface{}{}
	}
	return c.write([]interface{}{typeNotification, method, args})
}

func (c *Conn) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// complete delivers a response.  It reports false when no call is waiting
// for id.
func (c *Conn) complete(id uint64, r result) bool {
	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if ok {
		ch <- r
	}
	return ok
}

// Serve reads messages until the stream fails, the handler returns an error
// or ctx is done.  The stream is closed on return.
func (c *Conn) Serve(ctx context.Context, h Handler) error {
	log := logger.L(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	for {
		var v interface{}
		if err := c.dec.Decode(&v); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrClosed
			}
			return fmt.Errorf("rpc: read: %w", err)
		}
		msg, ok := v.([]interface{})
		if !ok || len(msg) < 3 {
			return fmt.Errorf("%w: %T", ErrMalformed, v)
		}
		typ, err := toUint(msg[0])
		if err != nil {
			return fmt.Errorf("%w: message type: %v", ErrMalformed, err)
		}

		switch typ {
		case typeResponse:
			if len(msg) != 4 {
				return fmt.Errorf("%w: response of length %d", ErrMalformed, len(msg))
			}
			id, err := toUint(msg[1])
			if err != nil {
				return fmt.Errorf("%w: response id: %v", ErrMalformed, err)
			}
			r := result{value: msg[3]}
			if msg[2] != nil {
				r.err = toError(msg[2])
			}
			if !c.complete(id, r) {
				log.Warn("response for unknown call", zap.Uint64("id", id))
			}

		case typeRequest:
			if len(msg) != 4 {
				return fmt.Errorf("%w: request of length %d", ErrMalformed, len(msg))
			}
			method, _ := msg[2].(string)
			log.Warn("ignoring request from editor", zap.String("method", method))
			err := c.write([]interface{}{typeResponse, msg[1], []interface{}{0, "request not supported: " + method}, nil})
			if err != nil {
				return fmt.Errorf("rpc: reply: %w", err)
			}

		case typeNotification:
			method, ok := msg[1].(string)
			if !ok {
				return fmt.Errorf("%w: notification method %T", ErrMalformed, msg[1])
			}
			params, _ := msg[2].([]interface{})
			if err := h(ctx, Notification{Method: method, Params: params}); err != nil {
				return err
			}

		default:
			return fmt.Errorf("%w: message type %d", ErrMalformed, typ)
		}
	}
}

func toUint(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		if n >= 0 {
			return uint64(n), nil
		}
	}
	return 0, fmt.Errorf("want unsigned integer, got %v", v)
}

// toError converts the error element of a response, [type, message].
func toError(v interface{}) error {
	if a, ok := v.([]interface{}); ok && len(a) == 2 {
		e := &Error{}
		if t, err := toUint(a[0]); err == nil {
			e.Type = int(t)
		}
		switch m := a[1].(type) {
		case string:
			e.Message = m
		case []byte:
			e.Message = string(m)
		}
		return e
	}
	return &Error{Message: fmt.Sprint(v)}
}

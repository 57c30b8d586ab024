// Package rpctest provides an in-memory editor for exercising rpc clients.
package rpctest

import (
	"bufio"
	"net"
	"sync"
	"testing"

	"github.com/neovim/go-client/msgpack"
)

// Request is a call received by the editor.
type Request struct {
	Method string
	Args   []interface{}
}

// HandlerFunc answers a call.  A non-nil error is replied as an editor
// error.
type HandlerFunc func(args []interface{}) (interface{}, error)

// Editor is the far end of a net.Pipe speaking msgpack-RPC.
type Editor struct {
	conn net.Conn
	dec  *msgpack.Decoder

	wmu sync.Mutex
	bw  *bufio.Writer
	enc *msgpack.Encoder

	mu        sync.Mutex
	handlers  map[string]HandlerFunc
	requests  []Request
	responses [][]interface{}
	seq       uint64

	done chan struct{}
}

// New starts an editor and returns it with the client end of the pipe.  Both
// ends are closed when the test finishes.
func New(t testing.TB) (*Editor, net.Conn) {
	server, client := net.Pipe()
	bw := bufio.NewWriter(server)
	e := &Editor{
		conn:     server,
		dec:      msgpack.NewDecoder(server),
		bw:       bw,
		enc:      msgpack.NewEncoder(bw),
		handlers: make(map[string]HandlerFunc),
		done:     make(chan struct{}),
	}
	go e.serve()
	t.Cleanup(func() {
		server.Close()
		client.Close()
		<-e.done
	})
	return e, client
}

// Handle installs fn as the handler for method.  Calls without a handler
// succeed with a nil result.
func (e *Editor) Handle(method string, fn HandlerFunc) {
	e.mu.Lock()
	e.handlers[method] = fn
	e.mu.Unlock()
}

// Requests returns the calls received for method so far.
func (e *Editor) Requests(method string) []Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Request
	for _, r := range e.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

// Responses returns the responses the client sent to editor requests.
func (e *Editor) Responses() [][]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]interface{}(nil), e.responses...)
}

// Write sends a raw message.
func (e *Editor) Write(msg ...interface{}) error {
	e.wmu.Lock()
	defer e.wmu.Unlock()
	if err := e.enc.Encode(msg); err != nil {
		return err
	}
	return e.bw.Flush()
}

// Notify sends a notification.
func (e *Editor) Notify(method string, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	return e.Write(2, method, params)
}

// Redraw sends a "redraw" notification made of the given batches, each
// [name, tuple...].
func (e *Editor) Redraw(batches ...[]interface{}) error {
	params := make([]interface{}, len(batches))
	for i, b := range batches {
		params[i] = b
	}
	return e.Notify("redraw", params...)
}

// Request sends an editor-to-client request without waiting for the reply.
func (e *Editor) Request(method string, args ...interface{}) error {
	e.mu.Lock()
	id := e.seq
	e.seq++
	e.mu.Unlock()
	if args == nil {
		args = []interface{}{}
	}
	return e.Write(0, id, method, args)
}

// Close closes the editor end of the pipe.
func (e *Editor) Close() error {
	return e.conn.Close()
}

func (e *Editor) serve() {
	defer close(e.done)
	for {
		var msg []interface{}
		if err := e.dec.Decode(&msg); err != nil {
			return
		}
		if len(msg) == 4 && isType(msg[0], 1) {
			e.mu.Lock()
			e.responses = append(e.responses, msg)
			e.mu.Unlock()
			continue
		}
		if len(msg) != 4 || !isType(msg[0], 0) {
			continue
		}
		method, _ := msg[2].(string)
		args, _ := msg[3].([]interface{})

		e.mu.Lock()
		e.requests = append(e.requests, Request{Method: method, Args: args})
		fn := e.handlers[method]
		e.mu.Unlock()

		var result, rerr interface{}
		if fn != nil {
			var err error
			result, err = fn(args)
			if err != nil {
				rerr = []interface{}{1, err.Error()}
				result = nil
			}
		}
		if err := e.Write(1, msg[1], rerr, result); err != nil {
			return
		}
	}
}

func isType(v interface{}, t int64) bool {
	switch n := v.(type) {
	case int64:
		return n == t
	case uint64:
		return int64(n) == t
	}
	return false
}

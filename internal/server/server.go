// Package server runs an editor session and exports its published snapshots
// as a 9P file tree.
//
// The session goroutine is the only writer of UI state.  The file server
// reads whole snapshots, so a client that opens a file sees the state of one
// flush, never a partially applied batch.
package server

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/cptaffe/nvgrid/logger"
	"go.uber.org/zap"
)

// Server exports a session over 9P.
//
// ctx and sess are set once at construction.  wg tracks live connections.
type Server struct {
	ctx  context.Context
	sess *Session
	wg   sync.WaitGroup
}

// NewServer returns a file server for sess.  Connections are closed when
// ctx is cancelled.
func NewServer(ctx context.Context, sess *Session) *Server {
	return &Server{ctx: ctx, sess: sess}
}

// Session returns the exported session.
func (s *Server) Session() *Session {
	return s.sess
}

// Serve accepts connections on ln until ctx is cancelled.  ln is closed on
// return.
func (s *Server) Serve(ln net.Listener) error {
	log := logger.L(s.ctx)
	go func() {
		<-s.ctx.Done()
		ln.Close()
	}()
	defer ln.Close()

	log.Info("listening", zap.String("addr", ln.Addr().String()))
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			log.Error("accept", zap.Error(err))
			return err
		}
		s.ServeConn(c)
	}
}

// ServeConn serves one 9P connection in a new goroutine.
func (s *Server) ServeConn(rwc io.ReadWriteCloser) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.handleConn(rwc)
	}()
}

// Wait blocks until every connection has been closed.
func (s *Server) Wait() {
	s.wg.Wait()
}

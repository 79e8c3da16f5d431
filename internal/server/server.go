// Package server runs the TCP listener that carries the nuke line protocol.
// Each accepted connection is served by its own goroutine; all of them share
// one LineHandler.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLineSize bounds a single request line. Longer lines end the connection.
const MaxLineSize = 1 << 20

// ErrServerClosed is returned by Serve after Shutdown or context cancellation.
var ErrServerClosed = errors.New("server closed")

// LineHandler turns one request line into a reply.
// A nil reply writes nothing; closeConn ends the connection after the reply.
type LineHandler interface {
	HandleLine(line string) (reply []byte, closeConn bool)
}

// Server accepts TCP connections and feeds their lines to a LineHandler.
type Server struct {
	handler  LineHandler
	logger   *zap.Logger
	addr     string
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects listener, conns and closed
	closed   bool
}

// New creates a server that will listen on addr
func New(addr string, handler LineHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:    addr,
		handler: handler,
		logger:  logger.With(zap.String("component", "tcp")),
		conns:   make(map[net.Conn]struct{}),
	}
}

// ListenAndServe listens on the configured address and serves until ctx is
// canceled or Shutdown is called.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled or Shutdown is
// called. It always returns a non-nil error; after a clean stop that error
// is ErrServerClosed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	stop := context.AfterFunc(ctx, s.Shutdown)
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				s.wg.Wait()
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept timeout", zap.Error(err))
				continue
			}
			s.Shutdown()
			s.wg.Wait()
			return err
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// Addr returns the listening address, or nil before Serve starts
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown closes the listener and every open connection.
// It is safe to call more than once.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.logger.Info("shutting down", zap.Int("open_connections", len(s.conns)))
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// track registers conn unless the server is already closed.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	logger := s.logger.With(
		zap.String("conn", uuid.NewString()),
		zap.String("remote", conn.RemoteAddr().String()))
	logger.Debug("connection opened")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineSize)

	for scanner.Scan() {
		reply, closeConn := s.handler.HandleLine(scanner.Text())
		if reply != nil {
			if _, err := conn.Write(reply); err != nil {
				logger.Debug("write failed", zap.Error(err))
				return
			}
		}
		if closeConn {
			logger.Debug("connection closed by client command")
			return
		}
	}

	if err := scanner.Err(); err != nil && !s.isClosed() {
		logger.Warn("read failed", zap.Error(err))
		return
	}
	logger.Debug("connection closed")
}

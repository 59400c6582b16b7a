package server

import (
	"net"
	"sync"

	"github.com/pkg/errors"
)

var errHandedOver = errors.New("connection already handed over")

// onceListener yields a single connection, then reports itself exhausted.
type onceListener struct {
	mu   sync.Mutex
	conn net.Conn
	addr net.Addr
}

func (l *onceListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn == nil {
		return nil, errHandedOver
	}
	return conn, nil
}

func (l *onceListener) Close() error   { return nil }
func (l *onceListener) Addr() net.Addr { return l.addr }

// Accept serves conn as if it had been accepted from a listener. The server's
// own listener and listening state are not touched.
func (s *Server) Accept(conn net.Conn) error {
	if conn == nil {
		return errors.New("nil connection")
	}

	hs := s.newHTTPServer()
	l := &onceListener{conn: conn, addr: conn.LocalAddr()}

	s.logger.Debug("connection injected", "remote", conn.RemoteAddr())

	go func() {
		// Serve returns as soon as the listener is exhausted, the connection
		// keeps being served on its own goroutine.
		if err := hs.Serve(l); !errors.Is(err, errHandedOver) {
			s.logger.Error("serving injected connection", "error", err)
		}
	}()
	return nil
}

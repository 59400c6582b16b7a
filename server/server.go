package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"http-bridge/lib/event"
	"http-bridge/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyListening = errors.New("server is already listening")
	ErrNotListening     = errors.New("server is not listening")
)

// Server is a long-lived HTTP server object. Connections reach it either
// through a real listener (Serve, Listen) or one at a time through Accept.
// Server-level failures are reported through its error event.
type Server struct {
	handler http.Handler
	logger  *slog.Logger
	clock   clock.Clock
	opts    Options

	errors       event.Emitter[*emission]
	registration Registration

	mu       sync.Mutex
	http     *http.Server // non-nil while listening.
	listener net.Listener
	wg       sync.WaitGroup
}

func New(
	handler http.Handler,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Server {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	return &Server{
		handler: handler,
		logger:  logger,
		clock:   clock,
		opts:    opts,
	}
}

// Serve starts serving l in the background.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.http != nil {
		return ErrAlreadyListening
	}

	hs := s.newHTTPServer()
	s.http, s.listener = hs, l

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := hs.Serve(l)
		if errors.Is(err, http.ErrServerClosed) {
			return
		}

		s.logger.Error("listener stopped unexpectedly", "error", err)

		s.mu.Lock()
		if s.http == hs {
			s.http, s.listener = nil, nil
		}
		s.mu.Unlock()

		s.EmitError(errors.Wrap(err, "serving listener"))
	}()

	s.logger.Info("listening", "addr", l.Addr())
	return nil
}

// Listen binds a real socket and serves it.
func (s *Server) Listen(network, address string) error {
	l, err := net.Listen(network, address)
	if err != nil {
		err = errors.Wrapf(err, "listening on %s", address)
		s.EmitError(err)
		return err
	}

	if err := s.Serve(l); err != nil {
		l.Close()
		return err
	}
	return nil
}

func (s *Server) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.http != nil
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the listener and closes the connections accepted from it.
// Connections handed over through Accept are left alone.
func (s *Server) Close() error {
	return s.stop(func(hs *http.Server) error { return hs.Close() })
}

// Shutdown is the graceful version of Close.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.stop(func(hs *http.Server) error { return hs.Shutdown(ctx) })
}

func (s *Server) stop(stop func(*http.Server) error) error {
	s.mu.Lock()
	hs := s.http
	s.http, s.listener = nil, nil
	s.mu.Unlock()

	if hs == nil {
		return ErrNotListening
	}

	err := stop(hs)
	s.wg.Wait()

	s.logger.Info("stopped listening")
	return errors.Wrap(err, "stopping server")
}

// emission is one server error on its way through the error listeners.
type emission struct {
	err       error
	delivered int // listeners that actually received err.
}

// OnError registers fn for server-level errors.
func (s *Server) OnError(fn func(error)) (off func()) {
	return s.errors.On(func(e *emission) {
		e.delivered++
		fn(e.err)
	})
}

func (s *Server) ErrorListenerCount() int { return s.errors.ListenerCount() }

// EmitError reports a server-level error to every error listener.
// It returns false if nobody received it, in which case the error is only logged.
// The exchange hook counts as a receiver only while an exchange is watching.
func (s *Server) EmitError(err error) bool {
	e := &emission{err: err}
	s.errors.Emit(e)
	if e.delivered > 0 {
		return true
	}

	s.logger.Error("unhandled server error", "error", err)
	return false
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Handler:           http.HandlerFunc(s.dispatch),
		ReadTimeout:       s.opts.Timeout.ReadTimeout,
		ReadHeaderTimeout: s.opts.Timeout.ReadHeaderTimeout,
		WriteTimeout:      s.opts.Timeout.WriteTimeout,
		IdleTimeout:       s.opts.Timeout.IdleTimeout,
		MaxHeaderBytes:    s.opts.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
		BaseContext: func(net.Listener) context.Context {
			return context.WithValue(context.Background(), serverContextKey{}, s)
		},
		ConnContext: func(ctx context.Context, c net.Conn) context.Context {
			return context.WithValue(ctx, connContextKey{}, c)
		},
	}
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	start := s.clock.Now()

	defer func() {
		v := recover()
		if v == nil {
			s.logger.Debug("request served",
				"method", r.Method, "uri", r.RequestURI, "took", s.clock.Since(start))
			return
		}

		if v == http.ErrAbortHandler {
			s.logger.Debug("handler aborted", "method", r.Method, "uri", r.RequestURI)
			panic(v)
		}

		err := &PanicError{Value: v}
		s.logger.Error("handler panicked", "method", r.Method, "uri", r.RequestURI, "error", err)

		// Let the peer know why the connection went away.
		if conn, ok := r.Context().Value(connContextKey{}).(transport.Conn); ok {
			conn.Destroy(err)
		}
		panic(http.ErrAbortHandler)
	}()

	s.handler.ServeHTTP(w, r)
}

// PanicError is the cause a connection is destroyed with when its handler panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panicked: %v", e.Value) }

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

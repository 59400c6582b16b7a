package server

import (
	"log/slog"
	"net/http"

	"github.com/benbjohnson/clock"
)

// Target is something an exchange can run against: a *Server, or a bare
// handler wrapped with Handler.
type Target interface {
	resolve(logger *slog.Logger, clock clock.Clock, opts Options) *Server
}

func (s *Server) resolve(*slog.Logger, clock.Clock, Options) *Server { return s }

type handlerTarget struct {
	handler http.Handler
}

func (t handlerTarget) resolve(logger *slog.Logger, clock clock.Clock, opts Options) *Server {
	return New(t.handler, logger, clock, opts)
}

func Handler(h http.Handler) Target { return handlerTarget{handler: h} }

func HandlerFunc(f func(http.ResponseWriter, *http.Request)) Target {
	return Handler(http.HandlerFunc(f))
}

// Resolve returns the server t stands for. A bare handler gets a new,
// never-listening server on every call; logger, clock and opts only apply to it.
func Resolve(t Target, logger *slog.Logger, clock clock.Clock, opts Options) *Server {
	return t.resolve(logger, clock, opts)
}

package server

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	c := clock.NewMock()

	srv := New(nil, logger, c, Options{})
	assert.Same(t, srv, Resolve(srv, logger, c, Options{}))

	target := HandlerFunc(hello)
	a := Resolve(target, logger, c, Options{MaxHeaderBytes: 1 << 10})
	b := Resolve(target, logger, c, Options{})

	assert.NotSame(t, a, b)
	assert.False(t, a.Listening())
	assert.Equal(t, 1<<10, a.opts.MaxHeaderBytes)
	assert.Zero(t, a.ErrorListenerCount())

	assert.NotNil(t, Resolve(Handler(http.NotFoundHandler()), logger, c, Options{}))
}

package server

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardServer() *Server {
	return New(nil, slog.New(slog.DiscardHandler), clock.NewMock(), Options{})
}

func TestGuardAttachesOnce(t *testing.T) {
	srv := newGuardServer()
	assert.False(t, srv.registration.Attached())

	var wg sync.WaitGroup
	regs := make([]*Registration, 20)
	for i := range regs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			regs[i] = Guard(srv)
		}()
	}
	wg.Wait()

	for _, r := range regs {
		assert.Same(t, regs[0], r)
	}
	assert.True(t, regs[0].Attached())
	assert.Equal(t, 1, srv.ErrorListenerCount())
}

func TestGuardKeepsCallerListeners(t *testing.T) {
	srv := newGuardServer()

	var seen []error
	srv.OnError(func(err error) { seen = append(seen, err) })

	r := Guard(srv)
	Guard(srv)
	require.Equal(t, 2, srv.ErrorListenerCount())

	var watched []error
	unwatch := r.Watch(func(err error) { watched = append(watched, err) })
	assert.Equal(t, 1, r.Watching())

	first := errors.New("first")
	assert.True(t, srv.EmitError(first))

	unwatch()
	assert.Zero(t, r.Watching())

	second := errors.New("second")
	assert.True(t, srv.EmitError(second))

	assert.Equal(t, []error{first, second}, seen)
	assert.Equal(t, []error{first}, watched)
	assert.Equal(t, 2, srv.ErrorListenerCount())
}

func TestWatchersAreIndependent(t *testing.T) {
	srv := newGuardServer()
	r := Guard(srv)

	var a, b int
	offA := r.Watch(func(error) { a++ })
	offB := r.Watch(func(error) { b++ })

	srv.EmitError(errors.New("x"))
	offA()
	srv.EmitError(errors.New("y"))
	offB()

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, srv.ErrorListenerCount())
}

func TestUnwatchedErrorIsUnhandled(t *testing.T) {
	var logs bytes.Buffer
	srv := New(nil, slog.New(slog.NewTextHandler(&logs, nil)), clock.NewMock(), Options{})

	r := Guard(srv)
	require.Equal(t, 1, srv.ErrorListenerCount())

	// The hook alone does not count as handling the error.
	assert.False(t, srv.EmitError(errors.New("nobody watching")))
	assert.Contains(t, logs.String(), "unhandled server error")
	assert.Contains(t, logs.String(), "nobody watching")

	logs.Reset()
	unwatch := r.Watch(func(error) {})
	assert.True(t, srv.EmitError(errors.New("watched")))
	assert.NotContains(t, logs.String(), "unhandled server error")

	unwatch()
	assert.False(t, srv.EmitError(errors.New("unwatched again")))
	assert.Contains(t, logs.String(), "unwatched again")
}

package server

import (
	"sync"
	"sync/atomic"
)

// Registration is the single error hook exchanges keep on a server. It is
// created with the server and attached on first use.
type Registration struct {
	once     sync.Once
	attached atomic.Bool

	mu       sync.Mutex
	watchers map[*watcher]struct{}
}

type watcher struct {
	fn func(error)
}

// Guard attaches the exchange hook to s's error event if it is not attached yet.
func Guard(s *Server) *Registration {
	r := &s.registration
	r.once.Do(func() {
		s.errors.On(func(e *emission) {
			if r.forward(e.err) > 0 {
				e.delivered++
			}
		})
		r.attached.Store(true)
		s.logger.Debug("exchange error hook attached")
	})
	return r
}

func (r *Registration) Attached() bool { return r.attached.Load() }

// Watch forwards server errors to fn until unwatch is called.
func (r *Registration) Watch(fn func(error)) (unwatch func()) {
	w := &watcher{fn: fn}

	r.mu.Lock()
	if r.watchers == nil {
		r.watchers = make(map[*watcher]struct{})
	}
	r.watchers[w] = struct{}{}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.watchers, w)
		r.mu.Unlock()
	}
}

func (r *Registration) Watching() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers)
}

// forward returns how many watchers received err.
func (r *Registration) forward(err error) int {
	r.mu.Lock()
	ws := make([]*watcher, 0, len(r.watchers))
	for w := range r.watchers {
		ws = append(ws, w)
	}
	r.mu.Unlock()

	for _, w := range ws {
		w.fn(err)
	}
	return len(ws)
}

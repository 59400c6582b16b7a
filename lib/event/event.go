// Package event is a small typed observer list, safe for concurrent use.
package event

import "sync"

type listener[T any] struct {
	fn   func(T)
	once bool
}

// Emitter dispatches values to the listeners registered on it.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu        sync.Mutex
	listeners []*listener[T]
}

// On registers fn and returns a func that removes it again.
func (e *Emitter[T]) On(fn func(T)) (off func()) {
	return e.add(&listener[T]{fn: fn})
}

// Once registers fn to be removed right before its first call.
func (e *Emitter[T]) Once(fn func(T)) (off func()) {
	return e.add(&listener[T]{fn: fn, once: true})
}

func (e *Emitter[T]) add(l *listener[T]) func() {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()

	return func() { e.remove(l) }
}

// remove reports whether l was still registered.
func (e *Emitter[T]) remove(l *listener[T]) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, got := range e.listeners {
		if got == l {
			// Copy so snapshots taken by Emit stay intact.
			listeners := make([]*listener[T], 0, len(e.listeners)-1)
			listeners = append(listeners, e.listeners[:i]...)
			e.listeners = append(listeners, e.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Emit calls every listener registered at the time of the call, in registration order,
// and returns how many were called.
func (e *Emitter[T]) Emit(v T) int {
	e.mu.Lock()
	// Snapshot under lock; dispatch after release so listeners may call back into e.
	listeners := e.listeners
	e.mu.Unlock()

	n := 0
	for _, l := range listeners {
		if l.once && !e.remove(l) {
			// Another Emit got to it first.
			continue
		}
		l.fn(v)
		n++
	}
	return n
}

func (e *Emitter[T]) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

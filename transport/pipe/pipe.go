// Borrowed the drain-before-close idea from the buffered pipe discussions:
// - https://github.com/golang/go/issues/24205
// - https://github.com/golang/go/issues/34502
package pipe

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"http-bridge/transport"

	"github.com/benbjohnson/clock"
)

// stream is one direction of the pipe. It is written by one end and read by the other.
type stream struct {
	mu   sync.Mutex
	cond sync.Cond
	buf  bytes.Buffer // unbounded. protected by mu.

	ended      bool  // writer half-closed.
	reset      error // writer destroyed before ending.
	readerGone bool  // reader destroyed.
}

func newStream() *stream {
	s := &stream{}
	s.cond.L = &s.mu
	return s
}

func (s *stream) wake() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// End is one end of an in-memory duplex byte channel.
type End struct {
	addr Addr

	rx, tx *stream

	once      sync.Once
	destroyed chan struct{}
	cause     error // set before destroyed is closed.

	rdeadLine, wdeadLine *deadline

	// the opposite end.
	peer *End
}

type Addr = transport.Addr

var _ transport.Conn = (*End)(nil)

// New creates a pair of connected ends. Writes never block: whatever is written
// is buffered in memory until the other end reads it.
func New(name1, name2 string, clock clock.Clock) (c1, c2 *End) {
	a, b := newStream(), newStream()

	c1 = &End{
		addr:      Addr{Name: name1},
		rx:        a,
		tx:        b,
		destroyed: make(chan struct{}),
		rdeadLine: newDeadLine(clock),
		wdeadLine: newDeadLine(clock),
	}
	c2 = &End{
		addr:      Addr{Name: name2},
		rx:        b,
		tx:        a,
		destroyed: make(chan struct{}),
		rdeadLine: newDeadLine(clock),
		wdeadLine: newDeadLine(clock),
	}
	c1.peer, c2.peer = c2, c1
	return
}

func (e *End) LocalAddr() net.Addr  { return e.addr }
func (e *End) RemoteAddr() net.Addr { return e.peer.addr }

func (e *End) Read(b []byte) (n int, err error) {
	e.rx.mu.Lock()
	defer e.rx.mu.Unlock()

	for {
		if e.Destroyed() {
			return 0, transport.ErrConnClosed
		}
		if e.rdeadLine.exceeded() {
			return 0, transport.ErrDeadLineExceeded
		}

		// Bytes written before the peer went away are still delivered.
		if e.rx.buf.Len() > 0 {
			return e.rx.buf.Read(b)
		}

		if e.rx.reset != nil {
			return 0, e.rx.reset
		}
		if e.rx.ended {
			return 0, io.EOF
		}

		e.rx.cond.Wait()
	}
}

func (e *End) Write(b []byte) (n int, err error) {
	if e.Destroyed() {
		return 0, transport.ErrConnClosed
	}
	if e.wdeadLine.exceeded() {
		return 0, transport.ErrDeadLineExceeded
	}

	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	switch {
	case e.tx.ended:
		return 0, transport.ErrWriteAfterEnd
	case e.tx.readerGone:
		return 0, &transport.ResetError{Cause: e.peer.Cause()}
	}

	if len(b) == 0 {
		return 0, nil
	}

	n, _ = e.tx.buf.Write(b)
	e.tx.cond.Broadcast()
	return n, nil
}

func (e *End) CloseWrite() error {
	if e.Destroyed() {
		return transport.ErrConnClosed
	}

	e.tx.mu.Lock()
	defer e.tx.mu.Unlock()

	if !e.tx.ended {
		e.tx.ended = true
		e.tx.cond.Broadcast()
	}
	return nil
}

func (e *End) Close() error {
	e.Destroy(nil)
	return nil
}

func (e *End) Destroy(cause error) {
	e.once.Do(func() {
		e.cause = cause
		close(e.destroyed)

		e.rdeadLine.stop()
		e.wdeadLine.stop()

		e.rx.mu.Lock()
		e.rx.readerGone = true
		e.rx.buf.Reset()
		e.rx.cond.Broadcast()
		e.rx.mu.Unlock()

		e.tx.mu.Lock()
		// A gracefully ended stream stays ended.
		if !e.tx.ended && e.tx.reset == nil {
			e.tx.reset = &transport.ResetError{Cause: cause}
		}
		e.tx.cond.Broadcast()
		e.tx.mu.Unlock()
	})
}

func (e *End) Destroyed() bool { return isClosed(e.destroyed) }

// Done is closed once the end is destroyed.
func (e *End) Done() <-chan struct{} { return e.destroyed }

// Cause returns what the end was destroyed with.
func (e *End) Cause() error {
	if !e.Destroyed() {
		return nil
	}
	return e.cause
}

func (e *End) SetDeadline(t time.Time) error {
	e.SetReadDeadline(t)
	e.SetWriteDeadline(t)
	return nil
}

func (e *End) SetReadDeadline(t time.Time) error {
	e.rdeadLine.set(t, e.rx.wake)
	return nil
}

// Writes never block, so there is nobody to wake up.
func (e *End) SetWriteDeadline(t time.Time) error {
	e.wdeadLine.set(t, func() {})
	return nil
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c: // c will only fire at closed state.
		return true
	default:
		return false
	}
}

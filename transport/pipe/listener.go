package pipe

import (
	"context"
	"net"
	"sync"

	"http-bridge/transport"

	"github.com/benbjohnson/clock"
)

// Listener is a net.Listener whose connections come from Dial instead of a socket.
type Listener struct {
	addr  Addr
	clock clock.Clock

	conns  chan *End
	closed chan struct{}
	once   sync.Once
}

var _ net.Listener = (*Listener)(nil)

func Listen(name string, clock clock.Clock) *Listener {
	return &Listener{
		addr:   Addr{Name: name},
		clock:  clock,
		conns:  make(chan *End),
		closed: make(chan struct{}),
	}
}

func (l *Listener) Addr() net.Addr { return l.addr }

func (l *Listener) Accept() (net.Conn, error) {
	select {
	case <-l.closed:
		return nil, transport.ErrListenerClosed
	case conn := <-l.conns:
		return conn, nil
	}
}

// Dial hands a fresh end to Accept and returns its counterpart.
func (l *Listener) Dial(ctx context.Context) (*End, error) {
	local, remote := New("dialer", l.addr.Name, l.clock)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrListenerClosed
	case l.conns <- remote:
	}

	return local, nil
}

func (l *Listener) Close() error {
	closed := false
	l.once.Do(func() {
		close(l.closed)
		closed = true
	})

	if !closed {
		return transport.ErrListenerClosed
	}
	return nil
}

package transport

import (
	"net"
	"os"

	"github.com/pkg/errors"
)

var (
	ErrConnClosed       = net.ErrClosed
	ErrConnReset        = errors.New("connection reset by peer")
	ErrWriteAfterEnd    = errors.New("write after end")
	ErrListenerClosed   = errors.New("listener is closed")
	ErrDeadLineExceeded = os.ErrDeadlineExceeded
)

// Conn is a net.Conn whose ends can be half-closed or destroyed,
// the way a socket can be ended or reset.
type Conn interface {
	net.Conn

	// CloseWrite signals the peer that no more data will be written.
	// The peer reads io.EOF once it has drained the buffered bytes.
	CloseWrite() error

	// Destroy terminates the connection abruptly.
	// The peer observes a *ResetError carrying cause instead of io.EOF.
	Destroy(cause error)

	Destroyed() bool
	Cause() error
}

// ResetError is what the peer of a destroyed Conn reads and writes.
type ResetError struct {
	Cause error
}

func (e *ResetError) Error() string {
	if e.Cause == nil {
		return ErrConnReset.Error()
	}
	return ErrConnReset.Error() + ": " + e.Cause.Error()
}

func (e *ResetError) Is(target error) bool { return target == ErrConnReset }
func (e *ResetError) Unwrap() error        { return e.Cause }

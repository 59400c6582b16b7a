package iolib

import (
	"io"

	"github.com/pkg/errors"
)

var ErrCeilingExceeded = errors.New("read ceiling exceeded")

// NewCeilingReader creates new [CeilingReader]. A negative n means no ceiling.
func NewCeilingReader(r io.Reader, n int64) *CeilingReader {
	return &CeilingReader{R: r, N: n}
}

// CeilingReader is the failing counterpart of [io.LimitedReader].
// Instead of cutting the stream at N bytes, it reports [ErrCeilingExceeded]
// as soon as the underlying reader produced more than N bytes.
type CeilingReader struct {
	R    io.Reader // underlying reader
	N    int64     // max bytes allowed. negative means unbounded.
	Seen int64     // bytes produced so far
}

func (c *CeilingReader) Read(p []byte) (n int, err error) {
	if c.N >= 0 && c.Seen >= c.N && len(p) > 1 {
		// One more byte is enough to tell.
		p = p[:1]
	}

	n, err = c.R.Read(p)
	c.Seen += int64(n)

	if over := c.Seen - c.N; c.N >= 0 && over > 0 {
		return n - int(over), ErrCeilingExceeded
	}
	return n, err
}

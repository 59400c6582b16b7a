package test

import (
	"bytes"
	"io"
	"sync"
	"time"

	"http-bridge/transport"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// ConnTestSuite checks the socket-like contract of a [transport.Conn] pair.
// Embedders fill C1 and C2 in SetupTest after calling ConnTestSuite.SetupTest.
type ConnTestSuite struct {
	suite.Suite
	C1, C2 transport.Conn
	Clock  *clock.Mock

	done  chan struct{}
	timer *time.Timer
}

func (s *ConnTestSuite) SetupTest() {
	s.done = make(chan struct{})
	s.Clock = clock.NewMock()

	s.timer = time.AfterFunc(time.Second, func() {
		select {
		case <-s.done:
		default:
			s.FailNow("timeout exceeded")
		}
	})
}

func (s *ConnTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.C1.Close())
	s.NoError(s.C2.Close())
	close(s.done)
	s.timer.Stop()
}

func (s *ConnTestSuite) TestReadWrite() {
	data := []byte("Hello, World!")

	n, err := s.C1.Write(data)
	s.Require().NoError(err)
	s.Equal(len(data), n)

	buf := make([]byte, 10)

	n, err = s.C2.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal(data[:n], buf)

	n, err = s.C2.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(data)-len(buf), n)
	s.Equal(data[len(buf):], buf[:n])
}

func (s *ConnTestSuite) TestBothWays() {
	_, err := s.C1.Write([]byte("ping"))
	s.Require().NoError(err)
	_, err = s.C2.Write([]byte("pong"))
	s.Require().NoError(err)

	b := make([]byte, 4)
	_, err = io.ReadFull(s.C2, b)
	s.Require().NoError(err)
	s.Equal("ping", string(b))

	_, err = io.ReadFull(s.C1, b)
	s.Require().NoError(err)
	s.Equal("pong", string(b))
}

func (s *ConnTestSuite) TestWriteRace() {
	data := []byte("ABCD")
	N := 10

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		result := make([]byte, 0)

		b := make([]byte, 10)
		for {
			n, err := s.C2.Read(b)
			if err != nil {
				s.Require().ErrorIs(err, io.EOF)
				s.Equal(bytes.Repeat(data, N), result)
				return
			}
			result = append(result, b[:n]...)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var wwg sync.WaitGroup
		for range N {
			wwg.Add(1)
			go func() {
				defer wwg.Done()
				n, err := s.C1.Write(data)
				s.Require().NoError(err)
				s.Equal(len(data), n)
			}()
		}
		wwg.Wait()
		s.Require().NoError(s.C1.CloseWrite())
	}()
}

func (s *ConnTestSuite) TestHalfClose() {
	_, err := s.C1.Write([]byte("bye"))
	s.Require().NoError(err)
	s.Require().NoError(s.C1.CloseWrite())

	b, err := io.ReadAll(s.C2)
	s.NoError(err) // io.ReadAll swallows io.EOF.
	s.Equal("bye", string(b))

	_, err = s.C1.Write([]byte("more"))
	s.ErrorIs(err, transport.ErrWriteAfterEnd)

	// The other direction is still open.
	_, err = s.C2.Write([]byte("still here"))
	s.Require().NoError(err)

	b = make([]byte, 10)
	n, err := s.C1.Read(b)
	s.Require().NoError(err)
	s.Equal("still here", string(b[:n]))
}

func (s *ConnTestSuite) TestDestroy() {
	s.C1.Destroy(nil)
	s.True(s.C1.Destroyed())
	s.False(s.C2.Destroyed())

	buf := make([]byte, 10)

	n, err := s.C1.Read(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)

	n, err = s.C1.Write(buf)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)

	// The peer sees a reset, never a clean end of stream.
	n, err = s.C2.Read(buf)
	s.ErrorIs(err, transport.ErrConnReset)
	s.NotErrorIs(err, io.EOF)
	s.Zero(n)

	n, err = s.C2.Write(buf)
	s.ErrorIs(err, transport.ErrConnReset)
	s.Zero(n)
}

func (s *ConnTestSuite) TestDestroyCause() {
	cause := io.ErrClosedPipe
	s.C2.Destroy(cause)
	s.Equal(cause, s.C2.Cause())
	s.Nil(s.C1.Cause())

	_, err := s.C1.Read(make([]byte, 1))

	var reset *transport.ResetError
	s.Require().ErrorAs(err, &reset)
	s.Equal(cause, reset.Cause)
	s.ErrorIs(err, cause)
}

func (s *ConnTestSuite) TestReadAfterDestroy() {
	_, err := s.C2.Write([]byte("leftover"))
	s.Require().NoError(err)
	s.C2.Destroy(nil)

	b := make([]byte, 8)
	n, err := s.C1.Read(b)
	s.Require().NoError(err)
	s.Equal("leftover", string(b[:n]))

	n, err = s.C1.Read(b)
	s.ErrorIs(err, transport.ErrConnReset)
	s.Zero(n)
}

func (s *ConnTestSuite) TestDestroyAfterEnd() {
	s.Require().NoError(s.C1.CloseWrite())
	s.C1.Destroy(nil)

	_, err := s.C2.Read(make([]byte, 1))
	s.ErrorIs(err, io.EOF)
}

func (s *ConnTestSuite) TestReadBeforeDestroy() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Read(make([]byte, 1))
		s.ErrorIs(err, transport.ErrConnClosed)
	}()

	time.Sleep(50 * time.Millisecond)
	s.C1.Destroy(nil)
}

func (s *ConnTestSuite) TestReadBeforePeerDestroy() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Read(make([]byte, 1))
		s.ErrorIs(err, transport.ErrConnReset)
	}()

	time.Sleep(50 * time.Millisecond)
	s.C2.Destroy(nil)
}

func (s *ConnTestSuite) TestReadDeadLine() {
	s.Require().NoError(s.C1.SetReadDeadline(s.Clock.Now().Add(-time.Second)))

	b := make([]byte, 1)
	n, err := s.C1.Read(b)
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)

	// Lifting the deadline makes the end readable again.
	s.Require().NoError(s.C1.SetReadDeadline(time.Time{}))
	_, err = s.C2.Write([]byte("x"))
	s.Require().NoError(err)

	n, err = s.C1.Read(b)
	s.NoError(err)
	s.Equal(1, n)
}

func (s *ConnTestSuite) TestReadDeadLineWakesReader() {
	var wg sync.WaitGroup
	defer wg.Wait()

	s.Require().NoError(s.C1.SetReadDeadline(s.Clock.Now().Add(time.Minute)))

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Read(make([]byte, 1))
		s.ErrorIs(err, transport.ErrDeadLineExceeded)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Clock.Add(time.Minute)
}

func (s *ConnTestSuite) TestWriteDeadLine() {
	s.Require().NoError(s.C1.SetWriteDeadline(s.Clock.Now().Add(-time.Second)))

	b := make([]byte, 1)
	n, err := s.C1.Write(b)
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Zero(n)
}

func (s *ConnTestSuite) TestAddr() {
	local1, remote1 := s.C1.LocalAddr(), s.C1.RemoteAddr()
	local2, remote2 := s.C2.LocalAddr(), s.C2.RemoteAddr()

	s.Equal(local1, remote2)
	s.Equal(local2, remote1)
}

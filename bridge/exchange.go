package bridge

import (
	"bufio"
	"context"
	"io"
	"net/http"

	iolib "http-bridge/lib/io"
	"http-bridge/server"
	"http-bridge/transport"
	"http-bridge/transport/pipe"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

// Do runs one exchange. Every exchange gets its own pipe, which is gone by
// the time Do returns. Nothing is retried.
func (c *Client) Do(ctx context.Context, d Descriptor) (*Envelope, error) {
	d = d.merge(c.opts.Defaults)
	logger := c.logger.With("exchange", uuid.New())

	parent := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = c.clock.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	req, err := d.request(ctx)
	if err != nil {
		logger.Debug("building request failed", "error", err)
		return nil, err
	}

	srv := server.Resolve(c.target, c.logger, c.clock, c.opts.Server)
	reg := server.Guard(srv)

	clientEnd, serverEnd := pipe.New("client", "server", c.clock)
	defer clientEnd.Destroy(nil)

	// The first server error seen during the exchange decides its outcome.
	faults := make(chan error, 1)
	unwatch := reg.Watch(func(err error) {
		select {
		case faults <- err:
			clientEnd.Destroy(err)
		default:
		}
	})
	defer unwatch()

	stop := context.AfterFunc(ctx, func() { clientEnd.Destroy(ctx.Err()) })
	defer stop()

	start := c.clock.Now()
	logger.Debug("exchange started", "method", req.Method, "url", req.URL)

	var env *Envelope
	if err = srv.Accept(serverEnd); err == nil {
		env, err = roundTrip(clientEnd, req, d)
	} else {
		serverEnd.Destroy(err)
	}

	select {
	case fault := <-faults:
		err = serverFault(fault)
	default:
		if err != nil {
			err = classify(err, ctx, parent, d, serverEnd)
		}
	}

	if err == nil && d.ValidateStatus != nil && !d.ValidateStatus(env.Status()) {
		err = badStatus(env)
	}

	if err != nil {
		logger.Debug("exchange failed", "error", err, "took", c.clock.Since(start))
		return nil, err
	}

	logger.Debug("exchange finished", "status", env.Status(), "took", c.clock.Since(start))
	return env, nil
}

func roundTrip(conn *pipe.End, req *http.Request, d Descriptor) (*Envelope, error) {
	if err := req.Write(conn); err != nil {
		return nil, errors.Wrap(err, "writing request")
	}

	res, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	defer res.Body.Close()

	// A declared length only says how many bytes will arrive when they arrive
	// unencoded. Everything else is left to the ceiling while reading.
	if d.MaxContentLength > 0 && declaresBodyLength(res, req.Method, d) &&
		res.ContentLength > d.MaxContentLength {
		return nil, contentLengthExceeded(d.MaxContentLength)
	}

	body, err := readBody(res, req.Method, d)
	if err != nil {
		return nil, err
	}

	return newEnvelope(res, body), nil
}

func declaresBodyLength(res *http.Response, method string, d Descriptor) bool {
	if !hasBody(res, method) {
		return false
	}
	return d.DisableDecompression || res.Header.Get("Content-Encoding") == ""
}

func readBody(res *http.Response, method string, d Descriptor) ([]byte, error) {
	var r io.ReadCloser = res.Body
	if !d.DisableDecompression {
		dec, err := decodeBody(res, method)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	// The ceiling counts decoded bytes.
	limit := d.MaxContentLength
	if limit <= 0 {
		limit = -1
	}

	body, err := io.ReadAll(iolib.NewCeilingReader(r, limit))
	if errors.Is(err, iolib.ErrCeilingExceeded) {
		return nil, contentLengthExceeded(d.MaxContentLength)
	}
	return body, errors.Wrap(err, "reading response body")
}

// classify maps a failed round trip to the *Error the caller sees.
func classify(err error, ctx, parent context.Context, d Descriptor, serverEnd *pipe.End) error {
	var berr *Error
	if errors.As(err, &berr) {
		return berr
	}

	if ctx.Err() != nil {
		if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return timedOut(d.Timeout, ctx.Err())
		}
		return canceled(ctx.Err())
	}

	if serverEnd.Destroyed() {
		var perr *server.PanicError
		if errors.As(serverEnd.Cause(), &perr) {
			return handlerFault(perr)
		}
		return connReset(err)
	}

	if errors.Is(err, transport.ErrConnReset) || errors.Is(err, io.ErrUnexpectedEOF) {
		return connReset(err)
	}

	return errors.Wrap(err, "exchange failed")
}


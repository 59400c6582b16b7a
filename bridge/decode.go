package bridge

import (
	"bufio"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// newDecoder returns a reader undoing encoding, or nil if encoding is not
// a compression it knows.
func newDecoder(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil

	case "deflate":
		return newDeflateReader(r)

	case "br":
		return io.NopCloser(brotli.NewReader(r)), nil

	case "zstd":
		// Synchronous decoding keeps the decoder from spawning goroutines.
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	}

	return nil, nil
}

// newDeflateReader accepts both the zlib-wrapped stream RFC 9110 calls
// deflate and the raw DEFLATE stream plenty of servers send instead.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(2)
	if err != nil {
		return nil, err
	}

	// RFC 1950 §2.2: CM is 8 and CMF*256+FLG is a multiple of 31.
	if head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

// hasBody reports whether a response to method may carry a body at all.
func hasBody(res *http.Response, method string) bool {
	switch {
	case method == http.MethodHead:
		return false
	case res.StatusCode == http.StatusNoContent, res.StatusCode == http.StatusNotModified:
		return false
	case res.ContentLength == 0:
		return false
	}
	return true
}

// decodeBody wraps res.Body with the decoder its Content-Encoding asks for.
// Once decoded, the encoding headers no longer describe the body and are dropped.
func decodeBody(res *http.Response, method string) (io.ReadCloser, error) {
	if !hasBody(res, method) {
		return res.Body, nil
	}

	dec, err := newDecoder(res.Header.Get("Content-Encoding"), res.Body)
	switch {
	case errors.Is(err, io.EOF):
		// Encoded but empty.
		dec = http.NoBody
	case err != nil:
		return nil, errors.Wrap(err, "decoding response body")
	case dec == nil:
		return res.Body, nil
	}

	res.Header.Del("Content-Encoding")
	res.Header.Del("Content-Length")
	return dec, nil
}

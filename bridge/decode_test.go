package bridge

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"http-bridge/server"

	"github.com/andybalholm/brotli"
	"github.com/gorilla/handlers"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var payload = strings.Repeat("the quick brown fox jumps over the lazy dog\n", 256)

func compress(encoding string, data []byte) []byte {
	var buf bytes.Buffer

	var w io.WriteCloser
	switch encoding {
	case "gzip", "x-gzip":
		w = gzip.NewWriter(&buf)
	case "deflate":
		w = zlib.NewWriter(&buf)
	case "raw-deflate":
		w, _ = flate.NewWriter(&buf, flate.DefaultCompression)
	case "br":
		w = brotli.NewWriter(&buf)
	case "zstd":
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil)
	default:
		panic("unknown encoding " + encoding)
	}

	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func encodedHandler(encoding string) http.HandlerFunc {
	body := compress(encoding, []byte(payload))
	if encoding == "raw-deflate" {
		encoding = "deflate"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", encoding)
		w.Write(body)
	}
}

func (s *BridgeTestSuite) TestDecompression() {
	for _, encoding := range []string{"gzip", "x-gzip", "deflate", "raw-deflate", "br", "zstd"} {
		c := s.client(server.Handler(encodedHandler(encoding)))

		env, err := c.Get(s.ctx, "/")
		s.Require().NoError(err, encoding)
		s.Equal(payload, env.Text(), encoding)
		s.Empty(env.Header().Get("Content-Encoding"), encoding)
		s.Empty(env.Header().Get("Content-Length"), encoding)
	}
}

func (s *BridgeTestSuite) TestCompressHandler() {
	h := handlers.CompressHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, payload)
	}))
	c := s.client(server.Handler(h))

	for _, encoding := range []string{"gzip", "deflate"} {
		env, err := c.Do(s.ctx, Descriptor{Headers: http.Header{"Accept-Encoding": {encoding}}})
		s.Require().NoError(err, encoding)
		s.Equal(payload, env.Text(), encoding)
	}
}

func (s *BridgeTestSuite) TestDisableDecompression() {
	c := s.client(server.Handler(encodedHandler("gzip")))

	env, err := c.Do(s.ctx, Descriptor{DisableDecompression: true})
	s.Require().NoError(err)
	s.Equal("gzip", env.Header().Get("Content-Encoding"))
	s.Equal(compress("gzip", []byte(payload)), env.Body())
}

func (s *BridgeTestSuite) TestCeilingCountsDecodedBytes() {
	c := s.client(server.Handler(encodedHandler("gzip")))

	// The compressed body fits, the decoded one does not.
	_, err := c.Do(s.ctx, Descriptor{MaxContentLength: 1000})
	s.Require().ErrorIs(err, ErrContentLengthExceeded)

	// The other way around: the declared length is over, the decoded body is not.
	small := compress("gzip", []byte("a"))
	s.Require().Greater(len(small), 10)

	c = s.client(server.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(small)
	}))

	env, err := c.Do(s.ctx, Descriptor{MaxContentLength: 10})
	s.Require().NoError(err)
	s.Equal("a", env.Text())

	// Undecoded, the declared length is what arrives.
	_, err = c.Do(s.ctx, Descriptor{MaxContentLength: 10, DisableDecompression: true})
	s.Require().ErrorIs(err, ErrContentLengthExceeded)
}

func (s *BridgeTestSuite) TestCeilingIgnoresHeadLength() {
	c := s.client(server.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024")
	}))

	env, err := c.Do(s.ctx, Descriptor{Method: http.MethodHead, MaxContentLength: 10})
	s.Require().NoError(err)
	s.Equal(http.StatusOK, env.Status())
	s.Equal("1024", env.Header().Get("Content-Length"))
	s.Empty(env.Body())
}

func (s *BridgeTestSuite) TestEmptyEncodedBody() {
	c := s.client(server.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusNoContent)
	}))

	env, err := c.Get(s.ctx, "/")
	s.Require().NoError(err)
	s.Equal(http.StatusNoContent, env.Status())
	s.Empty(env.Body())
}

func (s *BridgeTestSuite) TestUnknownEncodingPassesThrough() {
	c := s.client(server.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "identity")
		io.WriteString(w, "plain")
	}))

	env, err := c.Get(s.ctx, "/")
	s.Require().NoError(err)
	s.Equal("plain", env.Text())
	s.Equal("identity", env.Header().Get("Content-Encoding"))
}

package bridge

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"http-bridge/lib/codec"
	iolib "http-bridge/lib/io"

	"github.com/pkg/errors"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// encodeBody turns body into the request payload, setting Content-Type on
// header when the encoding implies one. A nil reader means no body.
func encodeBody(body any, header http.Header, limit int64) (io.Reader, error) {
	data, err := marshalBody(body, header, limit)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	if limit > 0 && int64(len(data)) > limit {
		return nil, bodyLengthExceeded()
	}
	return bytes.NewReader(data), nil
}

func marshalBody(body any, header http.Header, limit int64) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	case url.Values:
		setDefaultContentType(header, contentTypeForm)
		return []byte(b.Encode()), nil
	case io.Reader:
		if limit <= 0 {
			limit = -1
		}
		data, err := io.ReadAll(iolib.NewCeilingReader(b, limit))
		if errors.Is(err, iolib.ErrCeilingExceeded) {
			return nil, bodyLengthExceeded()
		}
		return data, errors.Wrap(err, "reading request body")
	}

	if mediaType(header) == codec.ContentType {
		data, err := codec.Marshal(body)
		return data, errors.Wrap(err, "encoding cbor body")
	}

	setDefaultContentType(header, contentTypeJSON)
	data, err := json.Marshal(body)
	return data, errors.Wrap(err, "encoding json body")
}

func setDefaultContentType(header http.Header, v string) {
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", v)
	}
}

func mediaType(header http.Header) string {
	mt, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

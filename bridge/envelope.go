package bridge

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"http-bridge/lib/codec"

	"github.com/pkg/errors"
)

// Envelope is a completed response. It is never modified after an exchange
// returns it; accessors hand out copies.
type Envelope struct {
	status     int
	statusText string
	header     http.Header
	body       []byte
}

func newEnvelope(res *http.Response, body []byte) *Envelope {
	text := strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode))

	return &Envelope{
		status:     res.StatusCode,
		statusText: strings.TrimSpace(text),
		header:     res.Header.Clone(),
		body:       body,
	}
}

func (e *Envelope) Status() int { return e.status }

// StatusText is the reason phrase the server sent, which is not necessarily
// the standard one for the status.
func (e *Envelope) StatusText() string { return e.statusText }

// Header returns a copy of the response header. Keys are in canonical form
// whatever case the server wrote them in, so look them up with Get.
func (e *Envelope) Header() http.Header { return e.header.Clone() }

func (e *Envelope) Body() []byte { return bytes.Clone(e.body) }

func (e *Envelope) Text() string { return string(e.body) }

func (e *Envelope) JSON(v any) error {
	return errors.Wrap(json.Unmarshal(e.body, v), "decoding json body")
}

func (e *Envelope) CBOR(v any) error {
	return errors.Wrap(codec.Unmarshal(e.body, v), "decoding cbor body")
}

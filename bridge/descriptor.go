package bridge

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// defaultHost fills in requests whose URL does not name a host.
const defaultHost = "localhost"

// Descriptor describes one exchange.
type Descriptor struct {
	Method  string // GET if empty.
	BaseURL string
	URL     string
	Params  url.Values
	Headers http.Header

	// Body is sent as is when it is a string, []byte or io.Reader, form encoded
	// when it is url.Values, and marshaled otherwise: as CBOR if Content-Type
	// says application/cbor, as JSON if not.
	Body any

	// Limits. Zero or less means no limit.
	MaxContentLength int64
	MaxBodyLength    int64
	Timeout          time.Duration

	DisableDecompression bool

	// ValidateStatus rejects a response when it returns false.
	ValidateStatus func(status int) bool
}

func (d Descriptor) merge(defaults Defaults) Descriptor {
	if d.BaseURL == "" {
		d.BaseURL = defaults.BaseURL
	}
	if d.MaxContentLength == 0 {
		d.MaxContentLength = defaults.MaxContentLength
	}
	if d.MaxBodyLength == 0 {
		d.MaxBodyLength = defaults.MaxBodyLength
	}
	if d.Timeout == 0 {
		d.Timeout = defaults.Timeout
	}
	d.DisableDecompression = d.DisableDecompression || defaults.DisableDecompression

	headers := make(http.Header, len(defaults.Headers)+len(d.Headers))
	for k, vs := range defaults.Headers {
		headers[http.CanonicalHeaderKey(k)] = slices.Clone(vs)
	}
	for k, vs := range d.Headers {
		headers[http.CanonicalHeaderKey(k)] = slices.Clone(vs)
	}
	d.Headers = headers

	return d
}

var absoluteURL = regexp.MustCompile(`(?i)^([a-z][a-z\d+\-.]*:)?//`)

// combineURL joins base and rel with exactly one slash.
func combineURL(base, rel string) string {
	if rel == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}

func (d Descriptor) location() (*url.URL, error) {
	raw := d.URL
	if d.BaseURL != "" && !absoluteURL.MatchString(raw) {
		raw = combineURL(d.BaseURL, raw)
	}

	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	if len(d.Params) > 0 {
		sep := "?"
		if strings.Contains(raw, "?") {
			sep = "&"
		}
		raw += sep + d.Params.Encode()
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing url")
	}

	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = defaultHost
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// request builds the request d describes. d must already be merged.
func (d Descriptor) request(ctx context.Context) (*http.Request, error) {
	method := strings.ToUpper(d.Method)
	if method == "" {
		method = http.MethodGet
	}

	u, err := d.location()
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(d.Body, d.Headers, d.MaxBodyLength)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	req.Header = d.Headers
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	return req, nil
}

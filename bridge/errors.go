package bridge

import (
	"fmt"
	"time"
)

// Kind classifies why an exchange failed.
type Kind int

const (
	KindOther Kind = iota
	KindConnReset
	KindServerFault
	KindHandlerFault
	KindContentLengthExceeded
	KindBodyLengthExceeded
	KindTimeout
	KindCanceled
	KindBadStatus
)

func (k Kind) String() string {
	switch k {
	case KindConnReset:
		return "connection reset"
	case KindServerFault:
		return "server fault"
	case KindHandlerFault:
		return "handler fault"
	case KindContentLengthExceeded:
		return "content length exceeded"
	case KindBodyLengthExceeded:
		return "body length exceeded"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindBadStatus:
		return "bad status"
	default:
		return "other"
	}
}

// Error is returned by a failed exchange.
type Error struct {
	Kind    Kind
	Message string

	// Envelope is the response that failed status validation. Only set for KindBadStatus.
	Envelope *Envelope

	Err error
}

// Sentinels to test an exchange error against with errors.Is.
var (
	ErrConnReset             = &Error{Kind: KindConnReset}
	ErrServerFault           = &Error{Kind: KindServerFault}
	ErrHandlerFault          = &Error{Kind: KindHandlerFault}
	ErrContentLengthExceeded = &Error{Kind: KindContentLengthExceeded}
	ErrBodyLengthExceeded    = &Error{Kind: KindBodyLengthExceeded}
	ErrTimeout               = &Error{Kind: KindTimeout}
	ErrCanceled              = &Error{Kind: KindCanceled}
	ErrBadStatus             = &Error{Kind: KindBadStatus}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

const hangUp = "socket hang up"

func connReset(cause error) *Error {
	return &Error{Kind: KindConnReset, Message: hangUp, Err: cause}
}

func handlerFault(cause error) *Error {
	return &Error{Kind: KindHandlerFault, Message: hangUp, Err: cause}
}

func serverFault(cause error) *Error {
	return &Error{Kind: KindServerFault, Message: cause.Error(), Err: cause}
}

func contentLengthExceeded(limit int64) *Error {
	return &Error{
		Kind:    KindContentLengthExceeded,
		Message: fmt.Sprintf("maxContentLength size of %d exceeded", limit),
	}
}

func bodyLengthExceeded() *Error {
	return &Error{
		Kind:    KindBodyLengthExceeded,
		Message: "request body larger than maxBodyLength limit",
	}
}

func timedOut(d time.Duration, cause error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("timeout of %dms exceeded", d.Milliseconds()),
		Err:     cause,
	}
}

func canceled(cause error) *Error {
	return &Error{Kind: KindCanceled, Message: "exchange canceled", Err: cause}
}

func badStatus(env *Envelope) *Error {
	return &Error{
		Kind:     KindBadStatus,
		Message:  fmt.Sprintf("request failed with status code %d", env.Status()),
		Envelope: env,
	}
}

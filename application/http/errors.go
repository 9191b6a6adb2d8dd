package http

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an [Error].
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidURL
	KindUnknownScheme
	KindDNS
	KindConnectionFailed
	KindTooManyRedirects
	KindBadStatus
	KindBadHeader
	KindIO
	KindTimeout
	KindHTTPStatus
	KindBodyNotReplayable
)

var kindTexts = [...]string{
	KindUnknown:           "Unknown Error",
	KindInvalidURL:        "Bad URL",
	KindUnknownScheme:     "Unknown Scheme",
	KindDNS:               "Dns Failed",
	KindConnectionFailed:  "Connection Failed",
	KindTooManyRedirects:  "Too Many Redirects",
	KindBadStatus:         "Bad Status",
	KindBadHeader:         "Bad Header",
	KindIO:                "Network Error",
	KindTimeout:           "Timed Out",
	KindHTTPStatus:        "HTTP status error",
	KindBodyNotReplayable: "Body Not Replayable",
}

func (k Kind) String() string {
	if int(k) < len(kindTexts) {
		return kindTexts[k]
	}
	return kindTexts[KindUnknown]
}

// Error is a failure of a single request, from URL parsing to body reading.
type Error struct {
	Kind    Kind
	Message string
	// URL is the request URL the failure happened at, if known.
	URL string
	Err error
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func WrapError(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	b := new(strings.Builder)
	if e.URL != "" {
		b.WriteString(e.URL)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// StatusError is returned for 4xx and 5xx responses.
// Response is complete, and its body is still readable.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: status code %d", e.Response.URL, KindHTTPStatus, e.Response.StatusCode)
}

// KindOf returns the kind of the first [Error] or [StatusError] in err's chain.
func KindOf(err error) Kind {
	var se *StatusError
	if errors.As(err, &se) {
		return KindHTTPStatus
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// WithURL sets url on err if it is an [Error] without one.
func WithURL(err error, url string) error {
	var e *Error
	if errors.As(err, &e) && e.URL == "" {
		e.URL = url
	}
	return err
}

// ioError classifies a failed read or write on the connection.
// Errors that already carry a kind pass through.
func ioError(err error, msg string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	if IsTimeout(err) {
		return WrapError(KindTimeout, err, msg)
	}
	return WrapError(KindIO, err, msg)
}

// IsTimeout reports whether err comes from an expired deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isClosed reports whether err means the peer is gone. TLS peers that skip
// close_notify surface as [io.ErrUnexpectedEOF].
func isClosed(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed)
}

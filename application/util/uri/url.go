package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrASCII         = errors.New("URL must be ASCII")
	ErrControl       = errors.New("URL must not contain spaces or control characters")
	ErrScheme        = errors.New("URL has no scheme separator \"://\"")
	ErrUnknownScheme = errors.New("URL scheme is not supported")
	ErrHost          = errors.New("URL has no host followed by a path")
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// DefaultPort returns the well-known port of scheme, or 0 when there is none.
func DefaultPort(scheme string) uint16 {
	switch scheme {
	case SchemeHTTP:
		return 80
	case SchemeHTTPS:
		return 443
	}
	return 0
}

type span struct{ start, end int }

// URL is an absolute http(s) URL kept as the original string plus offsets
// into it. The zero value is not a valid URL.
type URL struct {
	raw string

	scheme span
	host   span
	path   span

	port    uint16
	hasPort bool
}

// Parse splits s into connection coordinates.
//
// The authority ends at the first '/' after "://". A port that is not a
// decimal uint16 is ignored and the scheme default is used instead.
// Spaces and control characters are rejected, since the path ends up in the
// request line as is.
func Parse(s string) (URL, error) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= 0x80:
			return URL{}, ErrASCII
		case c <= ' ' || c == 0x7f:
			return URL{}, errors.Wrapf(ErrControl, "byte %q at %d", c, i)
		}
	}

	si := strings.Index(s, "://")
	if si < 0 {
		return URL{}, ErrScheme
	}
	switch s[:si] {
	case SchemeHTTP, SchemeHTTPS:
	default:
		return URL{}, errors.Wrapf(ErrUnknownScheme, "scheme %q", s[:si])
	}

	hi := si + len("://")
	slash := strings.IndexByte(s[hi:], '/')
	if slash < 0 {
		return URL{}, ErrHost
	}
	hj := hi + slash

	u := URL{
		raw:    s,
		scheme: span{0, si},
		host:   span{hi, hj},
		path:   span{hj, len(s)},
	}

	if colon := strings.IndexByte(s[hi:hj], ':'); colon >= 0 {
		u.host.end = hi + colon
		if port, err := strconv.ParseUint(s[hi+colon+1:hj], 10, 16); err == nil {
			u.port, u.hasPort = uint16(port), true
		}
	}

	if u.host.start == u.host.end {
		return URL{}, ErrHost
	}

	return u, nil
}

func (u URL) String() string { return u.raw }
func (u URL) Scheme() string { return u.raw[u.scheme.start:u.scheme.end] }
func (u URL) Host() string   { return u.raw[u.host.start:u.host.end] }

// Path returns everything from the first '/' of the URL, query included.
func (u URL) Path() string { return u.raw[u.path.start:u.path.end] }

// Port returns the explicit port, or the scheme default.
func (u URL) Port() uint16 {
	if u.hasPort {
		return u.port
	}
	return DefaultPort(u.Scheme())
}

// ExplicitPort reports the port written in the URL, if any was valid.
func (u URL) ExplicitPort() (uint16, bool) { return u.port, u.hasPort }

func (u URL) IsTLS() bool { return u.Scheme() == SchemeHTTPS }

// authority is the raw text between "://" and the path, port included.
func (u URL) authority() string { return u.raw[u.host.start:u.path.start] }

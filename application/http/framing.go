package http

import (
	"fmt"
	"strconv"
	"strings"

	"wirehttp/application/http/status"
)

type FramingMode uint8

const (
	// FramingUntilClose delimits the body by the server closing the connection.
	FramingUntilClose FramingMode = iota
	// FramingFixed delimits the body by Content-Length.
	FramingFixed
	// FramingChunked delimits the body by the last chunk.
	FramingChunked
)

// Framing tells how many bytes on the connection belong to a response body.
type Framing struct {
	Mode FramingMode
	// Length is the body size in bytes when Mode is [FramingFixed].
	Length uint64
}

func (f Framing) String() string {
	switch f.Mode {
	case FramingFixed:
		return fmt.Sprintf("fixed(%d)", f.Length)
	case FramingChunked:
		return "chunked"
	}
	return "until-close"
}

// DecideFraming picks the body framing of a response to a method request.
//
// Responses to HEAD, 204 and 304 have no body. Otherwise the first match
// wins: HTTP/1.0 or "Connection: close" read until close, a non-empty
// Transfer-Encoding is chunked, a valid Content-Length is fixed, and
// anything else reads until close.
func DecideFraming(method string, sl StatusLine, headers Headers) Framing {
	if method == MethodHead || status.HasNoBody(sl.StatusCode) {
		return Framing{Mode: FramingFixed, Length: 0}
	}

	if sl.Version == Version10 || headers.HasToken("Connection", "close") {
		return Framing{Mode: FramingUntilClose}
	}

	if te, ok := headers.Get("Transfer-Encoding"); ok && strings.TrimSpace(te) != "" {
		// Whatever it says, do chunked.
		return Framing{Mode: FramingChunked}
	}

	if cl, ok := headers.Get("Content-Length"); ok {
		if n, err := strconv.ParseUint(cl, 10, 64); err == nil {
			return Framing{Mode: FramingFixed, Length: n}
		}
	}

	return Framing{Mode: FramingUntilClose}
}

// keepAlive reports whether the connection can carry another exchange once
// a body framed by f is fully read.
func keepAlive(f Framing, sl StatusLine, headers Headers) bool {
	return f.Mode != FramingUntilClose &&
		sl.Version == Version11 &&
		!headers.HasToken("Connection", "close")
}

package http

import (
	"bytes"
	"fmt"
	"io"

	"wirehttp/application/util/rule"
	iolib "wirehttp/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// MaxFieldLineLength sets the limit of a single header line, excluding
	// its terminator. Zero means no limit.
	MaxFieldLineLength uint

	// MaxFields sets the limit of header count. Zero means no limit.
	MaxFields uint

	// MaxHeaderBlockLength sets the limit of status line and headers
	// together, terminator included. Zero means no limit.
	MaxHeaderBlockLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	MaxFieldLineLength:   1024,
	MaxFields:            64,
	MaxHeaderBlockLength: 16 << 10,
}

var headerTerminator = []byte("\r\n\r\n")

type ResponseDecoder struct {
	s    Stream
	opts DecodeOptions
}

func NewResponseDecoder(s Stream, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{s: s, opts: opts}
}

// Decode reads the status line and headers of the response to a method
// request. The returned body owns the stream.
func (rd *ResponseDecoder) Decode(method string) (*Response, error) {
	block, err := rd.s.ReadUntilLimit(headerTerminator, rd.opts.MaxHeaderBlockLength)
	if err != nil {
		return nil, rd.readError(block, err)
	}
	block = block[:len(block)-len(headerTerminator)]

	statusLine, fieldBlock := block, []byte(nil)
	if idx := bytes.IndexByte(block, rule.LF); idx >= 0 {
		statusLine, fieldBlock = block[:idx+1], block[idx+1:]
	}

	sl, err := ParseStatusLine(statusLine)
	if err != nil {
		return nil, err
	}

	headers, err := ParseHeaders(fieldBlock, rd.opts)
	if err != nil {
		return nil, err
	}

	framing := DecideFraming(method, sl, headers)
	body := newBody(
		rd.s, framing,
		headers.Has("Trailer"),
		keepAlive(framing, sl, headers),
	)

	return &Response{
		StatusLine: sl,
		Headers:    headers,
		Body:       body,
	}, nil
}

func (rd *ResponseDecoder) readError(partial []byte, err error) error {
	switch {
	case errors.Is(err, iolib.ErrLimitExceeded):
		return NewError(KindBadHeader, fmt.Sprintf(
			"headers too large: no end of headers within %d bytes", rd.opts.MaxHeaderBlockLength))
	case err == io.EOF && len(partial) == 0:
		return WrapError(KindIO, err, "connection closed before response")
	case err == io.EOF:
		return WrapError(KindIO, io.ErrUnexpectedEOF, "connection closed within headers")
	}
	return ioError(err, "reading headers")
}

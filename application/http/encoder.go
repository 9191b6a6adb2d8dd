package http

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"wirehttp/application/http/transfer"
	"wirehttp/application/util/rule"
	"wirehttp/application/util/uri"
	iolib "wirehttp/lib/io"

	"github.com/indigo-web/utils/strcomp"
	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

type EncodeOptions struct {
	// UserAgent is sent unless the request sets its own.
	UserAgent string
}

var DefaultEncodeOptions = EncodeOptions{
	UserAgent: "wirehttp/1.0",
}

// Prelude is the request line and header section of a request.
type Prelude struct {
	buf []byte
	// sensitive are value spans left out of String.
	sensitive [][2]int
}

func (p *Prelude) Bytes() []byte { return p.buf }

// String renders the prelude for logs, credentials masked as "***".
func (p *Prelude) String() string {
	out := make([]byte, 0, len(p.buf))
	pos := 0
	for _, span := range p.sensitive {
		out = append(out, p.buf[pos:span[0]]...)
		out = append(out, "***"...)
		pos = span[1]
	}
	out = append(out, p.buf[pos:]...)

	return strings.TrimRight(string(out), "\r\n")
}

func (p *Prelude) writeLine(parts ...string) {
	for _, part := range parts {
		p.buf = append(p.buf, part...)
	}
	p.buf = append(p.buf, rule.CRLF...)
}

func (p *Prelude) writeHeader(name, value string) {
	p.writeLine(name, ": ", value)
}

func (p *Prelude) writeSensitiveHeader(name, value string) {
	p.buf = append(p.buf, name...)
	p.buf = append(p.buf, ':', rule.SP)
	start := len(p.buf)
	p.buf = append(p.buf, value...)
	p.sensitive = append(p.sensitive, [2]int{start, len(p.buf)})
	p.buf = append(p.buf, rule.CRLF...)
}

func isFraming(name string) bool {
	return strcomp.EqualFold(name, "Content-Length") || strcomp.EqualFold(name, "Transfer-Encoding")
}

func isSensitive(name string) bool {
	return strcomp.EqualFold(name, "Authorization") || strcomp.EqualFold(name, "Cookie")
}

type RequestEncoder struct {
	w    io.Writer
	opts EncodeOptions
}

func NewRequestEncoder(w io.Writer, opts EncodeOptions) *RequestEncoder {
	return &RequestEncoder{w: w, opts: opts}
}

// Encode writes request. The prelude goes out in a single write, followed
// by the payload if any. The returned prelude is valid even on write errors.
func (re *RequestEncoder) Encode(request *Request) (*Prelude, error) {
	var body io.Reader
	size := int64(0)
	if request.Payload != nil {
		r, err := request.Payload.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening payload")
		}
		body, size = r, request.Payload.Size()
	}

	prelude, err := BuildPrelude(request, re.opts)
	if err != nil {
		return nil, err
	}

	if _, err := iolib.WriteFull(re.w, prelude.Bytes()); err != nil {
		return prelude, ioError(err, "writing request prelude")
	}

	if body == nil {
		return prelude, nil
	}

	if size < 0 {
		return prelude, re.writeChunked(body)
	}
	return prelude, re.writeSized(body, size)
}

func (re *RequestEncoder) writeSized(body io.Reader, size int64) error {
	n, err := io.Copy(re.w, iolib.LimitReader(body, uint(size)))
	if err != nil {
		return ioError(err, "writing request body")
	}
	if n != size {
		return WrapError(KindIO, io.ErrUnexpectedEOF,
			"request body is shorter than its size "+strconv.FormatInt(size, 10))
	}
	return nil
}

func (re *RequestEncoder) writeChunked(body io.Reader) error {
	bw := bufio.NewWriter(re.w)
	cw := transfer.NewChunkedWriter(bw)

	if _, err := io.Copy(cw, body); err != nil {
		return ioError(err, "writing chunked request body")
	}
	if err := cw.Close(); err != nil {
		return ioError(err, "writing last chunk")
	}
	if err := bw.Flush(); err != nil {
		return ioError(err, "flushing chunked request body")
	}
	return nil
}

// BuildPrelude serializes the request line and headers.
//
// Host, User-Agent and Accept are added unless request has them.
// Content-Length and Transfer-Encoding always follow the payload; caller
// values for them are left out.
func BuildPrelude(request *Request, opts EncodeOptions) (*Prelude, error) {
	if !rule.IsValidToken(request.Method) {
		return nil, NewError(KindInvalidURL, "method is not a valid token: "+strconv.Quote(request.Method))
	}

	h := request.Headers
	for _, f := range h.fields {
		if !httpguts.ValidHeaderFieldName(string(f.Name)) {
			return nil, NewError(KindBadHeader, "invalid header name: "+strconv.Quote(string(f.Name)))
		}
		if !httpguts.ValidHeaderFieldValue(string(f.Value)) {
			return nil, NewError(KindBadHeader, "invalid value for header "+string(f.Name))
		}
	}

	p := &Prelude{buf: make([]byte, 0, 256)}
	p.writeLine(request.Method, " ", request.URL.Path(), " ", Version11.String())

	if !h.Has("Host") {
		p.writeHeader("Host", hostHeader(request.URL))
	}
	if !h.Has("User-Agent") && opts.UserAgent != "" {
		p.writeHeader("User-Agent", opts.UserAgent)
	}
	if !h.Has("Accept") {
		p.writeHeader("Accept", "*/*")
	}

	if pl := request.Payload; pl != nil {
		if ct := pl.ContentType(); ct != "" && !h.Has("Content-Type") {
			p.writeHeader("Content-Type", ct)
		}

		if size := pl.Size(); size < 0 {
			p.writeHeader("Transfer-Encoding", transfer.CodingChunked)
		} else {
			p.writeHeader("Content-Length", strconv.FormatInt(size, 10))
		}
	}

	for _, f := range h.fields {
		name, value := string(f.Name), string(f.Value)
		switch {
		case isFraming(name):
			continue
		case isSensitive(name):
			p.writeSensitiveHeader(name, value)
		default:
			p.writeHeader(name, value)
		}
	}

	p.writeLine()

	return p, nil
}

// hostHeader leaves out the port when it is the scheme default.
func hostHeader(u uri.URL) string {
	port, explicit := u.ExplicitPort()
	if !explicit || port == uri.DefaultPort(u.Scheme()) {
		return u.Host()
	}
	return u.Host() + ":" + strconv.FormatUint(uint64(port), 10)
}

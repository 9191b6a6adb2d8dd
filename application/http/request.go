package http

import (
	"bytes"
	"io"

	"wirehttp/application/util/uri"

	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type Request struct {
	Method  string
	URL     uri.URL
	Headers Headers
	// Payload is nil for requests without a body.
	Payload Payload
}

// NewRequest parses rawURL and builds a request without headers.
func NewRequest(method, rawURL string, payload Payload) (*Request, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	return &Request{Method: method, URL: u, Payload: payload}, nil
}

// ParseURL is [uri.Parse] with errors classified.
func ParseURL(rawURL string) (uri.URL, error) {
	u, err := uri.Parse(rawURL)
	if err != nil {
		return uri.URL{}, URLError(rawURL, err)
	}
	return u, nil
}

// URLError classifies err, returned by [uri.Parse] or [uri.Resolve] for
// rawURL.
func URLError(rawURL string, err error) *Error {
	kind := KindInvalidURL
	if errors.Is(err, uri.ErrUnknownScheme) {
		kind = KindUnknownScheme
	}

	e := WrapError(kind, err, "")
	e.URL = rawURL
	return e
}

var ErrPayloadConsumed = errors.New("payload was already read")

// Payload describes a request body.
type Payload interface {
	// Size is the length in bytes, or -1 when unknown.
	// Unknown sizes are sent chunked.
	Size() int64
	// Open returns a reader over the body. Only replayable payloads can be
	// opened more than once.
	Open() (io.Reader, error)
	Replayable() bool
	// ContentType is sent when the request doesn't set one. May be empty.
	ContentType() string
}

type bytesPayload struct {
	data        []byte
	contentType string
}

// BytesPayload sends data as is. data must not be modified afterwards.
func BytesPayload(data []byte) Payload {
	return &bytesPayload{data: data}
}

// TextPayload sends s as UTF-8 text.
func TextPayload(s string) Payload {
	return &bytesPayload{data: []byte(s), contentType: "text/plain; charset=utf-8"}
}

// JSONPayload serializes model up front.
func JSONPayload(model any) (Payload, error) {
	stream := json.ConfigDefault.BorrowStream(nil)
	stream.WriteVal(model)
	data, err := bytes.Clone(stream.Buffer()), stream.Error
	json.ConfigDefault.ReturnStream(stream)

	if err != nil {
		return nil, errors.Wrap(err, "encoding json payload")
	}

	return &bytesPayload{data: data, contentType: "application/json"}, nil
}

func (p *bytesPayload) Size() int64              { return int64(len(p.data)) }
func (p *bytesPayload) Open() (io.Reader, error) { return bytes.NewReader(p.data), nil }
func (p *bytesPayload) Replayable() bool         { return true }
func (p *bytesPayload) ContentType() string      { return p.contentType }

type readerPayload struct {
	r      io.Reader
	size   int64
	opened bool
}

// ReaderPayload sends exactly size bytes from r, or the whole of r chunked
// when size is negative. The payload can be sent only once.
func ReaderPayload(r io.Reader, size int64) Payload {
	if size < 0 {
		size = -1
	}
	return &readerPayload{r: r, size: size}
}

func (p *readerPayload) Size() int64         { return p.size }
func (p *readerPayload) Replayable() bool    { return false }
func (p *readerPayload) ContentType() string { return "" }

func (p *readerPayload) Open() (io.Reader, error) {
	if p.opened {
		return nil, ErrPayloadConsumed
	}
	p.opened = true
	return p.r, nil
}

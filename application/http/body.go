package http

import (
	"io"

	"wirehttp/application/http/transfer"
	iolib "wirehttp/lib/io"

	"github.com/pkg/errors"
)

// Stream is an exclusively owned connection that can replay bytes read past
// a message boundary.
type Stream interface {
	io.ReadWriteCloser
	Unread(p []byte)
	ReadUntilLimit(delim []byte, limit uint) ([]byte, error)
}

var ErrBodyClosed = errors.New("read on closed body")

// Body reads a response body off its connection and owns that connection
// until it is closed or taken back with [Body.TakeConn].
type Body struct {
	stream    Stream
	r         io.Reader
	framing   Framing
	keepAlive bool

	eof      bool
	closed   bool
	released bool // stream is closed or handed back
}

func newBody(s Stream, f Framing, trailer, keepAlive bool) *Body {
	b := &Body{stream: s, framing: f, keepAlive: keepAlive}

	switch f.Mode {
	case FramingFixed:
		b.r = iolib.FixedReader(s, uint(f.Length))
	case FramingChunked:
		b.r = transfer.NewChunkedReader(s, trailer)
	default:
		b.r = &untilCloseReader{r: s}
	}

	return b
}

func (b *Body) Framing() Framing { return b.framing }

func (b *Body) Read(p []byte) (int, error) {
	if b.closed {
		return 0, ErrBodyClosed
	}
	if b.eof {
		return 0, io.EOF
	}

	n, err := b.r.Read(p)
	switch {
	case err == nil:
		return n, nil
	case err == io.EOF:
		b.eof = true
		if !b.keepAlive {
			// Nothing else can come over this connection.
			_ = b.release()
		}
		return n, io.EOF
	default:
		return n, ioError(err, "reading body")
	}
}

// TakeConn hands the connection back once the body is fully read and the
// connection can carry another exchange. Close then leaves it open.
// ok is false when the connection has to be closed instead.
func (b *Body) TakeConn() (_ Stream, ok bool) {
	if b.closed || b.released || !b.keepAlive || !b.exhausted() {
		return nil, false
	}

	b.released = true
	return b.stream, true
}

func (b *Body) exhausted() bool {
	if b.eof {
		return true
	}

	if fr, ok := b.r.(*iolib.FixedLengthReader); ok {
		return fr.Remaining() == 0
	}
	return false
}

// Close closes the connection unless it was taken back.
func (b *Body) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	return b.release()
}

func (b *Body) release() error {
	if b.released {
		return nil
	}
	b.released = true

	if err := b.stream.Close(); err != nil {
		return errors.Wrap(err, "closing connection")
	}
	return nil
}

// untilCloseReader treats the connection going away as the end of body.
type untilCloseReader struct{ r io.Reader }

func (r *untilCloseReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	if err != nil && isClosed(err) {
		return n, io.EOF
	}
	return n, err
}

package transfer

import (
	"io"
	"strconv"

	"wirehttp/application/util/rule"
	iolib "wirehttp/lib/io"

	"github.com/indigo-web/chunkedbody"
	"github.com/pkg/errors"
)

const CodingChunked = "chunked"

// Unreader is a reader that can take back bytes it has handed out.
type Unreader interface {
	io.Reader
	Unread(p []byte)
}

// ChunkedReader decodes a chunked message body.
// Bytes that follow the last chunk and trailer section are unread into the
// source, so the next message on the connection starts intact.
type ChunkedReader struct {
	src     Unreader
	parser  *chunkedbody.Parser
	trailer bool

	buf     []byte
	pending []byte
	done    bool
}

var _ io.Reader = (*ChunkedReader)(nil)

// NewChunkedReader converts chunked http message into byte stream.
// trailer tells whether the sender announced a trailer section.
func NewChunkedReader(src Unreader, trailer bool) *ChunkedReader {
	return &ChunkedReader{
		src:     src,
		parser:  chunkedbody.NewParser(chunkedbody.DefaultSettings()),
		trailer: trailer,
		buf:     make([]byte, 4096),
	}
}

func (cr *ChunkedReader) Read(p []byte) (int, error) {
	for len(cr.pending) == 0 {
		if cr.done {
			return 0, io.EOF
		}

		if err := cr.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(p, cr.pending)
	cr.pending = cr.pending[n:]
	return n, nil
}

// fill reads from src once and decodes whatever arrived into pending.
func (cr *ChunkedReader) fill() error {
	n, rerr := cr.src.Read(cr.buf)

	data := cr.buf[:n]
	for len(data) > 0 && !cr.done {
		chunk, extra, err := cr.parser.Parse(data, cr.trailer)
		switch err {
		case nil:
		case io.EOF:
			cr.done = true
			cr.src.Unread(extra)
		default:
			return errors.Wrap(err, "decoding chunk")
		}

		// chunk points into buf, which the next read overwrites.
		cr.pending = append(cr.pending, chunk...)
		data = extra
	}

	if rerr != nil && !cr.done {
		if rerr == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return rerr
	}

	return nil
}

// ChunkedWriter encodes every Write as one chunk. Close writes the last
// chunk and an empty trailer section, but does not close w.
type ChunkedWriter struct {
	w      io.Writer
	header []byte
}

var _ io.WriteCloser = (*ChunkedWriter)(nil)

func NewChunkedWriter(w io.Writer) *ChunkedWriter {
	return &ChunkedWriter{w: w, header: make([]byte, 0, 18)}
}

func (cw *ChunkedWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		// We should ignore 0 length chunks since it means EOF.
		return 0, nil
	}

	if err := cw.writeSize(uint64(len(p))); err != nil {
		return 0, err
	}

	written, err := iolib.WriteFull(cw.w, p)
	if err != nil {
		return int(written), errors.Wrap(err, "writing chunk data")
	}

	if _, err := iolib.WriteFull(cw.w, rule.CRLF); err != nil {
		return len(p), errors.Wrap(err, "writing chunk delimiter")
	}

	return len(p), nil
}

func (cw *ChunkedWriter) Close() error {
	if err := cw.writeSize(0); err != nil {
		return err
	}

	// No trailers.
	if _, err := iolib.WriteFull(cw.w, rule.CRLF); err != nil {
		return errors.Wrap(err, "writing last trailer line")
	}

	return nil
}

func (cw *ChunkedWriter) writeSize(size uint64) error {
	cw.header = strconv.AppendUint(cw.header[:0], size, 16)
	cw.header = append(cw.header, rule.CRLF...)

	if _, err := iolib.WriteFull(cw.w, cw.header); err != nil {
		return errors.Wrap(err, "writing chunk header")
	}
	return nil
}

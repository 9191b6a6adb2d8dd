package iolib

import (
	"bytes"
	"io"
	"math"

	"github.com/indigo-web/utils/buffer"
	"github.com/pkg/errors"
)

// UntilReader reads from underlying reader while keeping the bytes that were
// read past a delimiter (the carry-over). Carry-over is always handed out
// before the underlying reader is touched again.
type UntilReader struct {
	r       io.Reader
	pending []byte

	chunkSize int
}

const defaultChunkSize = 4096

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r, chunkSize: defaultChunkSize}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if len(ur.pending) > 0 {
		n = copy(p, ur.pending)
		ur.pending = ur.pending[n:]
		if len(ur.pending) == 0 {
			ur.pending = nil
		}
		return n, nil
	}

	return ur.r.Read(p)
}

// Unread pushes p back in front of the carry-over.
// p is copied, so the caller may reuse it.
func (ur *UntilReader) Unread(p []byte) {
	if len(p) == 0 {
		return
	}

	pending := make([]byte, 0, len(p)+len(ur.pending))
	pending = append(pending, p...)
	ur.pending = append(pending, ur.pending...)
}

// Buffered returns the number of carry-over bytes.
func (ur *UntilReader) Buffered() int { return len(ur.pending) }

var (
	ErrZeroLenDelim  = errors.New("delim has zero length")
	ErrLimitExceeded = errors.New("delim not found within limit")
)

// ReadUntilLimit reads until delim. The output includes delim. At most limit
// bytes (delim included) are held while searching. Zero limit means no limit.
//
// When the limit is hit, [ErrLimitExceeded] is returned and the bytes read so
// far are dropped. When the underlying reader fails first, the bytes read so
// far are returned along with the error.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	capacity := math.MaxInt
	if limit > 0 && limit < uint(capacity) {
		capacity = int(limit)
	}

	buf := buffer.New(min(capacity, ur.chunkSize), capacity)
	temp := make([]byte, ur.chunkSize)

	for {
		// Never read more than the buffer can take, so nothing past the
		// limit is pulled off the underlying reader.
		room := min(capacity-buf.SegmentLength(), len(temp))
		if room == 0 {
			return nil, ErrLimitExceeded
		}

		n, err := ur.Read(temp[:room])
		if n > 0 {
			// Delim could have started in the previous read.
			seekFrom := max(buf.SegmentLength()-len(delim)+1, 0)

			if !buf.Append(temp[:n]) {
				return nil, ErrLimitExceeded
			}

			if idx := bytes.Index(buf.Preview()[seekFrom:], delim); idx >= 0 {
				end := seekFrom + idx + len(delim)
				all := buf.Finish()
				ur.Unread(all[end:])
				return bytes.Clone(all[:end]), nil
			}
		}

		if err != nil {
			return bytes.Clone(buf.Finish()), err
		}
	}
}

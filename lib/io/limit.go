package iolib

import "io"

// LimitReader creates new [LimitedReader]
func LimitReader(r io.Reader, n uint) io.Reader { return &LimitedReader{r, n} }

// LimitedReader is uint port of [io.LimitedReader]
type LimitedReader struct {
	R io.Reader // underlying reader
	N uint      // max bytes remaining
}

func (l *LimitedReader) Read(p []byte) (n int, err error) {
	if l.N == 0 {
		return 0, io.EOF
	}
	if uint(len(p)) > l.N {
		p = p[:l.N]
	}
	n, err = l.R.Read(p)
	l.N -= uint(n)
	return
}

// FixedReader creates new [FixedLengthReader].
func FixedReader(r io.Reader, n uint) *FixedLengthReader {
	return &FixedLengthReader{LimitedReader{r, n}}
}

// FixedLengthReader works like [LimitedReader], except that the underlying
// reader must deliver exactly N bytes. Running out early is reported as
// [io.ErrUnexpectedEOF] instead of a clean [io.EOF].
type FixedLengthReader struct{ l LimitedReader }

func (f *FixedLengthReader) Remaining() uint { return f.l.N }

func (f *FixedLengthReader) Read(p []byte) (n int, err error) {
	if f.l.N == 0 {
		return 0, io.EOF
	}

	n, err = f.l.Read(p)
	if err == io.EOF {
		if f.l.N > 0 {
			return n, io.ErrUnexpectedEOF
		}
		if n > 0 {
			// Hand out the data first, EOF follows on the next call.
			return n, nil
		}
	}
	return n, err
}

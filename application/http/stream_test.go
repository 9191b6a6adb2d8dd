package http

import (
	"bytes"
	"strings"

	iolib "wirehttp/lib/io"
)

// testStream serves input and records what is written.
type testStream struct {
	*iolib.UntilReader
	written bytes.Buffer
	closed  bool
}

var _ Stream = (*testStream)(nil)

func newTestStream(input string) *testStream {
	return &testStream{UntilReader: iolib.NewUntilReader(strings.NewReader(input))}
}

func (s *testStream) Write(p []byte) (int, error) { return s.written.Write(p) }

func (s *testStream) Close() error {
	s.closed = true
	return nil
}

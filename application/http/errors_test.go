package http

import (
	"io"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestErrorString(t *testing.T) {
	testcases := []struct {
		desc     string
		err      *Error
		expected string
	}{
		{
			desc:     "kind only",
			err:      NewError(KindTooManyRedirects, ""),
			expected: "Too Many Redirects",
		},
		{
			desc:     "message",
			err:      NewError(KindBadStatus, "HTTP version not formatted correctly"),
			expected: "Bad Status: HTTP version not formatted correctly",
		},
		{
			desc:     "wrapped",
			err:      WrapError(KindIO, io.ErrUnexpectedEOF, "reading body"),
			expected: "Network Error: reading body: unexpected EOF",
		},
		{
			desc:     "url",
			err:      &Error{Kind: KindDNS, URL: "http://nowhere/", Message: "no addresses"},
			expected: "http://nowhere/: Dns Failed: no addresses",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := errors.Wrap(NewError(KindDNS, "no addresses"), "connecting")
	assert.Equal(t, KindDNS, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.Equal(t, KindHTTPStatus, KindOf(&StatusError{Response: &Response{}}))
	assert.Equal(t, "Unknown Error", Kind(200).String())
}

func TestWithURL(t *testing.T) {
	err := WithURL(NewError(KindIO, "boom"), "http://a/")
	assert.Equal(t, "http://a/: Network Error: boom", err.Error())

	// An already set URL is kept.
	err = WithURL(err, "http://b/")
	assert.Equal(t, "http://a/: Network Error: boom", err.Error())

	assert.Equal(t, io.EOF, WithURL(io.EOF, "http://a/"))
}

func TestIOError(t *testing.T) {
	assert.Equal(t, KindTimeout, KindOf(ioError(os.ErrDeadlineExceeded, "reading")))
	assert.Equal(t, KindTimeout, KindOf(ioError(timeoutError{}, "reading")))
	assert.Equal(t, KindIO, KindOf(ioError(io.ErrClosedPipe, "reading")))

	kept := NewError(KindBadHeader, "bad")
	assert.Same(t, kept, ioError(kept, "reading"))
}

func TestStatusError(t *testing.T) {
	u, err := ParseURL("http://example.com/missing")
	assert.NoError(t, err)

	se := &StatusError{Response: &Response{
		StatusLine: StatusLine{Version: Version11, StatusCode: 404},
		URL:        u,
	}}
	assert.Equal(t, "http://example.com/missing: HTTP status error: status code 404", se.Error())
}

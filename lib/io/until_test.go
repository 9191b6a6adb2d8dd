package iolib

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUntilUnlimited(t *testing.T) {
	sample := []byte("Hello, World!")

	testcases := []struct {
		desc     string
		delim    []byte
		expected []byte
		wantErr  error
	}{
		{
			desc:     "sample",
			delim:    []byte("Wo"),
			expected: []byte("Hello, Wo"),
		},
		{
			desc:     "not found",
			delim:    []byte("Bye!"),
			expected: []byte("Hello, World!"),
			wantErr:  io.EOF,
		},
		{
			desc:     "no delim",
			delim:    []byte(nil),
			expected: nil,
			wantErr:  ErrZeroLenDelim,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			r := NewUntilReader(bytes.NewReader(sample))
			b, err := r.ReadUntilLimit(tc.delim, 0)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expected, b)
		})
	}
}

func TestReadAfterReadUntil(t *testing.T) {
	sample := []byte("Hello, World!")
	r := NewUntilReader(bytes.NewReader(sample))

	b, err := r.ReadUntilLimit([]byte("el"), 0)
	require.NoError(t, err)
	require.Equal(t, []byte("Hel"), b)
	assert.Equal(t, 10, r.Buffered())

	buf := make([]byte, 10)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, []byte("lo, World!"), buf)
}

func TestReadUntilAfterReadUntil(t *testing.T) {
	sample := []byte("Hello, World!")
	r := NewUntilReader(bytes.NewReader(sample))

	b, err := r.ReadUntilLimit([]byte("el"), 0)
	require.NoError(t, err)
	require.Equal(t, []byte("Hel"), b)

	b, err = r.ReadUntilLimit([]byte("Wo"), 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("lo, Wo"), b)
}

// Delim split over two reads of the underlying reader.
func TestReadUntilSplitDelim(t *testing.T) {
	r := NewUntilReader(io.MultiReader(
		bytes.NewReader([]byte("HTTP/1.1 200 OK\r\n\r")),
		bytes.NewReader([]byte("\nbody")),
	))

	b, err := r.ReadUntilLimit([]byte("\r\n\r\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", string(b))

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "body", string(rest))
}

func TestReadUntilLimit(t *testing.T) {
	sample := []byte("Hello, World!")
	r := NewUntilReader(bytes.NewReader(sample))

	b, err := r.ReadUntilLimit([]byte("World!"), 3)
	require.ErrorIs(t, err, ErrLimitExceeded)
	assert.Nil(t, b)

	b, err = r.ReadUntilLimit([]byte("World!"), 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("lo, World!"), b)
}

func TestReadUntilLimitZero(t *testing.T) {
	sample := []byte("Hello, World!")
	r := NewUntilReader(bytes.NewReader(sample))

	b, err := r.ReadUntilLimit([]byte("World!"), 0)
	require.NoError(t, err)
	assert.Equal(t, sample, b)
}

func TestUnread(t *testing.T) {
	r := NewUntilReader(bytes.NewReader([]byte("World")))
	r.Unread([]byte(", "))
	r.Unread([]byte("Hello"))

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World", string(b))
}

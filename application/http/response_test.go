package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, input string) (*Response, *testStream) {
	t.Helper()
	stream := newTestStream(input)
	resp, err := NewResponseDecoder(stream, DefaultDecodeOptions).Decode(MethodGet)
	require.NoError(t, err)
	return resp, stream
}

func TestResponseString(t *testing.T) {
	resp, _ := decodeResponse(t, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	assert.Equal(t, "Response[status: 200, status_text: OK]", resp.String())

	resp, _ = decodeResponse(t, "HTTP/1.1 404 \r\nContent-Length: 0\r\n\r\n")
	assert.Equal(t, "Not Found", resp.StatusText())
}

func TestResponseReadAll(t *testing.T) {
	resp, stream := decodeResponse(t, "HTTP/1.1 200 OK\r\nContent-Length: 11\r\n\r\nhello world")

	body, err := resp.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
	assert.True(t, stream.closed)
}

func TestResponseDecodeJSON(t *testing.T) {
	resp, _ := decodeResponse(t,
		"HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nTransfer-Encoding: chunked\r\n\r\n"+
			"9\r\n{\"name\":\"\r\n6\r\nwire\"}\r\n0\r\n\r\n")

	var model struct {
		Name string `json:"name"`
	}
	require.NoError(t, resp.DecodeJSON(&model))
	assert.Equal(t, "wire", model.Name)
}

func TestResponseDecodeJSONError(t *testing.T) {
	resp, _ := decodeResponse(t, "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nnope!")

	var model map[string]any
	assert.Error(t, resp.DecodeJSON(&model))
}

package http

import (
	"fmt"
	"io"
	"strings"

	"wirehttp/application/http/status"
	"wirehttp/application/util/uri"

	json "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type Response struct {
	StatusLine
	Headers Headers
	Body    *Body

	// URL is where the response came from, after redirects.
	URL uri.URL
	// History lists the URLs redirected from, oldest first.
	History []string
}

// Header returns the first UTF-8 value of name, trimmed.
func (r *Response) Header(name string) (string, bool) {
	v, ok := r.Headers.Get(name)
	return strings.TrimSpace(v), ok
}

func (r *Response) StatusText() string {
	if r.ReasonPhrase != "" {
		return r.ReasonPhrase
	}
	return status.Text(r.StatusCode)
}

func (r *Response) String() string {
	return fmt.Sprintf("Response[status: %d, status_text: %s]", r.StatusCode, r.StatusText())
}

// ReadAll reads the whole body and closes it.
func (r *Response) ReadAll() ([]byte, error) {
	defer r.Body.Close()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return b, WithURL(err, r.URL.String())
	}
	return b, nil
}

// DecodeJSON reads the whole body into model and closes it.
func (r *Response) DecodeJSON(model any) error {
	data, err := r.ReadAll()
	if err != nil {
		return err
	}

	iterator := json.ConfigDefault.BorrowIterator(data)
	iterator.ReadVal(model)
	err = iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	if err != nil {
		return errors.Wrap(err, "decoding json body")
	}
	return nil
}

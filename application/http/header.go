package http

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"wirehttp/application/util/rule"

	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// Field is a single header line. Names are compared case-insensitively.
type Field struct{ Name, Value []byte }

func (f Field) Text() []byte {
	buf := make([]byte, 0, len(f.Name)+2+len(f.Value))
	buf = append(buf, f.Name...)
	buf = append(buf, ':', rule.SP)
	buf = append(buf, f.Value...)
	return buf
}

// Headers keeps every field in arrival order, duplicates included.
// Lookups return the first match.
type Headers struct{ fields []Field }

func NewHeaders(fields ...Field) Headers {
	return Headers{fields: slices.Clone(fields)}
}

// ParseHeaders parses a header block, which must not include the blank
// terminating line. Both CRLF and bare LF end a line. Names are stored in
// lower case and values are trimmed.
func ParseHeaders(block []byte, opts DecodeOptions) (Headers, error) {
	size := uint(bytes.Count(block, []byte{rule.LF}) + 1)
	if opts.MaxFields > 0 {
		size = min(size, opts.MaxFields)
	}
	fields := make([]Field, 0, size)

	for len(block) > 0 {
		line := block
		if idx := bytes.IndexByte(block, rule.LF); idx >= 0 {
			line, block = block[:idx], block[idx+1:]
		} else {
			block = nil
		}
		line = bytes.TrimSuffix(line, []byte{rule.CR})

		if len(line) == 0 {
			continue
		}

		if opts.MaxFieldLineLength > 0 && uint(len(line)) > opts.MaxFieldLineLength {
			return Headers{}, NewError(KindBadHeader, fmt.Sprintf(
				"header line is longer than %d bytes", opts.MaxFieldLineLength))
		}
		if opts.MaxFields > 0 && uint(len(fields)) >= opts.MaxFields {
			return Headers{}, NewError(KindBadHeader, fmt.Sprintf(
				"more than %d headers", opts.MaxFields))
		}

		field, err := ParseField(line)
		if err != nil {
			return Headers{}, err
		}
		fields = append(fields, field)
	}

	return Headers{fields: fields}, nil
}

// ParseField parses a single header line without its terminator.
func ParseField(line []byte) (Field, error) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return Field{}, NewError(KindBadHeader, "HTTP header must be a key-value separated by a colon")
	}

	if len(name) == 0 {
		return Field{}, NewError(KindBadHeader, "header name is empty")
	}

	// No whitespace is allowed between field name and colon.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	if c := name[len(name)-1]; c == rule.SP || c == rule.HTAB {
		return Field{}, NewError(KindBadHeader, "header name has trailing whitespace")
	}

	return Field{
		Name:  bytes.ToLower(name),
		Value: rule.TrimWhitespace(value),
	}, nil
}

func (h Headers) Len() int { return len(h.fields) }

// Fields returns a copy of all fields in order.
func (h Headers) Fields() []Field { return slices.Clone(h.fields) }

func (h Headers) Clone() Headers { return Headers{fields: slices.Clone(h.fields)} }

func (h Headers) Has(name string) bool {
	_, ok := h.Raw(name)
	return ok
}

// Raw returns the bytes of the first field named name.
func (h Headers) Raw(name string) ([]byte, bool) {
	for _, f := range h.fields {
		if strcomp.EqualFold(uf.B2S(f.Name), name) {
			return f.Value, true
		}
	}
	return nil, false
}

// Get returns the first value named name. Values that are not valid UTF-8
// are reported as absent.
func (h Headers) Get(name string) (string, bool) {
	v, ok := h.Raw(name)
	if !ok || !utf8.Valid(v) {
		return "", false
	}
	return string(v), true
}

// Values returns every UTF-8 value named name, in order.
func (h Headers) Values(name string) []string {
	var values []string
	for _, f := range h.fields {
		if strcomp.EqualFold(uf.B2S(f.Name), name) && utf8.Valid(f.Value) {
			values = append(values, string(f.Value))
		}
	}
	return values
}

// HasToken reports whether any comma-separated element of the fields named
// name equals token, ignoring case.
func (h Headers) HasToken(name, token string) bool {
	for _, v := range h.Values(name) {
		for elem := range strings.SplitSeq(v, ",") {
			if strcomp.EqualFold(strings.TrimSpace(elem), token) {
				return true
			}
		}
	}
	return false
}

func (h *Headers) Add(name, value string) {
	h.fields = append(h.fields, Field{Name: []byte(name), Value: []byte(value)})
}

// Set replaces every field named name with a single one.
func (h *Headers) Set(name, value string) {
	h.Del(name)
	h.Add(name, value)
}

func (h *Headers) Del(name string) {
	h.fields = slices.DeleteFunc(h.fields, func(f Field) bool {
		return strcomp.EqualFold(uf.B2S(f.Name), name)
	})
}

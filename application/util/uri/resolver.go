package uri

import (
	"strings"

	"wirehttp/application/util/rule"
	"wirehttp/lib/ds/stack"
)

// reference is a URI reference as found in a Location header.
// Fragments are dropped on parse since they never go on the wire.
type reference struct {
	scheme    string
	authority *string
	path      string
	query     *string
}

func parseReference(raw string) (ref reference) {
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}

	if scheme, rest, ok := cutScheme(raw); ok {
		ref.scheme, raw = scheme, rest
	}

	if rest, ok := strings.CutPrefix(raw, "//"); ok {
		end := strings.IndexAny(rest, "/?")
		if end < 0 {
			end = len(rest)
		}
		authority := rest[:end]
		ref.authority, raw = &authority, rest[end:]
	}

	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		query := raw[idx+1:]
		ref.query, raw = &query, raw[:idx]
	}
	ref.path = raw

	return ref
}

// cutScheme reports whether raw starts with a syntactically valid scheme.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func cutScheme(raw string) (scheme, rest string, ok bool) {
	idx := strings.IndexAny(raw, ":/?")
	if idx <= 0 || raw[idx] != ':' {
		return "", raw, false
	}

	scheme = raw[:idx]
	if !rule.IsAlpha(rune(scheme[0])) {
		return "", raw, false
	}
	for _, c := range scheme[1:] {
		if rule.IsAlpha(c) || rule.IsDigit(c) || c == '+' || c == '-' || c == '.' {
			continue
		}
		return "", raw, false
	}

	return strings.ToLower(scheme), raw[idx+1:], true
}

func (ref reference) String() string {
	b := new(strings.Builder)
	b.WriteString(ref.scheme)
	b.WriteByte(':')

	if ref.authority != nil {
		b.WriteString("//")
		b.WriteString(*ref.authority)
		if ref.path == "" {
			// Every request target has at least the root path.
			b.WriteByte('/')
		}
	}
	b.WriteString(ref.path)

	if ref.query != nil {
		b.WriteByte('?')
		b.WriteString(*ref.query)
	}

	return b.String()
}

// Resolve resolves location, absolute or relative, against base and parses
// the result.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func Resolve(base URL, location string) (URL, error) {
	out := resolve(base, parseReference(location))
	return Parse(out.String())
}

func resolve(base URL, ref reference) (out reference) {
	out = ref

	defer func() { out.path = removeDotSegments(out.path) }()

	if out.scheme != "" {
		return out
	}
	out.scheme = base.Scheme()

	if out.authority != nil {
		return out
	}
	authority := base.authority()
	out.authority = &authority

	basePath, baseQuery := base.Path(), (*string)(nil)
	if idx := strings.IndexByte(basePath, '?'); idx >= 0 {
		query := basePath[idx+1:]
		basePath, baseQuery = basePath[:idx], &query
	}

	if out.path != "" {
		if !strings.HasPrefix(out.path, "/") {
			out.path = mergePath(basePath, out.path)
		}
		return out
	}
	out.path = basePath

	if out.query != nil {
		return out
	}
	out.query = baseQuery

	return out
}

// Base always has an authority here, and its path is never empty.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(basePath, refPath string) string {
	if basePath == "" {
		return "/" + refPath
	}

	idx := strings.LastIndexByte(basePath, '/')
	return basePath[:idx+1] + refPath
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	out := stack.New[string](uint(strings.Count(path, "/")))

	for len(path) > 0 {
		var found bool
		// "../" and "./" prefixes are dropped.
		if path, found = strings.CutPrefix(path, "../"); found {
			continue
		}
		if path, found = strings.CutPrefix(path, "./"); found {
			continue
		}

		// "/./" and "/." collapse to "/".
		if path, found = strings.CutPrefix(path, "/./"); found {
			path = "/" + path
			continue
		} else if path == "/." {
			path = "/"
			continue
		}

		// "/../" and "/.." collapse to "/" and drop the last output segment.
		if path, found = strings.CutPrefix(path, "/../"); found {
			_, _ = out.Pop()
			path = "/" + path
			continue
		} else if path == "/.." {
			_, _ = out.Pop()
			path = "/"
			continue
		}

		if path == ".." || path == "." {
			break
		}

		// Move the first segment, with its leading "/", to the output.
		idx := strings.IndexByte(path[1:], '/') + 1
		if idx == 0 {
			idx = len(path)
		}
		out.Push(path[:idx])
		path = path[idx:]
	}

	return strings.Join(out.Data(), "")
}

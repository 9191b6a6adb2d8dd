// Package uri parses the absolute http(s) URLs a client connects to and
// resolves redirect locations against them.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986#section-5
package uri

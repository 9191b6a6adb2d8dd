package http

import (
	"bytes"
	"strconv"

	"wirehttp/application/util/rule"
)

// [Major, Minor]
type Version [2]uint

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
)

func (ver Version) Text() []byte {
	buf := make([]byte, 0, len("HTTP/1.1"))
	buf = append(buf, "HTTP/"...)
	buf = strconv.AppendUint(buf, uint64(ver[0]), 10)
	buf = append(buf, '.')
	buf = strconv.AppendUint(buf, uint64(ver[1]), 10)
	return buf
}

func (ver Version) String() string { return string(ver.Text()) }

type StatusLine struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
}

// ParseStatusLine parses "HTTP/1.x SP 3DIGIT SP reason". A trailing line
// terminator is ignored. The reason may be empty but the space before it
// may not.
func ParseStatusLine(line []byte) (StatusLine, error) {
	line = bytes.TrimSuffix(line, []byte{rule.LF})
	line = bytes.TrimSuffix(line, []byte{rule.CR})

	for _, c := range line {
		if c >= 0x80 {
			return StatusLine{}, NewError(KindBadStatus, "status line is not ASCII")
		}
	}

	const (
		versionLen = len("HTTP/1.1 ")
		codeEnd    = versionLen + 3
	)

	if len(line) < codeEnd+1 {
		return StatusLine{}, NewError(KindBadStatus, "Status line isn't formatted correctly")
	}

	var sl StatusLine
	switch string(line[:versionLen]) {
	case "HTTP/1.1 ":
		sl.Version = Version11
	case "HTTP/1.0 ":
		sl.Version = Version10
	default:
		return StatusLine{}, NewError(KindBadStatus, "HTTP version not formatted correctly")
	}

	for _, c := range line[versionLen:codeEnd] {
		if !rule.IsDigit(rune(c)) {
			return StatusLine{}, NewError(KindBadStatus, "HTTP status code must be a 3 digit number")
		}
		sl.StatusCode = sl.StatusCode*10 + uint(c-'0')
	}

	if line[codeEnd] != rule.SP {
		return StatusLine{}, NewError(KindBadStatus, "HTTP status code must be a 3 digit number")
	}
	sl.ReasonPhrase = string(line[codeEnd+1:])

	return sl, nil
}

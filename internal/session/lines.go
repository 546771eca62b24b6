package session

import (
	"bytes"
	"strings"
)

// lineBuffer accumulates raw output bytes and splits them into complete
// lines. Invalid UTF-8 sequences are replaced instead of failing.
type lineBuffer struct {
	buf []byte
}

// Append adds data to the buffer and returns all lines that it completed,
// without their trailing newline.
func (b *lineBuffer) Append(data []byte) []string {
	b.buf = append(b.buf, data...)

	var lines []string

	for {
		idx := bytes.IndexByte(b.buf, '\n')
		if idx < 0 {
			break
		}

		lines = append(lines, decodeLine(b.buf[:idx]))
		b.buf = b.buf[idx+1:]
	}

	return lines
}

// Flush returns the remaining unterminated line, if any, and empties the
// buffer.
func (b *lineBuffer) Flush() (string, bool) {
	if len(b.buf) == 0 {
		return "", false
	}

	line := decodeLine(b.buf)
	b.buf = nil

	return line, true
}

func decodeLine(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

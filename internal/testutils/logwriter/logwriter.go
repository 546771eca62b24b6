// Package logwriter provides an io.Writer that duplicates writes to a
// testing logger.
package logwriter

import (
	"io"
	"testing"
)

type Logger struct {
	t *testing.T
	w io.Writer
}

// New returns a writer that writes p to w and additionally logs it via
// t.Log.
func New(t *testing.T, w io.Writer) *Logger {
	return &Logger{t: t, w: w}
}

func (l *Logger) Write(p []byte) (int, error) {
	l.t.Log(string(p))

	return l.w.Write(p)
}

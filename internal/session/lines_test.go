package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineBufferSplitsCompletedLines(t *testing.T) {
	var buf lineBuffer

	assert.Empty(t, buf.Append([]byte("par")))
	assert.Equal(t, []string{"partial line"}, buf.Append([]byte("tial line\n")))
	assert.Equal(t, []string{"one", "two"}, buf.Append([]byte("one\ntwo\nthr")))

	rest, ok := buf.Flush()
	assert.True(t, ok)
	assert.Equal(t, "thr", rest)

	_, ok = buf.Flush()
	assert.False(t, ok, "flush empties the buffer")
}

func TestLineBufferEmptyLines(t *testing.T) {
	var buf lineBuffer

	assert.Equal(t, []string{"", "", "x"}, buf.Append([]byte("\n\nx\n")))
}

func TestLineBufferReplacesInvalidUTF8(t *testing.T) {
	var buf lineBuffer

	// a run of invalid bytes collapses into one replacement character
	lines := buf.Append([]byte("ok \xff\xfe end\n"))
	assert.Equal(t, []string{"ok � end"}, lines)
}

func TestLineBufferFlushWithoutData(t *testing.T) {
	var buf lineBuffer

	_, ok := buf.Flush()
	assert.False(t, ok)
}

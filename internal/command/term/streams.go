package term

import (
	"fmt"
	"io"
	"sync"
)

const separator = "------------------------------------------------------------------------------"

// Stream is a concurrency-safe output for term messages.
type Stream struct {
	stream io.Writer
	lock   sync.Mutex
}

func NewStream(out io.Writer) *Stream {
	return &Stream{stream: out}
}

func (s *Stream) Printf(format string, a ...any) {
	s.lock.Lock()
	defer s.lock.Unlock()

	fmt.Fprintf(s.stream, format, a...)
}

func (s *Stream) Println(a ...any) {
	s.lock.Lock()
	defer s.lock.Unlock()

	fmt.Fprintln(s.stream, a...)
}

// WorkerPrintf prints a message that is prefixed with '<WORKER-NAME>: '
func (s *Stream) WorkerPrintf(worker string, format string, a ...any) {
	prefix := Highlight(fmt.Sprintf("%s: ", worker))

	s.Printf(prefix+format, a...)
}

// PrintSep prints a separator line
func (s *Stream) PrintSep() {
	s.Println(separator)
}

func (s *Stream) Write(p []byte) (n int, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.stream.Write(p)
}

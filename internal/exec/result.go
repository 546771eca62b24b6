package exec

// Result describes the result of a run Cmd.
type Result struct {
	Command  string
	Dir      string
	ExitCode int
	Output   []byte
}

// StrOutput returns the interleaved stdout and stderr output as string.
func (r *Result) StrOutput() string {
	return string(r.Output)
}

package session

import (
	"fmt"
	"strings"
)

// DefaultProbeTools are the tools checked when registering a new worker.
var DefaultProbeTools = []string{
	"python3",
	"gcc",
	"g++",
	"make",
	"cmake",
	"rsync",
	"git",
}

// Tool is the probe result for a single tool.
type Tool struct {
	Name    string
	Version string
	Found   bool
}

// CheckTools probes the availability of the named tools on the worker with a
// single shell invocation. Results are returned in the order of names.
func (s *Session) CheckTools(names []string) ([]Tool, error) {
	script := fmt.Sprintf(
		`for tool in %s; do `+
			`if command -v "$tool" > /dev/null 2>&1; then `+
			`ver=$("$tool" --version 2>&1 | head -1); `+
			`echo "FOUND:$tool:$ver"; `+
			`else echo "MISSING:$tool"; fi; done`,
		strings.Join(names, " "),
	)

	var lines []string

	exitCode, err := s.Exec(script, &ExecOpts{
		OnStdout: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		return nil, err
	}

	if exitCode != 0 {
		return nil, fmt.Errorf("tool probe exited with code %d", exitCode)
	}

	return parseToolReport(lines), nil
}

func parseToolReport(lines []string) []Tool {
	var tools []Tool

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "FOUND:"):
			name, version, _ := strings.Cut(strings.TrimPrefix(line, "FOUND:"), ":")
			tools = append(tools, Tool{Name: name, Version: version, Found: true})

		case strings.HasPrefix(line, "MISSING:"):
			tools = append(tools, Tool{Name: strings.TrimPrefix(line, "MISSING:")})
		}
	}

	return tools
}

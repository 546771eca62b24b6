package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultTimeout is the build timeout that is used when none is configured.
const DefaultTimeout = time.Hour

// defaultExcludes are the synchronization exclude patterns that are used when
// a project does not configure its own list.
var defaultExcludes = []string{
	".git",
	"__pycache__",
	"*.pyc",
	"node_modules",
	".venv",
	"venv",
	".env",
	"*.egg-info",
	"dist",
	"build",
	".pytest_cache",
	".ruff_cache",
}

// Project contains the per-project build settings.
type Project struct {
	BuildCommand string   `toml:"build_command,omitempty"`
	PreSync      []string `toml:"pre_sync,omitempty"`
	PostBuild    []string `toml:"post_build,omitempty"`
	Exclude      []string `toml:"exclude,omitempty"`
	TimeoutSecs  int      `toml:"timeout,omitempty"`
}

func defaultProject() *Project {
	return &Project{
		Exclude:     append([]string{}, defaultExcludes...),
		TimeoutSecs: int(DefaultTimeout.Seconds()),
	}
}

// NewProject returns a project configuration with the default timeout and
// exclude patterns.
func NewProject() *Project {
	return defaultProject()
}

// Timeout returns the configured build timeout.
func (p *Project) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// Validate validates the project configuration.
func (p *Project) Validate() error {
	if p.TimeoutSecs <= 0 {
		return fmt.Errorf("timeout must be > 0, is %d", p.TimeoutSecs)
	}

	for _, pattern := range p.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("exclude contains the invalid pattern %q", pattern)
		}
	}

	return nil
}

// WriteProjectFile writes a project configuration file containing only a
// [project] section to projectDir.
func WriteProjectFile(projectDir string, project *Project) error {
	data, err := toml.Marshal(struct {
		Project *Project `toml:"project"`
	}{Project: project})
	if err != nil {
		return fmt.Errorf("marshalling project configuration failed: %w", err)
	}

	return os.WriteFile(filepath.Join(projectDir, FileName), data, 0644)
}

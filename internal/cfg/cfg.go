// Package cfg reads, merges and writes the ci-farm configuration files.
package cfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/ci-farm/ci-farm/internal/fs"
)

// FileName is the name of the configuration file.
// The global file lives in the home directory of the user, a project can
// carry an additional one in its root directory.
const FileName = ".ci-farm.toml"

// Config is the merged ci-farm configuration.
type Config struct {
	Workers       []*Worker `toml:"workers"`
	DefaultWorker string    `toml:"default_worker"`
	Project       *Project  `toml:"project"`
}

// GlobalPath returns the path of the global configuration file in the home
// directory of the current user.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory failed: %w", err)
	}

	return filepath.Join(home, FileName), nil
}

// Load reads the global configuration file and, if projectDir is not empty,
// the configuration file in projectDir.
// Values from the project file take precedence over the global ones.
// Missing files are not an error, the defaults are used instead.
func Load(projectDir string) (*Config, error) {
	cfg := Config{Project: defaultProject()}

	globalPath, err := GlobalPath()
	if err != nil {
		return nil, err
	}

	if err := unmarshalFile(globalPath, &cfg); err != nil {
		return nil, err
	}

	if projectDir != "" {
		if err := unmarshalFile(filepath.Join(projectDir, FileName), &cfg); err != nil {
			return nil, err
		}
	}

	for _, w := range cfg.Workers {
		if err := w.expandKeyPath(); err != nil {
			return nil, fmt.Errorf("worker %q: %w", w.Name, err)
		}

		w.fillDefaults()
	}

	return &cfg, nil
}

func unmarshalFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	if err := toml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parsing %s failed: %w", path, err)
	}

	return nil
}

// Worker returns the worker with the given name.
// If name is empty, the default worker is returned, or the first configured
// one when no default is set.
// The method returns nil if no matching worker exists.
func (c *Config) Worker(name string) *Worker {
	if len(c.Workers) == 0 {
		return nil
	}

	if name != "" {
		for _, w := range c.Workers {
			if w.Name == name {
				return w
			}
		}

		return nil
	}

	if c.DefaultWorker != "" {
		return c.Worker(c.DefaultWorker)
	}

	return c.Workers[0]
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Workers))

	for _, w := range c.Workers {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("worker %q: %w", w.Name, err)
		}

		if _, exists := seen[w.Name]; exists {
			return fmt.Errorf("worker name %q is configured multiple times", w.Name)
		}

		seen[w.Name] = struct{}{}
	}

	if c.DefaultWorker != "" {
		if _, exists := seen[c.DefaultWorker]; !exists {
			return fmt.Errorf("default_worker %q is not a configured worker", c.DefaultWorker)
		}
	}

	if c.Project != nil {
		if err := c.Project.Validate(); err != nil {
			return fmt.Errorf("[project] section contains errors: %w", err)
		}
	}

	return nil
}

// globalConfig is the subset of Config that is persisted in the global
// configuration file. Project settings are never written there.
type globalConfig struct {
	Workers       []*Worker `toml:"workers"`
	DefaultWorker string    `toml:"default_worker"`
}

// SaveGlobal writes the worker list and the default worker to the global
// configuration file, overwriting an existing one.
func (c *Config) SaveGlobal() error {
	path, err := GlobalPath()
	if err != nil {
		return err
	}

	return c.writeGlobal(path)
}

func (c *Config) writeGlobal(path string) error {
	data, err := toml.Marshal(globalConfig{
		Workers:       c.Workers,
		DefaultWorker: c.DefaultWorker,
	})
	if err != nil {
		return fmt.Errorf("marshalling configuration failed: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// ProjectFileExists returns true if projectDir contains a configuration file.
func ProjectFileExists(projectDir string) bool {
	return fs.FileExists(filepath.Join(projectDir, FileName))
}

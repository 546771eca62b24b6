package cfg

import (
	"errors"
	"fmt"

	"github.com/ci-farm/ci-farm/internal/fs"
)

const (
	// DefaultPort is the ssh port that is used when none is configured.
	DefaultPort = 22
	// DefaultBuildDir is the worker-side scratch directory that is used
	// when none is configured.
	DefaultBuildDir = "/tmp/ci-farm-builds"
)

// Worker describes a remote machine that receives and runs builds.
type Worker struct {
	Name     string `toml:"name"`
	Host     string `toml:"host"`
	User     string `toml:"user"`
	Port     int    `toml:"port,omitempty"`
	Key      string `toml:"key,omitempty"`
	Password string `toml:"password,omitempty"`
	BuildDir string `toml:"build_dir,omitempty"`
}

func (w *Worker) fillDefaults() {
	if w.Port == 0 {
		w.Port = DefaultPort
	}

	if w.BuildDir == "" {
		w.BuildDir = DefaultBuildDir
	}
}

func (w *Worker) expandKeyPath() error {
	if w.Key == "" {
		return nil
	}

	expanded, err := fs.ExpandHome(w.Key)
	if err != nil {
		return err
	}

	w.Key = expanded

	return nil
}

// Validate validates the worker configuration.
func (w *Worker) Validate() error {
	if w.Name == "" {
		return errors.New("name must not be empty")
	}

	if w.Host == "" {
		return errors.New("host must not be empty")
	}

	if w.User == "" {
		return errors.New("user must not be empty")
	}

	if w.Port < 1 || w.Port > 65535 {
		return fmt.Errorf("port must be in range [1, 65535], is %d", w.Port)
	}

	if w.BuildDir == "" {
		return errors.New("build_dir must not be empty")
	}

	return nil
}

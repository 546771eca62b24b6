// Package lock implements the per-worker build exclusivity protocol.
// A marker file in the build directory of the worker records which project
// currently owns the worker, its mere existence means busy.
//
// The protocol is advisory: Acquire overwrites an existing marker and an
// IsBusy check followed by Acquire is not atomic (see the race test in this
// package). A crashed run leaves a stale marker behind that must be removed
// with an explicit unlock.
package lock

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"strconv"
	"strings"
	"time"
)

// FileName is the name of the lock marker file in the build directory of a
// worker.
const FileName = ".ci-farm.lock"

// Client is the worker file side-channel the protocol operates on.
// It is implemented by session.Session.
type Client interface {
	StatExists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	RemoveFile(path string) error
	EnsureDir(path string) error
}

// Record is the parsed content of a lock marker.
type Record struct {
	Project    string
	AcquiredAt time.Time
}

// Path returns the worker-side path of the lock marker.
func Path(buildDir string) string {
	return path.Join(buildDir, FileName)
}

// IsBusy returns true if the worker has a lock marker.
func IsBusy(client Client, buildDir string) (bool, error) {
	return client.StatExists(Path(buildDir))
}

// Acquire writes a lock marker owned by project, overwriting an existing
// one. The build directory is created if necessary.
func Acquire(client Client, buildDir, project string) error {
	if err := client.EnsureDir(buildDir); err != nil {
		return fmt.Errorf("creating build directory failed: %w", err)
	}

	content := fmt.Sprintf("%s\n%.6f\n", project, unixSeconds(time.Now()))

	if err := client.WriteFile(Path(buildDir), []byte(content)); err != nil {
		return fmt.Errorf("writing lock file failed: %w", err)
	}

	return nil
}

// Release removes the lock marker. A missing marker is not an error.
func Release(client Client, buildDir string) error {
	return client.RemoveFile(Path(buildDir))
}

// Inspect reads and parses the lock marker.
// It returns nil if the marker does not exist or its content is malformed.
func Inspect(client Client, buildDir string) (*Record, error) {
	content, err := client.ReadFile(Path(buildDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return parseRecord(content), nil
}

func parseRecord(content []byte) *Record {
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) < 2 {
		return nil
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil {
		return nil
	}

	return &Record{
		Project:    lines[0],
		AcquiredAt: timeFromUnixSeconds(seconds),
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func timeFromUnixSeconds(seconds float64) time.Time {
	sec, frac := math.Modf(seconds)

	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

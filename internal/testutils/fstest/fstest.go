// Package fstest provides test utilities to operate with files and directories
package fstest

import (
	"os"
	"path/filepath"
	"testing"
)

// TempDir returns a path to a temporary directory that is removed when the
// testcase finished.
func TempDir(t *testing.T) string {
	t.Helper()

	return t.TempDir()
}

// WriteToFile writes data to a file.
// Directories that are in the path but do not exist are created.
// If an error happens, t.Fatal() is called.
func WriteToFile(t *testing.T, data []byte, path string) {
	t.Helper()

	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, 0775)
	if err != nil {
		t.Fatal(err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		t.Fatal(err)
	}
}

// MkdirAll creates the directory path including all missing parents.
// If an error happens, t.Fatal() is called.
func MkdirAll(t *testing.T, path string) {
	t.Helper()

	if err := os.MkdirAll(path, 0775); err != nil {
		t.Fatal(err)
	}
}

// Package fs provides filesystem helper functions.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsFile returns true if path is a file.
// If the path does not exist an error is returned
func IsFile(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	return fi.Mode().IsRegular(), nil
}

// FileExists returns true if path exist and is a file
func FileExists(path string) bool {
	ret, _ := IsFile(path)

	return ret
}

// IsDir returns true if the path is a directory.
// If the directory does not exist, the error from os.Stat() is returned.
func IsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	return fi.IsDir(), nil
}

// DirExists returns true if path exists and is a directory
func DirExists(path string) bool {
	ret, _ := IsDir(path)

	return ret
}

// PathExists returns true if path exists, independent of its type.
func PathExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// ExpandHome replaces a leading "~" in path with the home directory of the
// current user.
// If the home directory can not be determined, an error is returned.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory failed: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}

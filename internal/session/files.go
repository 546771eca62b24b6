package session

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// StatExists returns true if a file or directory exists at path on the
// worker.
func (s *Session) StatExists(path string) (bool, error) {
	_, err := s.sftp.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// ReadFile returns the content of the file at path on the worker.
func (s *Session) ReadFile(path string) ([]byte, error) {
	f, err := s.sftp.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// WriteFile writes data to path on the worker, creating or truncating the
// file.
func (s *Session) WriteFile(path string, data []byte) error {
	f, err := s.sftp.Create(path)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// RemoveFile deletes the file at path on the worker.
// A missing file is not an error.
func (s *Session) RemoveFile(path string) error {
	err := s.sftp.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// EnsureDir creates the directory at path on the worker, including missing
// parents, if it does not exist.
func (s *Session) EnsureDir(path string) error {
	exists, err := s.StatExists(path)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	if err := s.sftp.MkdirAll(path); err != nil {
		return fmt.Errorf("creating directory %s on worker failed: %w", path, err)
	}

	return nil
}

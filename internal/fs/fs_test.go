package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-farm/ci-farm/internal/testutils/fstest"
)

func TestFileExists(t *testing.T) {
	tempdir := fstest.TempDir(t)
	f := filepath.Join(tempdir, "afile")

	assert.False(t, FileExists(f))

	fstest.WriteToFile(t, []byte("hello"), f)
	assert.True(t, FileExists(f))

	assert.False(t, FileExists(tempdir), "directories are not files")
}

func TestDirExists(t *testing.T) {
	tempdir := fstest.TempDir(t)

	assert.True(t, DirExists(tempdir))
	assert.False(t, DirExists(filepath.Join(tempdir, "missing")))

	f := filepath.Join(tempdir, "afile")
	fstest.WriteToFile(t, []byte("hello"), f)
	assert.False(t, DirExists(f))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandHome(filepath.Join("~", "subdir", "id_rsa"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "subdir", "id_rsa"), expanded)

	unchanged, err := ExpandHome("/etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, "/etc/hosts", unchanged)

	unchanged, err = ExpandHome("relative/~file")
	require.NoError(t, err)
	assert.Equal(t, "relative/~file", unchanged)
}

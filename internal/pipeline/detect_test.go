package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ci-farm/ci-farm/internal/testutils/fstest"
)

func TestDetectBuildCommand(t *testing.T) {
	projectDir := fstest.TempDir(t)
	fstest.WriteToFile(t, []byte("{}"), filepath.Join(projectDir, "package.json"))

	assert.Equal(t, "npm install && npm run build", DetectBuildCommand(projectDir))
}

// A project with multiple marker files always resolves to the command of the
// marker with the highest priority, here Makefile over Cargo.toml.
func TestDetectBuildCommandIsDeterministic(t *testing.T) {
	projectDir := fstest.TempDir(t)
	fstest.WriteToFile(t, []byte("[package]"), filepath.Join(projectDir, "Cargo.toml"))
	fstest.WriteToFile(t, []byte("all:\n"), filepath.Join(projectDir, "Makefile"))

	for i := 0; i < 10; i++ {
		assert.Equal(t, "make", DetectBuildCommand(projectDir))
	}
}

func TestDetectBuildCommandNestedMarker(t *testing.T) {
	projectDir := fstest.TempDir(t)
	fstest.WriteToFile(t, []byte("#!/bin/sh\n"), filepath.Join(projectDir, ".ci", "build.sh"))

	assert.Equal(t, "bash .ci/build.sh", DetectBuildCommand(projectDir))
}

func TestDetectBuildCommandNoMarker(t *testing.T) {
	assert.Empty(t, DetectBuildCommand(fstest.TempDir(t)))
}

package pipeline

import (
	"path/filepath"

	"github.com/ci-farm/ci-farm/internal/fs"
)

type buildMarker struct {
	path    string
	command string
}

// buildMarkers maps project marker files to build commands.
// The order is the detection priority, the first existing marker wins.
var buildMarkers = []buildMarker{
	{"Makefile", "make"},
	{"CMakeLists.txt", "cmake -B build && cmake --build build"},
	{"package.json", "npm install && npm run build"},
	{"Cargo.toml", "cargo build --release"},
	{"go.mod", "go build ./..."},
	{"pyproject.toml", "pip install -e . && python -m pytest"},
	{"setup.py", "pip install -e . && python -m pytest"},
	{".ci/build.sh", "bash .ci/build.sh"},
	{"build.sh", "bash build.sh"},
}

// DetectBuildCommand returns the build command for the project in
// projectDir, based on which marker file exists.
// It returns an empty string if no marker is found.
func DetectBuildCommand(projectDir string) string {
	for _, marker := range buildMarkers {
		if fs.PathExists(filepath.Join(projectDir, marker.path)) {
			return marker.command
		}
	}

	return ""
}

package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/testutils/fstest"
)

func loadGlobalConfig(t *testing.T) *cfg.Config {
	t.Helper()

	config, err := cfg.Load("")
	require.NoError(t, err)

	return config
}

func TestInitCreatesProjectConfig(t *testing.T) {
	initTest(t)

	projectDir := fstest.TempDir(t)
	fstest.WriteToFile(t, []byte("all:\n\ttrue\n"), filepath.Join(projectDir, "Makefile"))

	cmd := newInitCmd()
	execCheck(t, 0, func() { cmd.run(&cmd.Command, []string{projectDir}) })

	require.True(t, cfg.ProjectFileExists(projectDir))

	config, err := cfg.Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, "make", config.Project.BuildCommand)
}

func TestInitRefusesToOverwriteWithoutForce(t *testing.T) {
	initTest(t)

	projectDir := fstest.TempDir(t)

	cmd := newInitCmd()
	execCheck(t, 0, func() { cmd.run(&cmd.Command, []string{projectDir}) })

	cmd = newInitCmd()
	execCheck(t, exitCodeAlreadyExist, func() { cmd.run(&cmd.Command, []string{projectDir}) })

	cmd = newInitCmd()
	cmd.force = true
	execCheck(t, 0, func() { cmd.run(&cmd.Command, []string{projectDir}) })
}

func TestInitNonexistentDirectory(t *testing.T) {
	initTest(t)

	cmd := newInitCmd()
	execCheck(t, exitCodeNotExist, func() {
		cmd.run(&cmd.Command, []string{filepath.Join(fstest.TempDir(t), "missing")})
	})
}

func saveTestWorkers(t *testing.T, names ...string) {
	t.Helper()

	config := cfg.Config{}

	for _, name := range names {
		config.Workers = append(config.Workers, &cfg.Worker{
			Name:     name,
			Host:     name + ".local",
			User:     "ci",
			Port:     cfg.DefaultPort,
			BuildDir: cfg.DefaultBuildDir,
		})
	}

	config.DefaultWorker = names[0]

	require.NoError(t, config.SaveGlobal())
}

func TestRemoveWorker(t *testing.T) {
	initTest(t)

	saveTestWorkers(t, "pi4", "nuc")

	execCheck(t, 0, func() { remove(removeCmd, []string{"pi4"}) })

	config := loadGlobalConfig(t)
	require.Len(t, config.Workers, 1)
	assert.Equal(t, "nuc", config.Workers[0].Name)
	assert.Equal(t, "nuc", config.DefaultWorker, "the default moves to the remaining worker")
}

func TestRemoveUnknownWorker(t *testing.T) {
	initTest(t)

	saveTestWorkers(t, "pi4")

	execCheck(t, exitCodeNotExist, func() { remove(removeCmd, []string{"nope"}) })
}

func TestAddRefusesDuplicateName(t *testing.T) {
	initTest(t)

	saveTestWorkers(t, "pi4")

	cmd := newAddCmd()
	cmd.user = "ci"
	execCheck(t, exitCodeAlreadyExist, func() {
		cmd.run(&cmd.Command, []string{"pi4", "10.0.0.99"})
	})
}

func TestAddUnreachableWorkerWithForce(t *testing.T) {
	initTest(t)

	cmd := newAddCmd()
	cmd.user = "ci"
	cmd.port = 1 // nothing listens there, the connection fails immediately
	cmd.force = true

	execCheck(t, 0, func() {
		cmd.run(&cmd.Command, []string{"pi4", "127.0.0.1"})
	})

	config := loadGlobalConfig(t)
	require.Len(t, config.Workers, 1)
	assert.Equal(t, "pi4", config.Workers[0].Name)
	assert.Equal(t, "pi4", config.DefaultWorker, "the first worker becomes the default")
}

func TestAddUnreachableWorkerWithoutForce(t *testing.T) {
	initTest(t)

	cmd := newAddCmd()
	cmd.user = "ci"
	cmd.port = 1

	execCheck(t, exitCodeError, func() {
		cmd.run(&cmd.Command, []string{"pi4", "127.0.0.1"})
	})

	config := loadGlobalConfig(t)
	assert.Empty(t, config.Workers)
}

func TestConfigShowsMergedConfiguration(t *testing.T) {
	initTest(t)

	saveTestWorkers(t, "pi4")

	projectDir := fstest.TempDir(t)
	require.NoError(t, cfg.WriteProjectFile(projectDir, &cfg.Project{
		BuildCommand: "make release",
		TimeoutSecs:  60,
	}))

	stdoutBuf, _ := interceptCmdOutput(t)

	execCheck(t, 0, func() { showConfig(configCmd, []string{projectDir}) })

	out := stdoutBuf.String()
	assert.Contains(t, out, "make release")
	assert.Contains(t, out, "pi4")
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}

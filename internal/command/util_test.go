package command

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/exec"
	"github.com/ci-farm/ci-farm/internal/log"
	"github.com/ci-farm/ci-farm/internal/testutils/fstest"
	"github.com/ci-farm/ci-farm/internal/testutils/logwriter"
)

// interceptCmdOutput changes the stdout and stderr streams so that the
// commands write to the returned buffers, all output is additionally still
// logged via the test logger
func interceptCmdOutput(t *testing.T) (stdoutBuf, stderrBuf *bytes.Buffer) {
	var bufStdout bytes.Buffer
	var bufStderr bytes.Buffer

	oldStdout := stdout
	stdout = term.NewStream(logwriter.New(t, &bufStdout))
	oldStderr := stderr
	stderr = term.NewStream(logwriter.New(t, &bufStderr))

	t.Cleanup(func() {
		stdout = oldStdout
		stderr = oldStderr
	})

	return &bufStdout, &bufStderr
}

type exitInfo struct {
	Code int
}

func (e *exitInfo) String() string {
	return fmt.Sprintf("program terminated with exit code: %d", e.Code)
}

// initTest does the following:
// - changes the exitFunc to panic instead of calling os.Exit(),
// - redirects the stdout and stderr streams of the commands to the test
//   logger,
// - points the home directory to an empty temporary directory so the tests
//   do not see the global configuration of the user
func initTest(t *testing.T) {
	t.Helper()

	exitFunc = func(code int) {
		panic(&exitInfo{Code: code})
	}

	t.Cleanup(func() {
		exitFunc = func(code int) { panic("exitFunc of previous test called") }
	})

	t.Setenv("HOME", fstest.TempDir(t))

	redirectOutputToLogger(t)
}

func redirectOutputToLogger(t *testing.T) {
	log.RedirectToTestingLog(t)

	oldExecDebugFn := exec.DefaultDebugfFn
	exec.DefaultDebugfFn = t.Logf

	oldStdout := stdout
	stdout = term.NewStream(logwriter.New(t, io.Discard))
	oldStderr := stderr
	stderr = term.NewStream(logwriter.New(t, io.Discard))

	t.Cleanup(func() {
		exec.DefaultDebugfFn = oldExecDebugFn
		stdout = oldStdout
		stderr = oldStderr
	})
}

// execCheck runs fn and expects it to terminate with expectedExitCode via
// exitFunc. A run that never calls exitFunc is treated as exit code 0.
func execCheck(t *testing.T, expectedExitCode int, fn func()) {
	t.Helper()

	defer func() {
		t.Helper()

		r := recover()
		if r == nil {
			if expectedExitCode != 0 {
				t.Fatalf("command terminated without exit code, expected: %d", expectedExitCode)
			}

			return
		}

		info, ok := r.(*exitInfo)
		if !ok {
			panic(r)
		}

		if info.Code != expectedExitCode {
			t.Fatalf("command exited with code %d, expected: %d", info.Code, expectedExitCode)
		}
	}()

	fn()
}

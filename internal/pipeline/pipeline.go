// Package pipeline runs a build end-to-end on a single worker.
// A run sequences project synchronization, lock acquisition, hooks and the
// build command. An acquired lock is released on every exit path.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/exec"
	"github.com/ci-farm/ci-farm/internal/lock"
	"github.com/ci-farm/ci-farm/internal/log"
	"github.com/ci-farm/ci-farm/internal/session"
)

// Session is the part of session.Session the pipeline uses.
type Session interface {
	lock.Client
	Connect(ctx context.Context) error
	Close()
	Exec(command string, opts *session.ExecOpts) (int, error)
}

// BusyError is returned when the worker is locked by another build.
type BusyError struct {
	Worker  string
	Project string
}

func (e *BusyError) Error() string {
	if e.Project == "" {
		return fmt.Sprintf("worker %q is busy", e.Worker)
	}

	return fmt.Sprintf("worker %q is busy with %q", e.Worker, e.Project)
}

// SyncError is returned when the file synchronization tool fails.
type SyncError struct {
	ExitCode int
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("rsync failed with code %d", e.ExitCode)
}

// HookError is returned when a pre-sync hook command fails.
type HookError struct {
	Command  string
	ExitCode int
}

func (e *HookError) Error() string {
	return fmt.Sprintf("pre-sync command %q failed with code %d", e.Command, e.ExitCode)
}

// Job is one build on one worker.
type Job struct {
	ID uuid.UUID

	ProjectDir   string
	ProjectName  string
	Worker       *cfg.Worker
	BuildCommand string
	Timeout      time.Duration
	PreSync      []string
	PostBuild    []string
	Exclude      []string
	DryRunSync   bool

	// Stdout and Stderr receive the output lines of the build and of the
	// synchronization. They may be nil.
	Stdout func(line string)
	Stderr func(line string)

	newSession func(worker *cfg.Worker) Session
	syncFn     func(job *Job) error
	runLocalFn func(dir, command string, onLine func(string)) (int, error)
}

// NewJob creates a job for the project in projectDir.
// The build command is taken from buildCommand, then from the project
// configuration, then detected from marker files in projectDir. If none
// yields a command, an error is returned before any worker is contacted.
func NewJob(projectDir string, worker *cfg.Worker, project *cfg.Project, buildCommand string) (*Job, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}

	command := buildCommand
	if command == "" {
		command = project.BuildCommand
	}

	if command == "" {
		command = DetectBuildCommand(absDir)
	}

	if command == "" {
		return nil, fmt.Errorf("could not detect a build command for %s, configure one or pass it explicitly", absDir)
	}

	return &Job{
		ID:           uuid.New(),
		ProjectDir:   absDir,
		ProjectName:  filepath.Base(absDir),
		Worker:       worker,
		BuildCommand: command,
		Timeout:      project.Timeout(),
		PreSync:      project.PreSync,
		PostBuild:    project.PostBuild,
		Exclude:      project.Exclude,
	}, nil
}

// RemotePath returns the worker-side directory the project is synchronized
// to.
func (j *Job) RemotePath() string {
	return path.Join(j.Worker.BuildDir, j.ProjectName)
}

// Run executes the job and returns its exit code.
// Failures of a pipeline stage result in code 1 and a describing error. When
// all stages before the build succeed, the exit code of the build command is
// the result.
func (j *Job) Run(ctx context.Context) (int, error) {
	log.Debugf("pipeline: job %s: building %s on worker %s with %q",
		j.ID, j.ProjectName, j.Worker.Name, j.BuildCommand)

	sess := j.session()
	// Close is idempotent and safe before a successful Connect, releasing
	// the session also when the connect fails.
	defer sess.Close()

	if err := sess.Connect(ctx); err != nil {
		return 1, err
	}

	busy, err := lock.IsBusy(sess, j.Worker.BuildDir)
	if err != nil {
		return 1, fmt.Errorf("checking lock state on %q failed: %w", j.Worker.Name, err)
	}

	if busy {
		busyErr := &BusyError{Worker: j.Worker.Name}
		if record, err := lock.Inspect(sess, j.Worker.BuildDir); err == nil && record != nil {
			busyErr.Project = record.Project
		}

		return 1, busyErr
	}

	if err := lock.Acquire(sess, j.Worker.BuildDir, j.ProjectName); err != nil {
		return 1, fmt.Errorf("acquiring lock on %q failed: %w", j.Worker.Name, err)
	}

	defer func() {
		if err := lock.Release(sess, j.Worker.BuildDir); err != nil {
			log.Errorf("worker %s: releasing lock failed: %s", j.Worker.Name, err)
		}
	}()

	if err := j.runPreSyncHooks(); err != nil {
		return 1, err
	}

	if err := j.sync(); err != nil {
		return 1, err
	}

	exitCode, err := sess.Exec(j.BuildCommand, &session.ExecOpts{
		WorkingDir: j.RemotePath(),
		Timeout:    j.Timeout,
		OnStdout:   j.Stdout,
		OnStderr:   j.Stderr,
	})
	if err != nil {
		return 1, fmt.Errorf("running build on %q failed: %w", j.Worker.Name, err)
	}

	if exitCode == 0 {
		j.runPostBuildHooks(sess)
	}

	return exitCode, nil
}

func (j *Job) runPreSyncHooks() error {
	for _, command := range j.PreSync {
		log.Debugf("pipeline: running pre-sync command %q in %s", command, j.ProjectDir)

		exitCode, err := j.runLocal(j.ProjectDir, command, j.Stdout)
		if err != nil {
			return fmt.Errorf("pre-sync command %q: %w", command, err)
		}

		if exitCode != 0 {
			return &HookError{Command: command, ExitCode: exitCode}
		}
	}

	return nil
}

// runPostBuildHooks runs the post-build commands in the synchronized
// directory on the worker. Failures are reported but do not change the
// result of the job.
func (j *Job) runPostBuildHooks(sess Session) {
	for _, command := range j.PostBuild {
		log.Debugf("pipeline: running post-build command %q on %s", command, j.Worker.Name)

		exitCode, err := sess.Exec(command, &session.ExecOpts{
			WorkingDir: j.RemotePath(),
			OnStdout:   j.Stdout,
			OnStderr:   j.Stderr,
		})
		if err != nil {
			log.Errorf("post-build command %q failed: %s", command, err)
			continue
		}

		if exitCode != 0 {
			log.Errorf("post-build command %q exited with code %d", command, exitCode)
		}
	}
}

func (j *Job) session() Session {
	if j.newSession != nil {
		return j.newSession(j.Worker)
	}

	return session.New(j.Worker)
}

func (j *Job) sync() error {
	if j.syncFn != nil {
		return j.syncFn(j)
	}

	return syncProject(j)
}

func (j *Job) runLocal(dir, command string, onLine func(string)) (int, error) {
	if j.runLocalFn != nil {
		return j.runLocalFn(dir, command, onLine)
	}

	cmd := exec.ShellCommand(command).Directory(dir)
	if onLine != nil {
		cmd = cmd.LineFn(onLine)
	}

	result, err := cmd.Run()
	if err != nil {
		return -1, err
	}

	return result.ExitCode, nil
}

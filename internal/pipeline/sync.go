package pipeline

import (
	"fmt"

	"github.com/ci-farm/ci-farm/internal/exec"
	"github.com/ci-farm/ci-farm/internal/log"
)

// rsyncArgs builds the argument list for mirroring the project directory
// into the build directory of the worker. Trailing slashes on source and
// destination make rsync copy the directory contents, not the directory
// itself.
func rsyncArgs(job *Job) []string {
	sshCommand := fmt.Sprintf("ssh -p %d", job.Worker.Port)
	if job.Worker.Key != "" {
		sshCommand += " -i " + job.Worker.Key
	}

	args := []string{"-avz", "--delete"}

	if job.DryRunSync {
		args = append(args, "--dry-run")
	}

	args = append(args, "-e", sshCommand)

	for _, pattern := range job.Exclude {
		args = append(args, "--exclude", pattern)
	}

	return append(args,
		job.ProjectDir+"/",
		fmt.Sprintf("%s@%s:%s/", job.Worker.User, job.Worker.Host, job.RemotePath()),
	)
}

func syncProject(job *Job) error {
	log.Debugf("pipeline: syncing %s to %s:%s", job.ProjectDir, job.Worker.Name, job.RemotePath())

	cmd := exec.Command("rsync", rsyncArgs(job)...)
	if job.Stdout != nil {
		cmd = cmd.LineFn(job.Stdout)
	}

	result, err := cmd.Run()
	if err != nil {
		return fmt.Errorf("running rsync failed: %w", err)
	}

	if result.ExitCode != 0 {
		return &SyncError{ExitCode: result.ExitCode}
	}

	return nil
}

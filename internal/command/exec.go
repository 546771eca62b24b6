package command

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(&newExecCmd().Command)
}

const execLongHelp = `
Synchronize the project in the current directory to a worker and run an
arbitrary command in the synchronized directory.

The command runs through the same pipeline as a build: the worker is locked,
pre-sync hooks and the synchronization run first and the lock is released
afterwards. Use '--' to separate flags of the command from ci-farm flags.
`

type execCmd struct {
	cobra.Command

	workerName string
	auto       bool
}

func newExecCmd() *execCmd {
	const example = `
exec make -j4			run 'make -j4' on the default worker
exec -w pi4 -- cargo build	run 'cargo build' on the worker pi4
exec -a ./scripts/release.sh	run the script on the first available worker
`

	cmd := execCmd{
		Command: cobra.Command{
			Use:     "exec COMMAND [ARGS]...",
			Short:   "run an arbitrary command on a worker",
			Long:    strings.TrimSpace(execLongHelp),
			Example: strings.TrimSpace(example),
			Args:    cobra.MinimumNArgs(1),
		},
	}

	cmd.Run = cmd.run

	cmd.Flags().StringVarP(&cmd.workerName, "worker", "w", "",
		"name of the worker to run the command on")
	cmd.Flags().BoolVarP(&cmd.auto, "auto", "a", false,
		"run on the first reachable worker that is not busy")

	return &cmd
}

func (c *execCmd) run(_ *cobra.Command, args []string) {
	config := mustLoadConfig(".")
	worker := mustResolveWorker(config, c.workerName, c.auto)

	command := strings.Join(args, " ")

	job, err := pipeline.NewJob(".", worker, config.Project, command)
	exitOnErr(err)

	job.Stdout = func(line string) { stdout.Println(line) }
	job.Stderr = func(line string) { stderr.Println(term.RedHighlight(line)) }

	stdout.WorkerPrintf(worker.Name, "running %s\n", term.Underline(command))

	exitCode, err := job.Run(ctx)
	if err != nil {
		stderr.Println(term.RedHighlight("Error:"), err)
	}

	exitFunc(exitCode)
}

package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/fs"
	"github.com/ci-farm/ci-farm/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(&newBuildCmd().Command)
}

const buildLongHelp = `
Synchronize a project to a worker and run its build command there.

The build command is taken from the --command flag, then from the project
configuration and finally detected from marker files like Makefile or
Cargo.toml in the project directory.

While the build runs, a lock file on the worker marks it as busy. The lock
is removed when the build finishes, also when it fails.
The exit code of the build command becomes the exit code of this command.
`

type buildCmd struct {
	cobra.Command

	workerName   string
	buildCommand string
	auto         bool
	dryRunSync   bool
}

func newBuildCmd() *buildCmd {
	const example = `
build			build the project in the current directory on the default worker
build ~/src/app -w pi4	build ~/src/app on the worker pi4
build -a -c "make -j4"	build on the first available worker with a custom command
`

	cmd := buildCmd{
		Command: cobra.Command{
			Use:     "build [DIR]",
			Short:   "sync a project to a worker and build it there",
			Long:    strings.TrimSpace(buildLongHelp),
			Example: strings.TrimSpace(example),
			Args:    cobra.MaximumNArgs(1),
		},
	}

	cmd.Run = cmd.run

	cmd.Flags().StringVarP(&cmd.workerName, "worker", "w", "",
		"name of the worker to build on")
	cmd.Flags().StringVarP(&cmd.buildCommand, "command", "c", "",
		"build command, overrides configuration and detection")
	cmd.Flags().BoolVarP(&cmd.auto, "auto", "a", false,
		"build on the first reachable worker that is not busy")
	cmd.Flags().BoolVar(&cmd.dryRunSync, "dry-run-sync", false,
		"only show which files the synchronization would transfer")

	return &cmd
}

func (c *buildCmd) run(_ *cobra.Command, args []string) {
	startTime := time.Now()

	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}

	if !fs.DirExists(projectDir) {
		exitOnErr(fmt.Errorf("project directory %q does not exist", projectDir))
	}

	config := mustLoadConfig(projectDir)
	worker := mustResolveWorker(config, c.workerName, c.auto)

	job, err := pipeline.NewJob(projectDir, worker, config.Project, c.buildCommand)
	exitOnErr(err)

	job.DryRunSync = c.dryRunSync
	job.Stdout = func(line string) { stdout.Println(line) }
	job.Stderr = func(line string) { stderr.Println(term.RedHighlight(line)) }

	stdout.Printf("Building %s on %s (%s), command: %s\n",
		term.Highlight(job.ProjectName),
		term.Highlight(worker.Name), worker.Host,
		term.Highlight(job.BuildCommand))
	stdout.PrintSep()

	exitCode, err := job.Run(ctx)
	if err != nil {
		stderr.Println(term.RedHighlight("Error:"), err)
		exitFunc(exitCode)

		return
	}

	stdout.PrintSep()

	if exitCode == 0 {
		stdout.Printf("build %s in %ss\n",
			term.GreenHighlight("successful"),
			term.StrDurationSec(startTime, time.Now()))
	} else {
		stderr.Printf("build %s with exit code %d\n",
			term.RedHighlight("failed"), exitCode)
	}

	exitFunc(exitCode)
}

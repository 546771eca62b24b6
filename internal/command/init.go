package command

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/fs"
	"github.com/ci-farm/ci-farm/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(&newInitCmd().Command)
}

const initLongHelp = `
Create a project configuration file in the project directory.
The build command is detected from marker files in the directory and written
to the file, together with the default timeout and exclude patterns.
`

type initCmd struct {
	cobra.Command

	force bool
}

func newInitCmd() *initCmd {
	cmd := initCmd{
		Command: cobra.Command{
			Use:   "init [DIR]",
			Short: "create a project configuration file",
			Long:  strings.TrimSpace(initLongHelp),
			Args:  cobra.MaximumNArgs(1),
		},
	}

	cmd.Run = cmd.run

	cmd.Flags().BoolVarP(&cmd.force, "force", "f", false,
		"overwrite an existing configuration file")

	return &cmd
}

func (c *initCmd) run(_ *cobra.Command, args []string) {
	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}

	absDir, err := filepath.Abs(projectDir)
	exitOnErr(err)

	if !fs.DirExists(absDir) {
		stderr.Printf("%s project directory %q does not exist\n", term.RedHighlight("Error:"), absDir)
		exitFunc(exitCodeNotExist)

		return
	}

	cfgPath := filepath.Join(absDir, cfg.FileName)

	if cfg.ProjectFileExists(absDir) && !c.force {
		stderr.Printf("%s already exists, use %s to overwrite it\n",
			cfgPath, term.Highlight("--force"))
		exitFunc(exitCodeAlreadyExist)

		return
	}

	project := cfg.NewProject()

	if command := pipeline.DetectBuildCommand(absDir); command != "" {
		project.BuildCommand = command
		stdout.Printf("detected build command: %s\n", term.Highlight(command))
	} else {
		stdout.Println("could not detect a build command, set build_command manually")
	}

	exitOnErrf(cfg.WriteProjectFile(absDir, project), "writing configuration failed")

	stdout.Printf("project configuration written to %s\n", term.Highlight(cfgPath))
}

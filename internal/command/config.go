package command

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/command/term"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [DIR]",
	Short: "show the merged configuration",
	Long: strings.TrimSpace(`
Show the configuration that results from merging the global file with the
project file in DIR (default: the current directory).`),
	Run:  showConfig,
	Args: cobra.MaximumNArgs(1),
}

func showConfig(_ *cobra.Command, args []string) {
	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}

	config := mustLoadConfig(projectDir)

	globalPath, err := cfg.GlobalPath()
	exitOnErr(err)

	stdout.Printf("%s %s\n", term.Underline("global config:"), globalPath)

	if cfg.ProjectFileExists(projectDir) {
		stdout.Printf("%s %s\n", term.Underline("project config:"),
			filepath.Join(projectDir, cfg.FileName))
	}

	defaultWorker := config.DefaultWorker
	if defaultWorker == "" {
		defaultWorker = term.DimHighlight("none")
	}

	buildCommand := config.Project.BuildCommand
	if buildCommand == "" {
		buildCommand = term.DimHighlight("auto-detect")
	}

	stdout.Printf("\nworkers:\t%d\n", len(config.Workers))
	stdout.Printf("default worker:\t%s\n", defaultWorker)
	stdout.Printf("build command:\t%s\n", buildCommand)
	stdout.Printf("timeout:\t%s\n", config.Project.Timeout())
	stdout.Printf("exclude:\t%s\n", strings.Join(config.Project.Exclude, ", "))
}

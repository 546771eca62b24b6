package command

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/command/term"
)

func init() {
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "remove a worker from the configuration",
	Long: strings.TrimSpace(`
Remove a worker from the global configuration.
When the removed worker was the default, the first remaining worker becomes
the new default.`),
	Run:  remove,
	Args: cobra.ExactArgs(1),
}

func remove(_ *cobra.Command, args []string) {
	name := args[0]

	config := mustLoadConfig("")

	var workers []*cfg.Worker

	for _, worker := range config.Workers {
		if worker.Name != name {
			workers = append(workers, worker)
		}
	}

	if len(workers) == len(config.Workers) {
		stderr.Printf("worker %q is not configured\n", name)
		exitFunc(exitCodeNotExist)

		return
	}

	config.Workers = workers

	if config.DefaultWorker == name {
		config.DefaultWorker = ""
		if len(workers) > 0 {
			config.DefaultWorker = workers[0].Name
		}
	}

	exitOnErrf(config.SaveGlobal(), "saving configuration failed")

	stdout.Printf("worker %s removed\n", term.GreenHighlight(name))
}

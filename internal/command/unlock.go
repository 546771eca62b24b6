package command

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/lock"
)

func init() {
	rootCmd.AddCommand(unlockCmd)
}

var unlockCmd = &cobra.Command{
	Use:   "unlock NAME",
	Short: "remove the lock file from a worker",
	Long: strings.TrimSpace(`
Remove the lock file from a worker.
This frees a worker whose lock was left behind by a crashed build. The lock
of a still running build is removed as well, there is no distinction between
the two.`),
	Run:  unlock,
	Args: cobra.ExactArgs(1),
}

func unlock(_ *cobra.Command, args []string) {
	config := mustLoadConfig("")
	worker := mustResolveWorker(config, args[0], false)

	sess := mustConnect(worker)
	defer sess.Close()

	record, err := lock.Inspect(sess, worker.BuildDir)
	exitOnErr(err)

	if record == nil {
		stdout.Printf("worker %s is not locked\n", term.Highlight(worker.Name))

		return
	}

	stdout.Printf("releasing lock held by %s since %s\n",
		term.YellowHighlight(record.Project),
		record.AcquiredAt.Format("2006-01-02 15:04:05"))

	exitOnErr(lock.Release(sess, worker.BuildDir))

	stdout.Printf("worker %s unlocked\n", term.GreenHighlight(worker.Name))
}

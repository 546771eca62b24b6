package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/format/table"
	"github.com/ci-farm/ci-farm/internal/session"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

const statusLongHelp = `
Show the availability of all configured workers.
Each worker is probed sequentially: a connection is opened and the lock
state is inspected.
`

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the availability of all workers",
	Long:  strings.TrimSpace(statusLongHelp),
	Run:   status,
	Args:  cobra.NoArgs,
}

func status(_ *cobra.Command, _ []string) {
	config := mustLoadConfig("")

	if len(config.Workers) == 0 {
		stdout.Printf("no workers configured, add one with '%s'\n", term.Highlight("ci-farm add"))

		return
	}

	formatter := table.New([]string{"Name", "Address", "Status", "Info"}, stdout)

	for _, worker := range config.Workers {
		available, info := session.CheckAvailable(ctx, worker)

		mustWriteRow(formatter,
			worker.Name,
			fmt.Sprintf("%s@%s:%d", worker.User, worker.Host, worker.Port),
			term.ColoredAvailability(available),
			info,
		)
	}

	exitOnErr(formatter.Flush())
}

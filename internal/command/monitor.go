package command

import (
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/monitor"
)

func init() {
	rootCmd.AddCommand(&newMonitorCmd().Command)
}

// clearScreen moves the cursor to the top-left corner and erases the
// display.
const clearScreen = "\033[H\033[2J"

const monitorLongHelp = `
Show a live dashboard with metrics of all configured workers.

Metrics are collected from all workers concurrently over persistent SSH
connections and refreshed periodically. The dashboard runs until it is
interrupted with Ctrl+C.
`

type monitorCmd struct {
	cobra.Command

	interval time.Duration
}

func newMonitorCmd() *monitorCmd {
	cmd := monitorCmd{
		Command: cobra.Command{
			Use:   "monitor",
			Short: "show a live dashboard of all workers",
			Long:  strings.TrimSpace(monitorLongHelp),
			Args:  cobra.NoArgs,
		},
	}

	cmd.Run = cmd.run

	cmd.Flags().DurationVarP(&cmd.interval, "interval", "i", 2*time.Second,
		"refresh interval")

	return &cmd
}

func (c *monitorCmd) run(_ *cobra.Command, _ []string) {
	config := mustLoadConfig("")

	if len(config.Workers) == 0 {
		stderr.Println("no workers configured")
		exitFunc(exitCodeError)

		return
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := monitor.NewCollector()
	defer collector.Close()

	stdout.Printf(clearScreen)
	stdout.Println("collecting metrics...")

	for {
		start := time.Now()

		metrics := collector.CollectAll(sigCtx, config.Workers)

		stdout.Printf(clearScreen)
		stdout.Println(monitor.Render(metrics, c.interval))

		sleep := c.interval - time.Since(start)
		if sleep < 100*time.Millisecond {
			sleep = 100 * time.Millisecond
		}

		select {
		case <-sigCtx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

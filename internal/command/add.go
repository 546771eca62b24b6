package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/format/table"
	"github.com/ci-farm/ci-farm/internal/session"
)

func init() {
	rootCmd.AddCommand(&newAddCmd().Command)
}

const addLongHelp = `
Register a new worker in the global configuration.

The worker is probed for commonly needed build tools before it is added.
If the connection fails or tools are missing, the worker is only added when
--force is passed. The first registered worker becomes the default worker.
`

type addCmd struct {
	cobra.Command

	user     string
	port     int
	key      string
	password string
	buildDir string
	force    bool
}

func newAddCmd() *addCmd {
	const example = `
add pi4 10.0.0.10 -u ci -k ~/.ssh/id_ci	register the worker pi4
add nuc 10.0.0.11 -p 2222 --force	register even when tools are missing
`

	cmd := addCmd{
		Command: cobra.Command{
			Use:     "add NAME HOST",
			Short:   "register a new worker",
			Long:    strings.TrimSpace(addLongHelp),
			Example: strings.TrimSpace(example),
			Args:    cobra.ExactArgs(2),
		},
	}

	cmd.Run = cmd.run

	cmd.Flags().StringVarP(&cmd.user, "user", "u", "root", "SSH user")
	cmd.Flags().IntVarP(&cmd.port, "port", "p", cfg.DefaultPort, "SSH port")
	cmd.Flags().StringVarP(&cmd.key, "key", "k", "", "path to the SSH private key")
	cmd.Flags().StringVar(&cmd.password, "password", "", "SSH password, used when no key is configured")
	cmd.Flags().StringVarP(&cmd.buildDir, "build-dir", "d", cfg.DefaultBuildDir,
		"worker-side directory for synchronized projects")
	cmd.Flags().BoolVarP(&cmd.force, "force", "f", false,
		"add the worker even when the connection fails or tools are missing")

	return &cmd
}

func (c *addCmd) run(_ *cobra.Command, args []string) {
	name, host := args[0], args[1]

	config := mustLoadConfig("")

	if config.Worker(name) != nil {
		stderr.Printf("worker %q already exists\n", name)
		exitFunc(exitCodeAlreadyExist)

		return
	}

	worker := &cfg.Worker{
		Name:     name,
		Host:     host,
		User:     c.user,
		Port:     c.port,
		Key:      c.key,
		Password: c.password,
		BuildDir: c.buildDir,
	}
	exitOnErr(worker.Validate())

	if !c.probeTools(worker) && !c.force {
		stderr.Printf("use %s to add the worker anyway\n", term.Highlight("--force"))
		exitFunc(exitCodeError)

		return
	}

	config.Workers = append(config.Workers, worker)

	if len(config.Workers) == 1 {
		config.DefaultWorker = name
	}

	exitOnErrf(config.SaveGlobal(), "saving configuration failed")

	stdout.Printf("worker %s added\n", term.GreenHighlight(name))
}

// probeTools connects to the worker and checks its build tools.
// It returns false when the worker is unreachable or a tool is missing.
func (c *addCmd) probeTools(worker *cfg.Worker) bool {
	sess := session.New(worker)

	if err := sess.Connect(ctx); err != nil {
		stderr.Printf("%s %s\n", term.YellowHighlight("Warning:"), err)

		return false
	}
	defer sess.Close()

	tools, err := sess.CheckTools(session.DefaultProbeTools)
	if err != nil {
		stderr.Printf("%s probing tools failed: %s\n", term.YellowHighlight("Warning:"), err)

		return false
	}

	formatter := table.New([]string{"Tool", "Status", "Version"}, stdout)

	missing := 0

	for _, tool := range tools {
		if !tool.Found {
			missing++
		}

		mustWriteRow(formatter, tool.Name, term.ColoredToolStatus(tool.Found), tool.Version)
	}

	exitOnErr(formatter.Flush())

	if missing > 0 {
		stderr.Println(term.YellowHighlight(
			fmt.Sprintf("%d tool(s) are missing on the worker", missing)))

		return false
	}

	return true
}

package command

import (
	"fmt"

	"github.com/ci-farm/ci-farm/internal/cfg"
	"github.com/ci-farm/ci-farm/internal/command/term"
	"github.com/ci-farm/ci-farm/internal/format"
	"github.com/ci-farm/ci-farm/internal/log"
	"github.com/ci-farm/ci-farm/internal/session"
)

func exitOnErr(err error) {
	if err == nil {
		return
	}

	stderr.Println(term.RedHighlight("Error:"), err)
	exitFunc(exitCodeError)
}

func exitOnErrf(err error, format string, v ...any) {
	if err == nil {
		return
	}

	stderr.Println(term.RedHighlight("Error:"), fmt.Sprintf(format, v...)+":", err)
	exitFunc(exitCodeError)
}

// mustLoadConfig loads and validates the merged configuration.
// projectDir may be empty to load only the global file.
func mustLoadConfig(projectDir string) *cfg.Config {
	config, err := cfg.Load(projectDir)
	exitOnErrf(err, "loading configuration failed")

	err = config.Validate()
	exitOnErrf(err, "configuration is invalid")

	return config
}

// mustResolveWorker resolves the worker a command operates on.
// With auto set and no explicit name, the first reachable idle worker is
// chosen.
func mustResolveWorker(config *cfg.Config, name string, auto bool) *cfg.Worker {
	if len(config.Workers) == 0 {
		stderr.Printf("no workers configured, add one with '%s'\n", term.Highlight("ci-farm add"))
		exitFunc(exitCodeError)
	}

	if name == "" && auto {
		log.Debugln("probing configured workers for an available one...")

		worker := session.FindAvailable(ctx, config.Workers)
		if worker == nil {
			stderr.Println(term.RedHighlight("Error:"), "no available worker found")
			exitFunc(exitCodeError)
		}

		return worker
	}

	worker := config.Worker(name)
	if worker == nil {
		stderr.Printf("%s worker %q is not configured\n", term.RedHighlight("Error:"), name)
		exitFunc(exitCodeNotExist)
	}

	return worker
}

func mustWriteRow(formatter format.Formatter, row ...any) {
	err := formatter.WriteRow(row...)
	exitOnErr(err)
}

// mustConnect opens a session to the worker.
// The caller is responsible for closing it.
func mustConnect(worker *cfg.Worker) *session.Session {
	log.Debugf("connecting to worker %s (%s@%s:%d)...",
		worker.Name, worker.User, worker.Host, worker.Port)

	sess := session.New(worker)

	err := sess.Connect(ctx)
	exitOnErr(err)

	return sess
}

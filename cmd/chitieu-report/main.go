// Command chitieu-report prints spending reports in the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"
	"time"

	"github.com/google/subcommands"

	"chitieu/internal/backend"
	"chitieu/internal/cli"
	"chitieu/internal/config"
	applog "chitieu/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLoggerTo(cfg, applog.ComponentReport, os.Stderr)

	env := &environment{
		currency: cfg.Currency,
		loc:      cfg.Location(),
		now:      time.Now,
		out:      os.Stdout,
		errOut:   os.Stderr,
		logger:   logger,
		open: func(ctx context.Context) (*backend.BackendResult, error) {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return nil, err
			}
			return backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
		},
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands(env) {
		commander.Register(c, "reports")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

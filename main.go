// geneaccess - A terminal client for the GeneAccess genetic risk intake.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jeranaias/geneaccess-tui/internal/cli"
	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/observability"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.GetExitCode(err)
	}

	// A missing .env is normal; values already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitConfigError
	}

	cfg, err := loadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitConfigError
	}
	config.SetGlobal(cfg)

	logger, closeLog := setupLogging(cfg, cmd, args)
	defer closeLog()

	client, err := geneaccess.NewClientWithConfig(&geneaccess.ClientConfig{
		BaseURL:   cfg.Server.BaseURL,
		Timeout:   cfg.RequestTimeout(),
		UserAgent: cfg.Server.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, client, logger)
	app.ConfigPath = args.ConfigPath
	app.Quiet = args.Quiet

	if err := app.Run(ctx, cmd, args); err != nil {
		logger.Debug("command failed", "command", cmd.String(), "error", err)
		cli.DisplayError(os.Stderr, err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}

// loadConfig reads --config if given, else the default file, and applies
// the --url override.
func loadConfig(args cli.Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.BaseURL != "" {
		cfg.Server.BaseURL = args.BaseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// setupLogging installs the process logger. The full-screen UI owns the
// terminal, so its logs go to the log file; line-mode commands log to
// stderr unless a file is configured.
func setupLogging(cfg *config.Config, cmd cli.Command, args cli.Args) (*slog.Logger, func()) {
	var out io.Writer = os.Stderr
	closeFn := func() {}
	level := cfg.Logging.Level

	toFile := cfg.Logging.File != "" || cmd == cli.CmdTUI || (cmd == cli.CmdQuestionnaire && cli.IsTTY())
	if toFile {
		f, err := observability.OpenLogFile(cfg.LogFilePath())
		if err != nil {
			out = io.Discard
		} else {
			out = f
			closeFn = func() { f.Close() }
		}
	} else if !args.Verbose && observability.ParseLevel(level) < slog.LevelWarn {
		// Line mode logs warnings and above to stderr.
		level = "warn"
	}

	logger := observability.Init(observability.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: out,
	})
	return logger, closeFn
}

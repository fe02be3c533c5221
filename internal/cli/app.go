// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Command dispatch and the shared backend session.

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/observability"
	"github.com/jeranaias/geneaccess-tui/internal/questionnaire"
	"github.com/jeranaias/geneaccess-tui/internal/ui/chat"
)

// Backend is the transport surface the commands use.
type Backend interface {
	chat.Backend
	questionnaire.Submitter
	Login(ctx context.Context, email, password string) error
	GetReport(ctx context.Context) (*geneaccess.ReportInfo, error)
	DeleteReport(ctx context.Context, filename string) error
}

// App carries everything a command needs. Fields left nil by the caller
// are filled by NewApp.
type App struct {
	Config     *config.Config
	ConfigPath string
	Client     Backend
	Logger     *slog.Logger

	In  io.Reader
	Out io.Writer
	Err io.Writer

	Quiet bool

	// NewLineReader opens the prompt used by line-mode commands.
	NewLineReader func() LineReader

	// ReadPassword asks for the account password when none is configured.
	ReadPassword func(prompt string) (string, error)

	loggedIn bool
}

// NewApp wires an App to the process's standard streams.
func NewApp(cfg *config.Config, client Backend, logger *slog.Logger) *App {
	if logger == nil {
		logger = observability.Logger()
	}
	a := &App{
		Config: cfg,
		Client: client,
		Logger: logger.With("component", "cli"),
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
	a.NewLineReader = func() LineReader {
		if IsTTY() {
			return NewLinerReader()
		}
		return NewScanReader(a.In, a.Out)
	}
	a.ReadPassword = func(prompt string) (string, error) {
		return ReadPassword(a.Err, prompt)
	}
	return a
}

// Run executes cmd. Commands that talk to the chat backend sign in first.
func (a *App) Run(ctx context.Context, cmd Command, args Args) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(a.Out)
		return nil
	case CmdVersion:
		PrintVersion(a.Out)
		return nil
	case CmdConfig:
		return a.runConfig(args)
	case CmdLogin:
		return a.runLogin(ctx, args)
	}

	if err := a.EnsureLogin(ctx); err != nil {
		return err
	}

	switch cmd {
	case CmdChat:
		return a.runChat(ctx, args)
	case CmdQuestionnaire:
		return a.runQuestionnaire(ctx, args)
	case CmdReport:
		return a.runReport(ctx, args)
	case CmdReset:
		return a.runReset(ctx, args)
	default:
		return a.runTUI(ctx, args)
	}
}

// EnsureLogin signs in once per process when an account email is
// configured. Without one the backend is used anonymously and answers
// with ErrNotAuthenticated where it requires a session.
func (a *App) EnsureLogin(ctx context.Context) error {
	if a.loggedIn || a.Config.Account.Email == "" {
		return nil
	}
	if !a.Config.HasCredentials() {
		a.Logger.Debug("no password configured, prompting", "email", a.Config.Account.Email)
		return a.login(ctx, a.Config.Account.Email, "")
	}
	return a.login(ctx, a.Config.Account.Email, a.Config.Account.Password)
}

func (a *App) login(ctx context.Context, email, password string) error {
	if password == "" {
		pw, err := a.ReadPassword("Password for " + email + ": ")
		if err != nil {
			return NewCommandError("login", "read password", "set GENEACCESS_PASSWORD or run in a terminal", err)
		}
		password = pw
	}

	if err := a.Client.Login(ctx, email, password); err != nil {
		return err
	}
	a.loggedIn = true
	a.Logger.Debug("signed in", "email", email)
	return nil
}

// printf writes unless --quiet was given.
func (a *App) printf(format string, args ...any) {
	if a.Quiet {
		return
	}
	fmt.Fprintf(a.Out, format, args...)
}

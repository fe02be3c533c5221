// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The full-screen intake chat.

package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/ui/chat"
)

// runTUI starts the Bubble Tea chat and, when a config file is in use,
// feeds edits to it into the running program.
//
//	geneaccess [tui] [--no-form]
func (a *App) runTUI(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "no-form")
	if unknown := p.Unknown("no-form"); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: unknown[0], Reason: "unknown flag for tui", Example: "geneaccess tui --no-form"}
	}
	if err := RequiresTTY("start the chat"); err != nil {
		return err
	}

	m := chat.New(a.Client, chat.Options{
		Config:   a.Config,
		Logger:   a.Logger,
		SkipForm: p.BoolFlag("no-form"),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if path, err := a.configPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			go a.watchConfig(ctx, prog, path)
		}
	}

	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		return NewCommandError("tui", "run", "terminal UI failed", err)
	}
	return nil
}

// watchConfig forwards config reloads to the program until ctx ends. A
// good reload has already replaced the global config.
func (a *App) watchConfig(ctx context.Context, prog *tea.Program, path string) {
	err := config.Watch(ctx, path, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
		prog.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
	})
	if err != nil {
		a.Logger.Warn("config watch stopped", "path", path, "error", err)
	}
}

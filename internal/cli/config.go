// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The config command.

package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/geneaccess-tui/internal/config"
)

const maskedPassword = "********"

// runConfig shows, creates or locates the config file.
//
//	geneaccess config [show|init [--force]|path]
func (a *App) runConfig(args Args) error {
	p := NewArgParser(args.Raw, "force")

	switch sub := p.Positional(0); sub {
	case "", "show":
		return a.showConfig()
	case "path":
		path, err := a.configPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out, path)
		return nil
	case "init":
		return a.initConfig(p.BoolFlag("force"))
	default:
		return &ValidationError{Field: "config subcommand", Value: sub, Reason: "expected show, init or path", Example: "geneaccess config init"}
	}
}

// configPath is --config if given, else the default location.
func (a *App) configPath() (string, error) {
	if a.ConfigPath != "" {
		return a.ConfigPath, nil
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return "", NewCommandError("config", "locate", "no home directory", err)
	}
	return path, nil
}

// showConfig prints the effective settings, environment overrides
// included, as TOML.
func (a *App) showConfig() error {
	out := *a.Config
	if out.Account.Password != "" {
		out.Account.Password = maskedPassword
	}
	if !a.Quiet {
		if path, err := a.configPath(); err == nil {
			fmt.Fprintln(a.Out, DimStyle.Render("# "+path))
		}
	}
	if err := toml.NewEncoder(a.Out).Encode(out); err != nil {
		return NewCommandError("config", "show", "could not encode settings", err)
	}
	return nil
}

func (a *App) initConfig(force bool) error {
	path, err := a.configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "could not write the config file", err)
	}
	a.printf("%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

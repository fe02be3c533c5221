// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session.go - login and reset.

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/render"
)

// runLogin checks the credentials against the backend. With --save the
// email is written to the config file; the password never is.
//
//	geneaccess login [--email ADDR] [--save]
func (a *App) runLogin(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "save")
	if unknown := p.Unknown("email", "save"); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: unknown[0], Reason: "unknown flag for login", Example: "geneaccess login --email you@example.com --save"}
	}

	email := strings.TrimSpace(p.FlagOrDefault("email", a.Config.Account.Email))
	if email == "" {
		lines := a.NewLineReader()
		v, err := lines.Prompt("Email: ")
		lines.Close()
		if err != nil {
			return NewCommandError("login", "read email", "no email given", err)
		}
		email = strings.TrimSpace(v)
	}
	if email == "" {
		return ErrMissingArgument("email", "geneaccess login --email you@example.com")
	}

	password := ""
	if strings.EqualFold(email, a.Config.Account.Email) {
		password = a.Config.Account.Password
	}
	if err := a.login(ctx, email, password); err != nil {
		return err
	}
	a.printf("%s Signed in as %s\n", SuccessStyle.Render("[OK]"), email)

	if p.BoolFlag("save") {
		a.Config.Account.Email = email
		path, err := a.configPath()
		if err != nil {
			return err
		}
		if err := config.SaveTOML(a.Config, path); err != nil {
			return NewCommandError("login", "save", "could not write the config file", err)
		}
		a.printf("%s\n", DimStyle.Render("Email saved to "+path+". Keep the password in GENEACCESS_PASSWORD."))
	}
	return nil
}

// runReset starts a new chat session on the backend and prints its
// greeting.
func (a *App) runReset(ctx context.Context, _ Args) error {
	res, err := a.Client.ResetSession(ctx)
	if err != nil {
		return NewCommandError("reset", "session", "the backend did not start a new chat", err)
	}
	if a.Quiet {
		return nil
	}
	fmt.Fprintf(a.Out, "%s New chat started.\n", SuccessStyle.Render("[OK]"))
	if text := strings.TrimSpace(res.Response.Message); text != "" {
		fmt.Fprintln(a.Out, BotStyle.Render("Dr. GeneAccess:")+" "+render.Wrap(render.Sanitize(text), GetTerminalWidth()-2))
	}
	if res.Response.HasOptions() {
		fmt.Fprintln(a.Out, render.Options(res.Response.Options))
	}
	return nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the commands of the
// geneaccess client.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Global flags plus the raw arguments of the command
//   - App: The loaded config, the backend client and the I/O streams
//   - LineReader: Prompted input for the line-mode commands
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.DisplayError(os.Stderr, err)
//	    os.Exit(cli.GetExitCode(err))
//	}
//	app := cli.NewApp(cfg, client, logger)
//	err = app.Run(ctx, cmd, args)
//
// # Commands Overview
//
//   - tui: Full-screen intake chat (default)
//   - chat: Line-mode intake chat with slash commands
//   - questionnaire: Linear questionnaire with an optional DNA file
//   - report: Show, download or delete the latest report
//   - reset: Start a new backend chat session
//   - login: Check credentials, optionally saving the email
//   - config: Show, create or locate the config file
//
// Commands that reach the backend sign in first when an account email is
// configured. Errors map to exit codes through GetExitCode.
package cli

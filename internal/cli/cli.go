// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for geneaccess.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdQuestionnaire
	CmdReport
	CmdReset
	CmdLogin
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdChat:
		return "chat"
	case CmdQuestionnaire:
		return "questionnaire"
	case CmdReport:
		return "report"
	case CmdReset:
		return "reset"
	case CmdLogin:
		return "login"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "tui"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose    bool
	Quiet      bool
	ConfigPath string
	BaseURL    string

	// Command-specific
	Subcommand string

	// Raw args after the command name, for the command's own parser
	Raw []string
}

const usageText = `geneaccess - terminal client for the GeneAccess genetic risk intake

Usage:
  geneaccess                        Start the intake chat (default)
  geneaccess tui [--no-form]        Start the intake chat, optionally without the patient form
  geneaccess chat                   Line-mode chat for plain terminals
  geneaccess questionnaire [--plain]
                                    Answer the linear questionnaire
  geneaccess report [--download] [--output DIR]
                                    Show or save the latest report
  geneaccess report --delete [FILE] Delete a stored report
  geneaccess reset                  Start a new chat session
  geneaccess login [--email ADDR] [--save]
                                    Sign in to the backend
  geneaccess config [show|init|path]
                                    Configuration
  geneaccess version                Show version
  geneaccess help                   Show this help

Chat commands (line mode):
  /reset     Start over
  /report    Show the report link
  /save      Download the report
  /help      Show chat commands
  /quit      Leave

Global Flags:
  -v, --verbose        Debug logging
  -q, --quiet          Minimal output
  --config PATH        Config file (default: ~/.geneaccess/config.toml)
  --url URL            Backend URL (overrides config)

Environment:
  GENEACCESS_URL, GENEACCESS_EMAIL, GENEACCESS_PASSWORD, GENEACCESS_TIMEOUT,
  GENEACCESS_REPORT_DIR, GENEACCESS_REPORT_DELAY_MS, GENEACCESS_LOG_LEVEL,
  GENEACCESS_LOG_FILE. A .env file in the working directory is read first.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "geneaccess version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	remaining, parsed, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsed, err
	}

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsed, nil
	}

	name := strings.ToLower(remaining[0])
	parsed.Raw = remaining[1:]
	if len(parsed.Raw) > 0 && !strings.HasPrefix(parsed.Raw[0], "-") {
		parsed.Subcommand = parsed.Raw[0]
	}

	switch name {
	case "tui":
		return CmdTUI, parsed, nil
	case "chat":
		return CmdChat, parsed, nil
	case "questionnaire", "q":
		return CmdQuestionnaire, parsed, nil
	case "report":
		return CmdReport, parsed, nil
	case "reset":
		return CmdReset, parsed, nil
	case "login":
		return CmdLogin, parsed, nil
	case "config":
		return CmdConfig, parsed, nil
	case "version", "--version":
		return CmdVersion, parsed, nil
	case "help", "-h", "--help":
		return CmdHelp, parsed, nil
	default:
		return CmdHelp, parsed, &ValidationError{
			Field:   "command",
			Value:   remaining[0],
			Reason:  "unknown command",
			Example: "geneaccess help",
		}
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags are only recognized before the command name.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "-v" || arg == "--verbose":
			parsed.Verbose = true
		case arg == "-q" || arg == "--quiet":
			parsed.Quiet = true
		case arg == "--config" || arg == "--url":
			if i+1 >= len(args) {
				return nil, parsed, ErrMissingArgument(arg, "geneaccess "+arg+" VALUE")
			}
			i++
			setGlobal(&parsed, arg, args[i])
		case strings.HasPrefix(arg, "--config=") || strings.HasPrefix(arg, "--url="):
			k, v, _ := strings.Cut(arg, "=")
			setGlobal(&parsed, k, v)
		case !strings.HasPrefix(arg, "-") || arg == "-h" || arg == "--help" || arg == "--version":
			return args[i:], parsed, nil
		default:
			return nil, parsed, &ValidationError{Field: "flag", Value: arg, Reason: "unknown global flag", Example: "geneaccess --verbose chat"}
		}
	}
	return nil, parsed, nil
}

func setGlobal(a *Args, flag, value string) {
	switch flag {
	case "--config":
		a.ConfigPath = value
	case "--url":
		a.BaseURL = value
	}
}

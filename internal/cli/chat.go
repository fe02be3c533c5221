// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode intake chat for terminals without the full-screen UI.
//
// The session controller is shared with the TUI, so the same gating,
// final-answer and report rules apply. Only the presentation differs:
// bot turns are printed as they arrive and the user types at a prompt.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/model"
	"github.com/jeranaias/geneaccess-tui/internal/render"
	"github.com/jeranaias/geneaccess-tui/internal/session"
	"github.com/jeranaias/geneaccess-tui/internal/ui/chat"
)

const chatHelpText = `Chat commands:
  /reset     Start over
  /report    Show the report link
  /save      Download the report
  /help      Show this help
  /quit      Leave`

// =============================================================================
// TRANSCRIPT PRINTER
// =============================================================================

// transcript prints the bot turns of a message log that have not been
// printed yet. User turns are not echoed; the user just typed them.
type transcript struct {
	log     *model.MessageLog
	out     io.Writer
	width   int
	resolve func(string) (string, error)
	printed int
}

// rewind starts over after the log was cleared.
func (t *transcript) rewind() { t.printed = 0 }

func (t *transcript) flush() {
	msgs := t.log.Messages()
	if len(msgs) < t.printed {
		t.printed = 0
	}
	for _, m := range msgs[t.printed:] {
		if !m.IsUser() {
			fmt.Fprintln(t.out, t.format(m))
		}
	}
	t.printed = len(msgs)
}

func (t *transcript) format(m model.Message) string {
	prefix := BotStyle.Render(m.Role.DisplayName() + ":")
	body := render.Wrap(render.Sanitize(m.Content), t.width)

	switch m.Kind {
	case model.KindOptions:
		return prefix + " " + body + "\n" + render.Options(m.Options)
	case model.KindNotice:
		return prefix + " " + DimStyle.Render(body)
	case model.KindWarning:
		return prefix + " " + WarningStyle.Render(body)
	case model.KindError:
		return prefix + " " + ErrorStyle.Render(body)
	case model.KindReport:
		out := prefix + " " + SuccessStyle.Render(body)
		if link, err := t.resolve(m.Link); err == nil {
			out += "\n  " + LinkStyle.Render(link) + "\n  " + DimStyle.Render("Type /save to download it.")
		}
		return out
	default:
		return prefix + " " + body
	}
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

type chatREPL struct {
	app   *App
	ctrl  *session.Controller
	lines LineReader
	tr    *transcript
}

// runChat runs the line-mode chat until /quit, Ctrl+C or end of input.
//
//	geneaccess chat [--no-form]
func (a *App) runChat(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "no-form")
	if unknown := p.Unknown("no-form"); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: unknown[0], Reason: "unknown flag for chat", Example: "geneaccess chat --no-form"}
	}

	opts := session.OptionsFromConfig(a.Config)
	opts.Logger = a.Logger
	ctrl := session.New(a.Client, nil, opts)

	lines := a.NewLineReader()
	defer lines.Close()

	r := &chatREPL{
		app:   a,
		ctrl:  ctrl,
		lines: lines,
		tr: &transcript{
			log:     ctrl.Log(),
			out:     a.Out,
			width:   GetTerminalWidth() - 2,
			resolve: a.Client.ResolveURL,
		},
	}

	if !a.Quiet {
		fmt.Fprintln(a.Out, TitleStyle.Render("GeneAccess AI - genetic risk intake"))
	}

	var err error
	if p.BoolFlag("no-form") {
		err = ctrl.Reset(ctx)
	} else {
		info, ok, ferr := r.patientForm()
		if ferr != nil || !ok {
			return ferr
		}
		err = ctrl.StartIntake(ctx, info)
	}
	r.tr.flush()
	if err != nil {
		a.Logger.Warn("session start failed", "error", err)
	}
	if !a.Quiet {
		fmt.Fprintln(a.Out, DimStyle.Render("Type /help for commands."))
	}

	return r.loop(ctx)
}

// patientForm asks for the intake fields, re-asking only the invalid
// ones. ok is false when the user left.
func (r *chatREPL) patientForm() (geneaccess.PatientInfo, bool, error) {
	fields := []struct{ key, label string }{
		{"name", "Full name: "},
		{"sex", "Sex (male/female/ambiguous/other): "},
		{"age", "Age: "},
		{"dob", "Date of birth (YYYY-MM-DD): "},
	}
	values := make(map[string]string, len(fields))
	pending := map[string]bool{"name": true, "sex": true, "age": true, "dob": true}

	for {
		for _, f := range fields {
			if !pending[f.key] {
				continue
			}
			v, err := r.lines.Prompt(f.label)
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
					return geneaccess.PatientInfo{}, false, nil
				}
				return geneaccess.PatientInfo{}, false, err
			}
			values[f.key] = v
		}

		info, err := geneaccess.ParsePatientInfo(values["name"], values["sex"], values["age"], values["dob"], time.Now())
		if err == nil {
			return info, true, nil
		}
		var ferrs geneaccess.FieldErrors
		if !errors.As(err, &ferrs) {
			return geneaccess.PatientInfo{}, false, err
		}
		for _, f := range fields {
			msg := ferrs.For(f.key)
			pending[f.key] = msg != ""
			if msg != "" {
				fmt.Fprintf(r.app.Out, "%s %s %s\n", WarningStyle.Render("!"), f.key, msg)
			}
		}
	}
}

func (r *chatREPL) loop(ctx context.Context) error {
	for {
		input, err := r.lines.Prompt(UserStyle.Render("You") + "> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
				fmt.Fprintln(r.app.Out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := r.command(ctx, input)
			if err != nil {
				fmt.Fprintf(r.app.Err, "%s %v\n", ErrorStyle.Render("[Error]"), err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil
		}
		r.send(ctx, input)
	}
}

// send runs one exchange and prints what it appended. A failed exchange
// already left the error turn in the log.
func (r *chatREPL) send(ctx context.Context, text string) {
	ex, err := r.ctrl.Begin(text)
	if err != nil {
		// A restricted command leaves its warning in the log.
		r.tr.flush()
		return
	}

	// The thank-you notice of a final answer goes out before the wait.
	r.tr.flush()
	if !r.app.Quiet {
		switch r.ctrl.Indicator() {
		case session.IndicatorTyping:
			fmt.Fprintln(r.app.Out, DimStyle.Render("Dr. GeneAccess is typing..."))
		case session.IndicatorAnalyzing:
			fmt.Fprintln(r.app.Out, DimStyle.Render("Analyzing your answers..."))
		}
	}

	if err := r.ctrl.Run(ctx, ex); err != nil {
		if geneaccess.IsTransportError(err) {
			r.app.Logger.Warn("chat exchange failed", "error", err)
		} else {
			r.app.Logger.Debug("chat exchange interrupted", "error", err)
		}
	}
	r.tr.flush()
}

// command handles a slash command. quit is true for /quit.
func (r *chatREPL) command(ctx context.Context, input string) (quit bool, err error) {
	name := strings.ToLower(strings.Fields(input)[0])

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil

	case "/help", "/?":
		fmt.Fprintln(r.app.Out, chatHelpText)
		return false, nil

	case "/reset", "/new":
		err := r.ctrl.Reset(ctx)
		r.tr.rewind()
		r.tr.flush()
		return false, err

	case "/report":
		info, err := r.report(ctx)
		if err != nil {
			return false, err
		}
		link, err := r.app.Client.ResolveURL(info.DownloadURL)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.app.Out, "%s %s\n", RenderLabel("Report"), LinkStyle.Render(link))
		return false, nil

	case "/save", "/download":
		info, err := r.report(ctx)
		if err != nil {
			return false, err
		}
		path, n, err := chat.SaveReport(ctx, r.app.Client, info.DownloadURL, r.app.Config.ReportDir())
		if err != nil {
			return false, NewCommandError("chat", "save report", "download failed", err)
		}
		fmt.Fprintf(r.app.Out, "%s Report saved to %s (%s)\n", SuccessStyle.Render("[OK]"), path, chat.FormatBytes(n))
		return false, nil

	default:
		return false, &ValidationError{Field: "command", Value: name, Reason: "unknown chat command", Example: "/help"}
	}
}

// report returns the report shown in this session, or asks the backend
// for the latest one.
func (r *chatREPL) report(ctx context.Context) (*geneaccess.ReportInfo, error) {
	if info := r.ctrl.Report(); info != nil && info.DownloadURL != "" {
		return info, nil
	}
	info, err := r.app.Client.GetReport(ctx)
	if err != nil {
		return nil, reportError("chat", err)
	}
	if info.DownloadURL == "" {
		return nil, NewCommandError("chat", "report", "the backend returned no download link", nil)
	}
	return info, nil
}

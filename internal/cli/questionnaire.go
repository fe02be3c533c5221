// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// questionnaire.go - The linear questionnaire, full-screen or line by line.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/questionnaire"
	"github.com/jeranaias/geneaccess-tui/internal/render"
	"github.com/jeranaias/geneaccess-tui/internal/ui/stepper"
)

// runQuestionnaire walks the configured questions and submits them with
// an optional DNA file.
//
//	geneaccess questionnaire [--plain]
func (a *App) runQuestionnaire(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "plain")
	if unknown := p.Unknown("plain"); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: unknown[0], Reason: "unknown flag for questionnaire", Example: "geneaccess questionnaire --plain"}
	}

	if p.BoolFlag("plain") || !IsTTY() {
		return a.plainQuestionnaire(ctx)
	}

	m, err := stepper.New(a.Client, stepper.Options{Config: a.Config, Logger: a.Logger})
	if err != nil {
		return NewCommandError("questionnaire", "start", "invalid question list", err)
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return NewCommandError("questionnaire", "run", "terminal UI failed", err)
	}
	if sm, ok := final.(stepper.Model); ok && sm.Result() != nil {
		a.printAnalysis(sm.Result())
	}
	return nil
}

// plainQuestionnaire asks one question per prompt. "/back" returns to the
// previous step and "/quit" leaves without submitting.
func (a *App) plainQuestionnaire(ctx context.Context) error {
	steps, err := questionnaire.FromConfig(a.Config)
	if err != nil {
		return NewCommandError("questionnaire", "start", "invalid question list", err)
	}

	lines := a.NewLineReader()
	defer lines.Close()

	questions := steps.Len() - 1
	for {
		if steps.AtUploadStep() {
			file, back, quit, err := a.promptAttachment(lines, steps.Current())
			if err != nil || quit {
				return err
			}
			if back {
				steps.Back()
				continue
			}

			a.printf("%s\n", DimStyle.Render("Analyzing your answers..."))
			res, err := steps.Submit(ctx, a.Client, file)
			if err != nil {
				fmt.Fprintln(a.Err, WarningStyle.Render(stepper.SubmitFailureText))
				return NewCommandError("questionnaire", "submit", "analysis failed", err)
			}
			a.printAnalysis(res)
			return nil
		}

		fmt.Fprintf(a.Out, "\n%s\n%s\n",
			DimStyle.Render(fmt.Sprintf("Question %d of %d", steps.Index()+1, questions)),
			TitleStyle.UnsetMarginBottom().Render(steps.Current()))
		answer, err := lines.Prompt("> ")
		if err != nil {
			return quitOnEOF(err)
		}

		switch strings.TrimSpace(answer) {
		case "/quit", "/exit":
			return nil
		case "/back":
			if _, ok := steps.Back(); !ok {
				fmt.Fprintln(a.Out, DimStyle.Render("Already at the first question."))
			}
			continue
		}

		if err := steps.Advance(answer); errors.Is(err, questionnaire.ErrEmptyAnswer) {
			fmt.Fprintln(a.Out, WarningStyle.Render(stepper.EmptyAnswerText))
		}
	}
}

// promptAttachment asks for the optional DNA file until it can be read.
func (a *App) promptAttachment(lines LineReader, label string) (file *geneaccess.Attachment, back, quit bool, err error) {
	fmt.Fprintf(a.Out, "\n%s\n", TitleStyle.UnsetMarginBottom().Render(label))
	for {
		path, err := lines.Prompt("File path (blank to skip): ")
		if err != nil {
			return nil, false, true, quitOnEOF(err)
		}
		switch strings.TrimSpace(path) {
		case "/quit", "/exit":
			return nil, false, true, nil
		case "/back":
			return nil, true, false, nil
		}

		file, err := questionnaire.LoadAttachment(path)
		if err != nil {
			fmt.Fprintf(a.Out, "%s %v\n", WarningStyle.Render("Could not read the file:"), err)
			continue
		}
		return file, false, false, nil
	}
}

// printAnalysis prints the prediction, the markdown details and the
// report link.
func (a *App) printAnalysis(res *geneaccess.AnalysisResult) {
	width := GetTerminalWidth() - 2
	style := a.Config.UI.MarkdownStyle
	if !ColorsEnabled() {
		style = "notty"
	}
	md, err := render.NewMarkdown(width, style)
	if err != nil {
		a.Logger.Debug("markdown renderer unavailable", "error", err)
	}

	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, RenderLabel("Prediction")+SuccessStyle.Render(render.Sanitize(res.Prediction)))
	if strings.TrimSpace(res.Details) != "" {
		fmt.Fprintln(a.Out, md.Render(res.Details))
	}
	if res.ReportURL != "" {
		if link, err := a.Client.ResolveURL(res.ReportURL); err == nil {
			fmt.Fprintln(a.Out, RenderLabel("Report")+LinkStyle.Render(link))
		}
	}
}

// quitOnEOF treats the end of input and Ctrl+C as leaving.
func quitOnEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
		return nil
	}
	return err
}

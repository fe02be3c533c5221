// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stepper

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/observability"
	"github.com/jeranaias/geneaccess-tui/internal/questionnaire"
	"github.com/jeranaias/geneaccess-tui/internal/render"
	"github.com/jeranaias/geneaccess-tui/internal/ui/styles"
)

// Texts shown by the questionnaire screen.
const (
	EmptyAnswerText   = "Please enter an answer before continuing."
	SubmitFailureText = "We could not analyze your answers. Please try again."
)

// SubmitDoneMsg carries the result of POST /analyze.
type SubmitDoneMsg struct {
	Result *geneaccess.AnalysisResult
	Err    error
}

// Options configures a Model.
type Options struct {
	Config *config.Config
	Theme  *styles.Theme
	Logger *slog.Logger
}

// urlResolver is implemented by submitters that can absolutize report links.
type urlResolver interface {
	ResolveURL(ref string) (string, error)
}

// Model is the Bubble Tea model for the linear questionnaire.
type Model struct {
	theme  *styles.Theme
	cfg    *config.Config
	logger *slog.Logger

	steps *questionnaire.Stepper
	sub   questionnaire.Submitter

	width  int
	height int

	input    textinput.Model
	progress progress.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	submitting bool
	result     *geneaccess.AnalysisResult
	details    string

	// inline is a validation message under the input.
	inline string
	// failure replaces the form after a failed submission.
	failure string
}

// New creates the questionnaire model from cfg's [questionnaire] section.
func New(sub questionnaire.Submitter, opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	steps, err := questionnaire.FromConfig(cfg)
	if err != nil {
		return Model{}, err
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Logger()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 1000
	ti.Focus()

	m := Model{
		theme:    theme,
		cfg:      cfg,
		logger:   logger.With("component", "questionnaire"),
		steps:    steps,
		sub:      sub,
		input:    ti,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:  spinner.New(spinner.WithSpinner(styles.AnalyzingSpinner), spinner.WithStyle(theme.Indicator)),
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
	m.syncInput()
	return m, nil
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		m.progress.Width = min(max(msg.Width-12, 10), 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SubmitDoneMsg:
		return m.handleSubmitDone(msg)

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case m.submitting:
		return m, nil

	case key.Matches(msg, m.keys.Restart):
		m.restart()
		return m, nil

	case m.result != nil || m.failure != "":
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if prev, ok := m.steps.Back(); ok {
			m.inline = ""
			m.syncInput()
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.steps.AtUploadStep() {
			return m.submit()
		}
		return m.advance()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	if err := m.steps.Advance(m.input.Value()); err != nil {
		if errors.Is(err, questionnaire.ErrEmptyAnswer) {
			m.inline = EmptyAnswerText
		}
		return m, nil
	}
	m.inline = ""
	m.input.Reset()
	m.syncInput()
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	file, err := questionnaire.LoadAttachment(m.input.Value())
	if err != nil {
		m.inline = "Could not read the file: " + err.Error()
		return m, nil
	}

	m.inline = ""
	m.submitting = true
	m.logger.Info("questionnaire submitted", "answers", len(m.steps.Answers()), "attachment", file != nil)

	steps, sub := m.steps, m.sub
	submitCmd := func() tea.Msg {
		res, err := steps.Submit(context.Background(), sub, file)
		return SubmitDoneMsg{Result: res, Err: err}
	}
	return m, tea.Batch(submitCmd, m.spinner.Tick)
}

func (m Model) handleSubmitDone(msg SubmitDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.Err != nil || msg.Result == nil {
		m.logger.Warn("questionnaire analysis failed", "error", msg.Err)
		m.failure = SubmitFailureText
		return m, nil
	}

	m.result = msg.Result
	m.details = ""
	if msg.Result.Details != "" {
		width := m.width - 8
		if width < 20 {
			width = 72
		}
		md, err := render.NewMarkdown(width, m.cfg.UI.MarkdownStyle)
		if err != nil {
			m.logger.Debug("markdown renderer unavailable", "error", err)
		}
		m.details = md.Render(msg.Result.Details)
	}
	return m, nil
}

// restart clears every answer and any result.
func (m *Model) restart() {
	m.steps.Reset()
	m.result = nil
	m.details = ""
	m.failure = ""
	m.inline = ""
	m.input.Reset()
	m.syncInput()
}

// syncInput sets the input placeholder for the current step.
func (m *Model) syncInput() {
	if m.steps.AtUploadStep() {
		m.input.Placeholder = "Path to your DNA file (optional), Enter to submit"
		return
	}
	m.input.Placeholder = "Your answer"
}

// reportURL returns the absolute report link of the result, if any.
func (m Model) reportURL() string {
	if m.result == nil || m.result.ReportURL == "" {
		return ""
	}
	if r, ok := m.sub.(urlResolver); ok {
		if u, err := r.ResolveURL(m.result.ReportURL); err == nil {
			return u
		}
	}
	return m.result.ReportURL
}

// Result returns the analysis result once submitted.
func (m Model) Result() *geneaccess.AnalysisResult { return m.result }

// Stepper returns the underlying questionnaire state.
func (m Model) Stepper() *questionnaire.Stepper { return m.steps }

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/observability"
	"github.com/jeranaias/geneaccess-tui/internal/session"
	"github.com/jeranaias/geneaccess-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// Phase is the screen currently shown.
type Phase int

const (
	PhaseForm Phase = iota // Patient form
	PhaseChat              // Conversation, including the report loader
)

// Backend is everything the chat screen needs from the transport client.
type Backend interface {
	session.Backend
	ReportDownloader
	ResolveURL(ref string) (string, error)
}

// Options configures a chat Model.
type Options struct {
	// Config defaults to the global configuration.
	Config *config.Config
	Theme  *styles.Theme
	Logger *slog.Logger

	// SkipForm starts the conversation without the patient form.
	SkipForm bool
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the intake chat.
type Model struct {
	phase Phase

	theme   *styles.Theme
	cfg     *config.Config
	backend Backend
	ctrl    *session.Controller
	logger  *slog.Logger

	// Dimensions
	width  int
	height int

	// UI Components
	form     patientForm
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	help     help.Model
	keys     KeyMap

	// drawnRevision is the log revision last rendered into the viewport.
	drawnRevision uint64

	// Report loader timing
	reportStart time.Time
	reportDelay time.Duration

	// Status toast
	status    string
	statusErr bool
	statusSeq int
}

// New creates the chat model.
func New(backend Backend, opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Global()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Logger()
	}

	ctrlOpts := session.OptionsFromConfig(cfg)
	ctrlOpts.Logger = logger

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your answer..."
	ti.CharLimit = 2000

	m := Model{
		phase:    PhaseForm,
		theme:    theme,
		cfg:      cfg,
		backend:  backend,
		ctrl:     session.New(backend, nil, ctrlOpts),
		logger:   logger.With("component", "tui"),
		form:     newPatientForm(),
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  spinner.New(spinner.WithSpinner(styles.TypingSpinner), spinner.WithStyle(theme.Indicator)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
		help:     help.New(),
		keys:     DefaultKeyMap(),
	}
	if opts.SkipForm {
		m.phase = PhaseChat
		m.input.Focus()
	}
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model. Without the patient form the session is
// reset right away to fetch the greeting.
func (m Model) Init() tea.Cmd {
	if m.phase == PhaseChat {
		if err := m.ctrl.BeginReset(); err == nil {
			return tea.Batch(textinput.Blink, resetCmd(m.ctrl), m.startSpinner())
		}
	}
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case ExchangeDoneMsg:
		return m.handleExchangeDone(msg)

	case ResetDoneMsg:
		return m.handleResetDone(msg)

	case ReportReadyMsg:
		return m.handleReportReady()

	case reportTickMsg:
		if m.ctrl.Indicator() == session.IndicatorReport {
			return m, reportTickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Indicator() == session.IndicatorNone {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DownloadDoneMsg:
		return m.handleDownloadDone(msg)

	case CopyDoneMsg:
		if msg.Err != nil {
			m.logger.Warn("clipboard copy failed", "error", msg.Err)
			return m, m.setStatus("Clipboard is not available.", true)
		}
		return m, m.setStatus("Report link copied to clipboard.", false)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	default:
		var cmd tea.Cmd
		if m.phase == PhaseForm {
			cmd = m.form.update(msg)
		} else {
			m.input, cmd = m.input.Update(msg)
		}
		return m, cmd
	}
}

// View renders the current screen.
func (m Model) View() string {
	if m.phase == PhaseForm {
		return m.renderForm()
	}
	return m.renderChat()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Phase returns the screen currently shown.
func (m Model) Phase() Phase { return m.phase }

// Controller returns the session controller.
func (m Model) Controller() *session.Controller { return m.ctrl }

// Status returns the current status toast, if any.
func (m Model) Status() string { return m.status }

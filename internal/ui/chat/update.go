// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/geneaccess-tui/internal/session"
	"github.com/jeranaias/geneaccess-tui/internal/ui/styles"
)

// BusyText is shown when a message is sent while a reply is pending.
const BusyText = "Please wait for Dr. GeneAccess to reply."

// =============================================================================
// WINDOW RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.help.Width = msg.Width
	m.layout()
	return m, nil
}

// layout sizes the viewport to the space left by the fixed chrome.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	chrome := lipgloss.Height(m.renderHeader()) +
		1 + // indicator line
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderFooter())

	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chrome, 3)
	m.input.Width = max(m.width-8, 10)

	barWidth := m.width - 20
	if barWidth > 60 {
		barWidth = 60
	}
	m.progress.Width = max(barWidth, 10)

	m.drawnRevision = 0
	m.updateViewport()
}

// =============================================================================
// KEYBOARD
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	}

	if m.phase == PhaseForm {
		return m.handleFormKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField):
		return m, m.form.move(1)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.move(-1)

	case key.Matches(msg, m.keys.Submit):
		if !m.form.onLastField() {
			return m, m.form.move(1)
		}
		info, ok := m.form.submit(time.Now())
		if !ok {
			return m, nil
		}
		if err := m.ctrl.BeginReset(); err != nil {
			return m, m.setStatus(BusyText, true)
		}
		m.phase = PhaseChat
		m.logger.Info("patient form submitted")
		m.layout()
		return m, tea.Batch(m.input.Focus(), intakeCmd(m.ctrl, info), m.startSpinner())
	}

	return m, m.form.update(msg)
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.send()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		if err := m.ctrl.BeginReset(); err != nil {
			return m, m.setStatus(BusyText, true)
		}
		m.syncKeys()
		m.updateViewport()
		return m, tea.Batch(resetCmd(m.ctrl), m.startSpinner())

	case key.Matches(msg, m.keys.SaveReport):
		link := m.reportLink()
		if link == "" {
			return m, nil
		}
		return m, tea.Batch(m.setStatus("Saving report...", false), downloadCmd(m.backend, link, m.cfg.ReportDir()))

	case key.Matches(msg, m.keys.CopyLink):
		link := m.reportLink()
		if link == "" {
			return m, nil
		}
		if resolved, err := m.backend.ResolveURL(link); err == nil {
			link = resolved
		}
		return m, copyCmd(link)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send hands the input to the controller and dispatches the exchange.
func (m Model) send() (tea.Model, tea.Cmd) {
	ex, err := m.ctrl.Begin(m.input.Value())
	if err != nil {
		var rej *session.Rejection
		if !errors.As(err, &rej) {
			return m, nil
		}
		switch rej.Reason {
		case session.ReasonBusy:
			return m, m.setStatus(BusyText, true)
		case session.ReasonRestrictedCommand:
			m.input.Reset()
			m.updateViewport()
		}
		return m, nil
	}

	m.input.Reset()
	m.updateViewport()
	return m, tea.Batch(dispatchCmd(m.ctrl, ex), m.startSpinner())
}

// =============================================================================
// BACKEND RESULTS
// =============================================================================

func (m Model) handleExchangeDone(msg ExchangeDoneMsg) (tea.Model, tea.Cmd) {
	eff := m.ctrl.Complete(msg.Outcome)
	m.updateViewport()

	var cmds []tea.Cmd
	if eff.Continue != nil {
		cmds = append(cmds, dispatchCmd(m.ctrl, eff.Continue), m.startSpinner())
	}
	if eff.ShowReport {
		m.reportStart = time.Now()
		m.reportDelay = eff.ReportDelay
		cmds = append(cmds, reportDelayCmd(eff.ReportDelay), reportTickCmd(), m.startSpinner())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleReportReady() (tea.Model, tea.Cmd) {
	// Only the pending loader is finished; a duplicate tick is ignored.
	if m.ctrl.Indicator() != session.IndicatorReport {
		return m, nil
	}
	m.ctrl.FinishReport()
	m.syncKeys()
	m.updateViewport()
	return m, nil
}

func (m Model) handleResetDone(msg ResetDoneMsg) (tea.Model, tea.Cmd) {
	m.ctrl.CompleteReset(msg.Outcome)
	m.syncKeys()
	m.updateViewport()
	return m, nil
}

func (m Model) handleDownloadDone(msg DownloadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("report download failed", "error", msg.Err)
		return m, m.setStatus("Could not save the report.", true)
	}
	m.logger.Info("report saved", "path", msg.Path, "bytes", msg.Bytes)
	return m, m.setStatus("Report saved to "+msg.Path+" ("+FormatBytes(msg.Bytes)+")", false)
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil || msg.Config == nil {
		m.logger.Warn("config reload failed", "error", msg.Err)
		return m, m.setStatus("Configuration reload failed; keeping current settings.", true)
	}

	m.cfg = msg.Config
	opts := session.OptionsFromConfig(msg.Config)
	opts.Logger = m.logger
	m.ctrl.Configure(opts)
	m.drawnRevision = 0
	m.updateViewport()
	m.logger.Info("configuration reloaded")
	return m, m.setStatus("Configuration reloaded.", false)
}

// =============================================================================
// HELPERS
// =============================================================================

// startSpinner picks the spinner for the current indicator and starts it.
func (m *Model) startSpinner() tea.Cmd {
	switch m.ctrl.Indicator() {
	case session.IndicatorNone:
		return nil
	case session.IndicatorAnalyzing:
		m.spinner.Spinner = styles.AnalyzingSpinner
	case session.IndicatorReport:
		m.spinner.Spinner = styles.ReportSpinner
	default:
		m.spinner.Spinner = styles.TypingSpinner
	}
	return m.spinner.Tick
}

// setStatus shows a toast that clears itself after statusTTL.
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = text
	m.statusErr = isErr
	return statusClearCmd(m.statusSeq)
}

// reportLink returns the current report's download URL, if any.
func (m *Model) reportLink() string {
	if r := m.ctrl.Report(); r != nil && m.ctrl.Indicator() != session.IndicatorReport {
		return r.DownloadURL
	}
	return ""
}

// syncKeys enables the report bindings once a report link is shown.
func (m *Model) syncKeys() {
	has := m.reportLink() != ""
	m.keys.SaveReport.SetEnabled(has)
	m.keys.CopyLink.SetEnabled(has)
}

// updateViewport re-renders the log when it changed and follows the tail.
func (m *Model) updateViewport() {
	rev := m.ctrl.Log().Revision()
	if rev == m.drawnRevision && m.drawnRevision != 0 {
		return
	}
	m.drawnRevision = rev
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

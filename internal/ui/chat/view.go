// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/geneaccess-tui/internal/model"
	"github.com/jeranaias/geneaccess-tui/internal/render"
	"github.com/jeranaias/geneaccess-tui/internal/session"
	"github.com/jeranaias/geneaccess-tui/internal/ui/styles"
)

// =============================================================================
// SCREENS
// =============================================================================

func (m Model) renderForm() string {
	body := lipgloss.NewStyle().Padding(1, 2).Render(m.form.view(m.theme))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderChat() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderIndicator(),
		m.renderInput(),
		m.renderFooter(),
	)
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("GeneAccess AI")
	if m.theme.GetLayoutMode() != styles.LayoutNarrow {
		title += "  " + m.theme.HeaderSubtitle.Render("Genetic risk intake with Dr. GeneAccess")
	}
	return m.theme.Header.Width(max(m.width-2, 0)).Render(title)
}

// renderIndicator renders the single line between the log and the input.
func (m Model) renderIndicator() string {
	switch m.ctrl.Indicator() {
	case session.IndicatorTyping:
		return m.theme.Indicator.Render("Dr. GeneAccess is typing " + m.spinner.View())
	case session.IndicatorAnalyzing:
		return m.theme.Indicator.Render(m.spinner.View() + " Analyzing your answers...")
	case session.IndicatorReport:
		return m.theme.Indicator.Render(m.spinner.View() + " Preparing your report " + m.progress.ViewAs(m.reportProgress()))
	default:
		return ""
	}
}

// reportProgress is the loader's fill, 0 to 1, over the report delay.
func (m Model) reportProgress() float64 {
	if m.reportDelay <= 0 {
		return 1
	}
	p := float64(time.Since(m.reportStart)) / float64(m.reportDelay)
	if p > 1 {
		return 1
	}
	return p
}

func (m Model) renderInput() string {
	style := m.theme.InputBox
	if m.ctrl.State().Processing {
		style = m.theme.InputBoxBusy
	}
	return style.Width(max(m.width-4, 10)).Render(m.input.View())
}

func (m Model) renderFooter() string {
	if m.status != "" {
		style := m.theme.Toast
		text := styles.StatusIndicators.Success + " " + m.status
		if m.statusErr {
			style = m.theme.Toast.Foreground(styles.Rose)
			text = styles.StatusIndicators.Warning + " " + m.status
		}
		return style.Render(text)
	}

	keys := m.keys
	if m.phase == PhaseForm {
		keys = keys.formKeys()
	}
	return m.theme.StatusBar.Render(m.help.View(keys))
}

// =============================================================================
// MESSAGE LOG
// =============================================================================

func (m Model) renderMessages() string {
	msgs := m.ctrl.Log().Messages()
	if len(msgs) == 0 {
		return m.theme.Timestamp.Render("  Connecting to Dr. GeneAccess...")
	}

	width := m.viewport.Width
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, m.renderMessage(msg, width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	nameStyle := m.theme.BotName
	if msg.IsUser() {
		nameStyle = m.theme.UserName
	}
	head := nameStyle.Render(msg.Role.DisplayName())
	if m.cfg.UI.ShowTimestamps {
		head += " " + m.theme.Timestamp.Render(formatTimestamp(msg.Timestamp))
	}

	bodyWidth := max(width-6, 10)
	var body string
	switch msg.Kind {
	case model.KindOptions:
		body = m.theme.BotText.Render(render.Wrap(render.Sanitize(msg.Content), bodyWidth)) + "\n" +
			m.theme.Option.Render(render.Wrap(render.Options(msg.Options), bodyWidth-2)) + "\n" +
			m.theme.Indicator.Render("Reply with the numbers that apply, separated by commas.")

	case model.KindNotice:
		body = m.theme.Notice.Render(render.Wrap(styles.StatusIndicators.Info+" "+msg.Content, bodyWidth))

	case model.KindWarning:
		body = m.theme.Warning.Render(render.Wrap(styles.StatusIndicators.Warning+" "+msg.Content, bodyWidth))

	case model.KindError:
		body = m.theme.Error.Render(render.Wrap(styles.StatusIndicators.Error+" "+msg.Content, bodyWidth))

	case model.KindReport:
		link := msg.Link
		if resolved, err := m.backend.ResolveURL(link); err == nil {
			link = resolved
		}
		body = m.theme.Report.Render(
			render.Wrap(msg.Content, bodyWidth) + "\n" +
				m.theme.Link.Render(link) + "\n" +
				m.theme.Timestamp.Render("C-s save  C-y copy link"))

	default:
		if msg.IsUser() {
			body = m.theme.UserText.Render(render.Wrap(msg.Content, bodyWidth))
		} else {
			body = m.theme.BotText.Render(render.Wrap(render.Sanitize(msg.Content), bodyWidth))
		}
	}
	return head + "\n" + body
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stepper

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/geneaccess-tui/internal/render"
	"github.com/jeranaias/geneaccess-tui/internal/ui/styles"
)

// View renders the questionnaire.
func (m Model) View() string {
	var body string
	switch {
	case m.result != nil:
		body = m.renderResult()
	case m.failure != "":
		body = m.theme.Error.Render(styles.StatusIndicators.Error+" "+m.failure) + "\n\n" +
			m.theme.StepCounter.Render("Press C-r to start over.")
	default:
		body = m.renderStep()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.NewStyle().Padding(1, 2).Render(body),
		m.theme.StatusBar.Render(m.help.View(m.keys)),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("GeneAccess AI")
	if m.theme.GetLayoutMode() != styles.LayoutNarrow {
		title += "  " + m.theme.HeaderSubtitle.Render("Genetic risk questionnaire")
	}
	return m.theme.Header.Width(max(m.width-2, 0)).Render(title)
}

func (m Model) renderStep() string {
	var b strings.Builder

	n := m.steps.Len() - 1
	counter := fmt.Sprintf("Question %d of %d", m.steps.Index()+1, n)
	if m.steps.AtUploadStep() {
		counter = fmt.Sprintf("All %d questions answered", n)
	}
	b.WriteString(m.theme.StepCounter.Render(counter))
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(m.steps.Progress()))
	b.WriteString("\n\n")

	wrap := max(m.width-8, 20)
	b.WriteString(m.theme.FormTitle.Render(render.Wrap(m.steps.Current(), wrap)))
	b.WriteString("\n")

	box := m.theme.InputBox
	if m.submitting {
		box = m.theme.InputBoxBusy
	}
	b.WriteString(box.Width(max(m.width-8, 20)).Render(m.input.View()))
	b.WriteString("\n")

	switch {
	case m.submitting:
		b.WriteString(m.theme.Indicator.Render(m.spinner.View() + " Analyzing your answers..."))
	case m.inline != "":
		b.WriteString(m.theme.FormError.Render(styles.StatusIndicators.Warning + " " + m.inline))
	}
	b.WriteString("\n\n")

	style := m.theme.Button
	if m.steps.AtUploadStep() {
		style = m.theme.ButtonActive
	}
	b.WriteString(style.Render(m.steps.ActionLabel()))
	return b.String()
}

func (m Model) renderResult() string {
	var b strings.Builder
	b.WriteString(m.theme.FormTitle.Render(styles.StatusIndicators.Success + " Analysis complete"))
	b.WriteString("\n")
	b.WriteString(m.theme.BotName.Render("Prediction: "))
	b.WriteString(render.Sanitize(m.result.Prediction))

	if m.details != "" {
		b.WriteString("\n\n")
		b.WriteString(m.details)
	}
	if u := m.reportURL(); u != "" {
		b.WriteString("\n\n")
		b.WriteString("Report: " + m.theme.Link.Render(u))
	}
	return m.theme.Result.Render(b.String()) + "\n\n" +
		m.theme.StepCounter.Render("Press C-r to answer again or C-c to quit.")
}

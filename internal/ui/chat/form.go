// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/ui/styles"
	"github.com/jeranaias/geneaccess-tui/internal/util"
)

// =============================================================================
// PATIENT FORM
// =============================================================================

// Field order of the patient form.
const (
	fieldName = iota
	fieldSex
	fieldAge
	fieldDOB
	fieldCount
)

var fieldKeys = [fieldCount]string{"name", "sex", "age", "dob"}
var fieldLabels = [fieldCount]string{"Full name", "Sex", "Age", "Date of birth"}

// patientForm collects the identity sent before the chat starts.
type patientForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	errs   geneaccess.FieldErrors
	other  string
}

func newPatientForm() patientForm {
	var f patientForm
	placeholders := [fieldCount]string{"Jane Doe", "male / female / ambiguous / other", "34", geneaccess.DateLayout}
	limits := [fieldCount]int{120, 16, 3, 10}

	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Width = 36
		f.inputs[i] = ti
	}
	f.inputs[fieldName].Focus()
	return f
}

// move shifts focus by delta, wrapping around.
func (f *patientForm) move(delta int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

// onLastField reports whether Enter should submit.
func (f *patientForm) onLastField() bool {
	return f.focus == fieldCount-1
}

// submit validates the form. On failure the errors are kept for display
// and focus moves to the first invalid field.
func (f *patientForm) submit(now time.Time) (geneaccess.PatientInfo, bool) {
	info, err := geneaccess.ParsePatientInfo(
		f.inputs[fieldName].Value(),
		f.inputs[fieldSex].Value(),
		f.inputs[fieldAge].Value(),
		f.inputs[fieldDOB].Value(),
		now,
	)
	f.errs = nil
	f.other = ""
	if err == nil {
		return info, true
	}

	var fe geneaccess.FieldErrors
	if !errors.As(err, &fe) {
		f.other = err.Error()
		return info, false
	}
	f.errs = fe
	for i, k := range fieldKeys {
		if fe.For(k) != "" {
			f.inputs[f.focus].Blur()
			f.focus = i
			f.inputs[i].Focus()
			break
		}
	}
	return info, false
}

// update forwards a message to the focused input.
func (f *patientForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *patientForm) view(theme *styles.Theme) string {
	var b strings.Builder
	b.WriteString(theme.FormTitle.Render("Before we begin, tell us about the patient"))
	b.WriteString("\n")

	for i := range f.inputs {
		label := util.PadRight(fieldLabels[i], 14)
		if i == f.focus {
			b.WriteString(theme.FormFocused.Render("> " + label))
		} else {
			b.WriteString(theme.FormLabel.Render("  " + label))
		}
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
		if msg := f.errs.For(fieldKeys[i]); msg != "" {
			b.WriteString(theme.FormError.Render(styles.StatusIndicators.Error + " " + msg))
			b.WriteString("\n")
		}
	}
	if f.other != "" {
		b.WriteString(theme.FormError.Render(f.other))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	label := "Next"
	style := theme.Button
	if f.onLastField() {
		label = "Start intake"
		style = theme.ButtonActive
	}
	b.WriteString(style.Render(label))
	return b.String()
}

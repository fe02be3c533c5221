// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the intake screens.
type KeyMap struct {
	Submit     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Reset      key.Binding
	SaveReport key.Binding
	CopyLink   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings. Printable keys are left
// to the text input, so every binding uses a modifier or a special key.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-Tab", "previous field"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "new session"),
		),
		SaveReport: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save report"),
			key.WithDisabled(),
		),
		CopyLink: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy report link"),
			key.WithDisabled(),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.SaveReport, k.Reset, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NextField, k.PrevField},
		{k.PageUp, k.PageDown},
		{k.Reset, k.SaveReport, k.CopyLink},
		{k.Help, k.Quit},
	}
}

// formKeys returns the bindings that apply while the patient form is shown.
func (k KeyMap) formKeys() KeyMap {
	f := k
	f.Submit.SetHelp("Enter", "next / start")
	f.PageUp.SetEnabled(false)
	f.PageDown.SetEnabled(false)
	f.Reset.SetEnabled(false)
	f.SaveReport.SetEnabled(false)
	f.CopyLink.SetEnabled(false)
	return f
}

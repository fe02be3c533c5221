// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the intake chat screen of the GeneAccess terminal client.

The package implements the conversation with Dr. GeneAccess using the Bubble
Tea framework. All session rules live in the session package; this package
only renders the message log and schedules the network work.

# Key Components

## Model (model.go)

The Model struct is the Bubble Tea model. It owns the session controller,
the patient form, the message viewport, the text input and the indicator
spinner.

## Patient Form (form.go)

Name, sex, age and date of birth are collected before the chat starts.
Submitting the form resets the backend session and then records the
patient info.

## Update Loop (update.go)

Keyboard input and backend results. Network calls run as tea.Cmd closures
that return ExchangeDoneMsg or ResetDoneMsg; the controller is only ever
touched from Update.

## View Rendering (view.go)

Header, message log with per-kind styling, typing and analysis indicators,
the report loader with its progress bar, and the status/help bar.

# Key Bindings

  - Enter: Send message (next field / start intake on the form)
  - Tab, Shift+Tab: Move between form fields
  - PgUp, PgDn: Scroll the log
  - Ctrl+R: Start a new session
  - Ctrl+S: Save the report (once shown)
  - Ctrl+Y: Copy the report link
  - F1: Toggle help
  - Ctrl+C: Quit

# Usage

	m := chat.New(client, chat.Options{Config: cfg})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat

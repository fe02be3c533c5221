// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserName  lipgloss.Style
	BotName   lipgloss.Style
	UserText  lipgloss.Style
	BotText   lipgloss.Style
	Notice    lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Report    lipgloss.Style
	Option    lipgloss.Style
	Timestamp lipgloss.Style
	Link      lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputBox     lipgloss.Style
	InputBoxBusy lipgloss.Style
	Indicator    lipgloss.Style
	StatusBar    lipgloss.Style
	Toast        lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// FORMS AND STEPPER
	// ==========================================================================

	FormTitle    lipgloss.Style
	FormLabel    lipgloss.Style
	FormFocused  lipgloss.Style
	FormError    lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style
	StepCounter  lipgloss.Style
	Result       lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Teal).
		Padding(0, 2)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Teal)
	t.HeaderSubtitle = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.UserName = lipgloss.NewStyle().Bold(true).Foreground(Indigo)
	t.BotName = lipgloss.NewStyle().Bold(true).Foreground(Teal)
	t.UserText = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.BotText = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.Notice = lipgloss.NewStyle().Foreground(Sky).Italic(true).PaddingLeft(2)
	t.Warning = lipgloss.NewStyle().Foreground(Amber).PaddingLeft(2)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true).PaddingLeft(2)
	t.Report = lipgloss.NewStyle().
		Foreground(Emerald).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Emerald).
		PaddingLeft(1).
		MarginLeft(2)
	t.Option = lipgloss.NewStyle().Foreground(Indigo).PaddingLeft(4)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	// Underline keeps links distinct without color
	t.Link = lipgloss.NewStyle().Foreground(Sky).Underline(true)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Teal).
		Padding(0, 1)
	t.InputBoxBusy = t.InputBox.BorderForeground(Overlay)
	t.Indicator = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true).PaddingLeft(2)
	t.StatusBar = lipgloss.NewStyle().Foreground(TextMuted).Padding(0, 1)
	t.Toast = lipgloss.NewStyle().Foreground(Emerald).Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	t.FormTitle = lipgloss.NewStyle().Bold(true).Foreground(Teal).MarginBottom(1)
	t.FormLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.FormFocused = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	t.FormError = lipgloss.NewStyle().Foreground(Rose).PaddingLeft(2)
	t.Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 2)
	t.ButtonActive = t.Button.Foreground(Teal).BorderForeground(Teal).Bold(true)
	t.StepCounter = lipgloss.NewStyle().Foreground(TextMuted)
	t.Result = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Emerald).
		Padding(1, 2)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

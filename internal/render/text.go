// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Wrap word-wraps s to width columns and hard-wraps words that are still
// too long. A width below 1 returns s unchanged.
func Wrap(s string, width int) string {
	if width < 1 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

// Markdown renders analysis details, which the backend writes as
// lightweight markdown.
type Markdown struct {
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer for the given width. style is a glamour
// standard style name ("dark", "light", "notty") or "auto".
func NewMarkdown(width int, style string) (*Markdown, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &Markdown{renderer: r}, nil
}

// Render sanitizes and renders s. If rendering fails the sanitized text
// is returned as is.
func (m *Markdown) Render(s string) string {
	clean := Sanitize(s)
	if m == nil || m.renderer == nil {
		return clean
	}
	out, err := m.renderer.Render(clean)
	if err != nil {
		return clean
	}
	return strings.Trim(out, "\n")
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}
	if got := theme.Error.Render("x"); got == "" {
		t.Error("Error style rendered nothing")
	}
}

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme()

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: got %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestSpinnersHaveFrames(t *testing.T) {
	for name, s := range map[string]int{
		"typing":    len(TypingSpinner.Frames),
		"analyzing": len(AnalyzingSpinner.Frames),
		"report":    len(ReportSpinner.Frames),
	} {
		if s == 0 {
			t.Errorf("%s spinner has no frames", name)
		}
	}
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for _, s := range []string{StatusIndicators.Success, StatusIndicators.Error, StatusIndicators.Warning, StatusIndicators.Info} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", s)
			}
		}
	}
}

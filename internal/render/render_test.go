// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "How old are you?", "How old are you?"},
		{"break tags", "line one<br>line two<BR/>line three", "line one\nline two\nline three"},
		{"script removed", "hi<script>alert(1)</script>", "hi"},
		{"link keeps text", "<a href='/api/chat/report/r.pdf' style='color:#fff'>Download PDF Report</a>", "Download PDF Report"},
		{"entities decoded", "Tom &amp; Jerry&#39;s", "Tom & Jerry's"},
		{"escape sequences dropped", "red\x1b[31mtext\x07", "red[31mtext"},
		{"indentation collapsed", "  <span>\n      spaced    out\n  </span>  ", "spaced out"},
		{"blank runs collapsed", "a<br><br><br><br>b", "a\n\nb"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitize_FinalResult(t *testing.T) {
	in := "Your comprehensive genetic risk assessment report has been generated.<br>" +
		"Predicted Genetic Disorder Category: Mitochondrial (Confidence: 81.20%)<br>" +
		"<span>\n<a href='/api/chat/report/chatbot_report_1.pdf' target='_blank'>Download PDF Report</a>\n</span>"

	got := Sanitize(in)
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "href")
	assert.Contains(t, got, "Confidence: 81.20%")
	assert.True(t, strings.HasPrefix(got, "Your comprehensive genetic risk assessment report has been generated.\n"))
	assert.True(t, strings.HasSuffix(got, "\nDownload PDF Report"))
}

func TestOptions(t *testing.T) {
	got := Options([]string{"Cough", "<b>Wheezing</b>"})
	assert.Equal(t, "1. Cough\n2. Wheezing", got)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "unchanged", Wrap("unchanged", 0))

	got := Wrap("the quick brown fox", 10)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 10, "line %q too long", line)
	}

	got = Wrap("abcdefghijklmnop", 5)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 5)
	}
}

func TestMarkdown_RenderSanitizes(t *testing.T) {
	md, err := NewMarkdown(60, "notty")
	require.NoError(t, err)

	out := md.Render("**Low risk**<br><script>x</script>No markers found.")
	assert.Contains(t, out, "Low risk")
	assert.Contains(t, out, "No markers found.")
	assert.NotContains(t, out, "script")
}

func TestMarkdown_NilFallsBack(t *testing.T) {
	var md *Markdown
	assert.Equal(t, "a\nb", md.Render("a<br>b"))
}

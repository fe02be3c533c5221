// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns backend-provided content into safe terminal text.
//
// Bot replies may carry HTML (line breaks, styled download links) and,
// since they come from the network, anything else. Nothing reaches the
// terminal without passing through Sanitize.
package render

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	breakTag   = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockClose = regexp.MustCompile(`(?i)</(p|div|li|h[1-6]|tr)\s*>`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)

	// StrictPolicy strips every element and keeps only text.
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize strips markup and terminal control sequences from s.
// Line breaks and block ends become newlines, entities are decoded and
// blank runs collapse to one empty line.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	s = breakTag.ReplaceAllString(s, "\n")
	s = blockClose.ReplaceAllString(s, "\n")
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	s = stripControl(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// stripControl drops C0/C1 control characters (ESC among them) except
// newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return -1
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			return -1
		default:
			return r
		}
	}, s)
}

// Options renders selection choices as a numbered list, one per line.
func Options(options []string) string {
	var b strings.Builder
	for i, opt := range options {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(Sanitize(opt))
	}
	return b.String()
}

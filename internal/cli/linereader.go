// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// linereader.go - Prompted line input for the line-mode commands.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// ErrAborted is returned by a LineReader when the user pressed Ctrl+C at
// the prompt.
var ErrAborted = errors.New("input aborted")

// LineReader reads one line per prompt. Prompt returns io.EOF when input
// ends and ErrAborted on Ctrl+C.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// =============================================================================
// LINER (interactive terminals)
// =============================================================================

// linerReader adds line editing and in-session history. History is not
// written to disk: intake answers are health information.
type linerReader struct {
	line *liner.State
}

// NewLinerReader opens a liner prompt on the controlling terminal.
func NewLinerReader() LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &linerReader{line: line}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", ErrAborted
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *linerReader) Close() error {
	return r.line.Close()
}

// =============================================================================
// SCANNER (pipes and tests)
// =============================================================================

type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScanReader reads lines from in and echoes prompts to out.
func NewScanReader(in io.Reader, out io.Writer) LineReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	return &scanReader{scanner: s, out: out}
}

func (r *scanReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(r.scanner.Text(), "\r"), nil
}

func (r *scanReader) Close() error { return nil }

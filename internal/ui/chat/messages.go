// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/session"
	"github.com/jeranaias/geneaccess-tui/internal/util"
)

// =============================================================================
// EXCHANGE MESSAGES
// =============================================================================

// ExchangeDoneMsg carries the result of one POST /api/chat.
type ExchangeDoneMsg struct {
	Outcome session.Outcome
}

// ResetDoneMsg carries the result of a session reset, with or without
// the patient form.
type ResetDoneMsg struct {
	Outcome session.ResetOutcome
}

// ReportReadyMsg fires when the cosmetic report delay has elapsed.
type ReportReadyMsg struct{}

// reportTickMsg advances the report loader's progress bar.
type reportTickMsg struct{}

// =============================================================================
// REPORT MESSAGES
// =============================================================================

// DownloadDoneMsg reports a finished report download.
type DownloadDoneMsg struct {
	Path  string
	Bytes int64
	Err   error
}

// CopyDoneMsg reports a clipboard copy.
type CopyDoneMsg struct {
	Err error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a configuration re-read from disk. Config is
// nil when the reload failed.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// statusClearMsg hides a status toast unless a newer one replaced it.
type statusClearMsg struct {
	seq int
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// reportTickInterval paces the report loader animation.
const reportTickInterval = 100 * time.Millisecond

// statusTTL is how long a status toast stays up.
const statusTTL = 4 * time.Second

// dispatchCmd runs the network half of an exchange off the UI goroutine.
func dispatchCmd(ctrl *session.Controller, ex *session.Exchange) tea.Cmd {
	return func() tea.Msg {
		return ExchangeDoneMsg{Outcome: ctrl.Dispatch(context.Background(), ex)}
	}
}

// resetCmd starts a new backend session.
func resetCmd(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return ResetDoneMsg{Outcome: ctrl.DispatchReset(context.Background())}
	}
}

// intakeCmd starts a new backend session and records the patient form.
func intakeCmd(ctrl *session.Controller, info geneaccess.PatientInfo) tea.Cmd {
	return func() tea.Msg {
		return ResetDoneMsg{Outcome: ctrl.DispatchIntake(context.Background(), info)}
	}
}

// reportDelayCmd fires ReportReadyMsg after d.
func reportDelayCmd(d time.Duration) tea.Cmd {
	if d <= 0 {
		return func() tea.Msg { return ReportReadyMsg{} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return ReportReadyMsg{} })
}

func reportTickCmd() tea.Cmd {
	return tea.Tick(reportTickInterval, func(time.Time) tea.Msg { return reportTickMsg{} })
}

func statusClearCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

// ReportDownloader fetches report files.
type ReportDownloader interface {
	DownloadReport(ctx context.Context, downloadURL string, w io.Writer) (int64, error)
}

// SaveReport downloads the report at link into dir under the name the
// link carries. A failed download leaves no partial file behind.
func SaveReport(ctx context.Context, dl ReportDownloader, link, dir string) (string, int64, error) {
	name, err := geneaccess.ReportFilenameFromURL(link)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(dir, name)

	var n int64
	err = util.AtomicWrite(path, 0600, func(w io.Writer) error {
		var derr error
		n, derr = dl.DownloadReport(ctx, link, w)
		return derr
	})
	if err != nil {
		return "", 0, err
	}
	return path, n, nil
}

func downloadCmd(dl ReportDownloader, link, dir string) tea.Cmd {
	return func() tea.Msg {
		path, n, err := SaveReport(context.Background(), dl, link, dir)
		return DownloadDoneMsg{Path: path, Bytes: n, Err: err}
	}
}

// copyCmd copies text to the system clipboard.
func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopyDoneMsg{Err: copyToClipboard(text)}
	}
}

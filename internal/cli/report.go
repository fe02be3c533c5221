// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// report.go - Report lookup and download.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/ui/chat"
)

// runReport prints the latest report link, saves the file, or deletes a
// stored report.
//
//	geneaccess report [--download] [--output DIR]
//	geneaccess report --delete [FILENAME]
func (a *App) runReport(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "download", "delete")
	if unknown := p.Unknown("download", "delete", "output", "o"); len(unknown) > 0 {
		return &ValidationError{Field: "flag", Value: unknown[0], Reason: "unknown flag for report", Example: "geneaccess report --download --output ./reports"}
	}
	if p.BoolFlag("delete") {
		return a.deleteReport(ctx, p.Positional(0))
	}

	info, err := a.Client.GetReport(ctx)
	if err != nil {
		return reportError("report", err)
	}
	if info.DownloadURL == "" {
		return NewCommandError("report", "lookup", "the backend returned no download link", nil)
	}

	dir := p.FlagOrDefault("output", p.Flag("o"))
	if !p.BoolFlag("download") && dir == "" {
		link, err := a.Client.ResolveURL(info.DownloadURL)
		if err != nil {
			return NewCommandError("report", "lookup", "invalid download link", err)
		}
		if a.Quiet {
			fmt.Fprintln(a.Out, link)
			return nil
		}
		fmt.Fprintln(a.Out, RenderLabel("Report")+ValueStyle.Render(info.Filename))
		fmt.Fprintln(a.Out, RenderLabel("Download")+LinkStyle.Render(link))
		return nil
	}

	if dir == "" {
		dir = a.Config.ReportDir()
	}
	path, n, err := chat.SaveReport(ctx, a.Client, info.DownloadURL, dir)
	if err != nil {
		return NewCommandError("report", "download", "could not save the report", err)
	}
	if a.Quiet {
		fmt.Fprintln(a.Out, path)
		return nil
	}
	fmt.Fprintf(a.Out, "%s Report saved to %s (%s)\n", SuccessStyle.Render("[OK]"), path, chat.FormatBytes(n))
	return nil
}

// deleteReport removes filename, or the latest report when it is empty.
func (a *App) deleteReport(ctx context.Context, filename string) error {
	if filename == "" {
		info, err := a.Client.GetReport(ctx)
		if err != nil {
			return reportError("report", err)
		}
		filename = info.Filename
		if filename == "" {
			name, err := geneaccess.ReportFilenameFromURL(info.DownloadURL)
			if err != nil {
				return NewCommandError("report", "delete", "the backend returned no report name", err)
			}
			filename = name
		}
	}
	if !geneaccess.ValidReportFilename(filename) {
		return &ValidationError{Field: "filename", Value: filename, Reason: "not a report file name", Example: "geneaccess report --delete report_42.pdf"}
	}

	if err := a.Client.DeleteReport(ctx, filename); err != nil {
		if errors.Is(err, geneaccess.ErrReportNotFound) {
			return NewCommandError("report", "delete", "no report named "+filename, err)
		}
		return err
	}
	if a.Quiet {
		return nil
	}
	fmt.Fprintf(a.Out, "%s Deleted %s\n", SuccessStyle.Render("[OK]"), filename)
	return nil
}

// reportError turns the report lookup sentinels into user-facing errors.
// The sentinel stays wrapped so the exit code follows its type.
func reportError(command string, err error) error {
	switch {
	case errors.Is(err, geneaccess.ErrAnalysisIncomplete):
		return NewCommandError(command, "report", "finish the intake chat first", err)
	case errors.Is(err, geneaccess.ErrReportNotFound):
		return NewCommandError(command, "report", "no report has been generated yet", err)
	default:
		return err
	}
}

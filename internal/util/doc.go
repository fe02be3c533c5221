// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the CLI and the TUIs.
//
// # Key Functions
//
// File Operations:
//   - AtomicWrite: Crash-safe streaming write with fsync and rename
//
// String Utilities:
//   - PadRight: Column-aware padding for form labels
//
// # Usage
//
//	// Save a downloaded report without leaving a partial file behind
//	err := util.AtomicWrite(path, 0600, func(w io.Writer) error {
//	    _, err := client.DownloadReport(ctx, url, w)
//	    return err
//	})
package util

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "github.com/mattn/go-runewidth"

// PadRight pads s with spaces to width columns. Wide (CJK) characters
// count as 2. Longer strings are returned unchanged.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

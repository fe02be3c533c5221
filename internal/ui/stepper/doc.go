// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stepper is the terminal UI of the linear questionnaire: one
// question per screen with a progress bar, an optional DNA file at the last
// step, and the analysis result rendered as markdown.
package stepper

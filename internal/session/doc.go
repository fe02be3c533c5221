// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives a chat intake conversation with the backend.
//
// A Controller owns the message log and the session state. Each user
// message is one exchange in three steps so that a Bubble Tea program can
// run the network call as a command:
//
//	ex, err := ctrl.Begin(text)      // Update: guards, user turn, indicator
//	out := ctrl.Dispatch(ctx, ex)    // tea.Cmd: one POST /api/chat
//	eff := ctrl.Complete(out)        // Update: bot turn, state, effects
//
// Line-mode callers use Send, which runs the same steps in order.
//
// # Guards
//
//   - Only one exchange is in flight at a time. A second send is refused
//     and nothing is queued.
//   - Results-style commands are refused until the backend reports that
//     analysis is complete.
//   - The answer to the last intake question is followed by a thank-you
//     notice and the analyzing indicator.
package session

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the intake conversation.
//
// # Key Types
//
//   - Message: one chat turn with a role, a display kind and content
//   - MessageLog: the append-only transcript of a session
//   - Role: who sent a message (user or bot)
//   - Kind: how a message is styled (text, notice, warning, error, options, report)
//
// # Usage
//
//	log := model.NewMessageLog()
//	log.Append("How old are you?", model.RoleBot)
//	log.Append("34", model.RoleUser)
//	last, _ := log.LastBot()
package model

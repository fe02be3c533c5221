// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package questionnaire implements the linear, one-question-at-a-time
// intake that ends with an optional DNA file upload.
//
// It is independent of the chat session: answers are held locally and
// sent to the backend in a single multipart batch by Submit.
package questionnaire

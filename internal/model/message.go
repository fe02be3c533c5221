// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the intake conversation.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleBot:
		return "Dr. GeneAccess"
	default:
		return string(r)
	}
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind tells the view how to style a message. It never changes what the
// message means to the backend.
type Kind string

const (
	KindText    Kind = "text"
	KindNotice  Kind = "notice"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
	KindOptions Kind = "options"
	KindReport  Kind = "report"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat turn. Messages are values: once appended to a
// MessageLog they are never modified, and the log hands out copies.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Options holds the numbered choices of a selection prompt.
	Options []string `json:"options,omitempty"`

	// Link is the download URL carried by a report message.
	Link string `json:"link,omitempty"`
}

// NewMessage creates a text message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        generateID(),
		Role:      role,
		Kind:      KindText,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewBotMessage creates a new bot message.
func NewBotMessage(content string) Message {
	return NewMessage(RoleBot, content)
}

// WithKind returns a copy of the message with the given kind.
func (m Message) WithKind(kind Kind) Message {
	m.Kind = kind
	return m
}

// WithOptions returns a copy of the message carrying the given options.
func (m Message) WithOptions(options []string) Message {
	m.Options = append([]string(nil), options...)
	if len(m.Options) > 0 {
		m.Kind = KindOptions
	}
	return m
}

// WithLink returns a copy of the message carrying a download link.
func (m Message) WithLink(link string) Message {
	m.Link = link
	return m
}

// IsUser reports whether the user sent the message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsBot reports whether the backend (or the client on its behalf) sent the message.
func (m Message) IsBot() bool {
	return m.Role == RoleBot
}

// clone returns a copy that shares no slices with m.
func (m Message) clone() Message {
	if m.Options != nil {
		m.Options = append([]string(nil), m.Options...)
	}
	return m
}

func generateID() string {
	return "msg_" + uuid.NewString()
}

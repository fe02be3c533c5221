// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MESSAGE LOG
// =============================================================================

// MessageLog is the append-only, ordered transcript of one intake session.
//
// Every change bumps Revision. Views compare the revision they last drew
// against the current one and scroll to the bottom when it moved.
//
// A MessageLog is not safe for concurrent use; it is owned by the UI
// goroutine.
type MessageLog struct {
	messages []Message
	revision uint64
}

// NewMessageLog creates an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{messages: make([]Message, 0, 32)}
}

// Append creates a message from content and role and adds it to the end
// of the log. The stored copy is returned.
func (l *MessageLog) Append(content string, role Role) Message {
	return l.AppendMessage(NewMessage(role, content))
}

// AppendMessage adds a prepared message to the end of the log.
func (l *MessageLog) AppendMessage(msg Message) Message {
	if msg.ID == "" {
		msg.ID = generateID()
	}
	if msg.Kind == "" {
		msg.Kind = KindText
	}
	msg = msg.clone()
	l.messages = append(l.messages, msg)
	l.revision++
	return msg.clone()
}

// Clear removes all messages.
func (l *MessageLog) Clear() {
	l.messages = l.messages[:0]
	l.revision++
}

// Messages returns a copy of the transcript in order.
func (l *MessageLog) Messages() []Message {
	out := make([]Message, len(l.messages))
	for i, m := range l.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages.
func (l *MessageLog) Len() int {
	return len(l.messages)
}

// IsEmpty reports whether the log has no messages.
func (l *MessageLog) IsEmpty() bool {
	return len(l.messages) == 0
}

// Last returns the most recent message.
func (l *MessageLog) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1].clone(), true
}

// LastBot returns the most recent message sent by the bot.
func (l *MessageLog) LastBot() (Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Role == RoleBot {
			return l.messages[i].clone(), true
		}
	}
	return Message{}, false
}

// LastWhere returns the most recent message for which match returns true.
func (l *MessageLog) LastWhere(match func(Message) bool) (Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if match(l.messages[i]) {
			return l.messages[i].clone(), true
		}
	}
	return Message{}, false
}

// Revision changes every time the log is modified.
func (l *MessageLog) Revision() uint64 {
	return l.revision
}

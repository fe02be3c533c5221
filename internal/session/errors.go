// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "errors"

// Reason says why a send was refused before reaching the backend.
type Reason int

const (
	// ReasonEmptyInput means the text was blank after trimming.
	ReasonEmptyInput Reason = iota

	// ReasonBusy means an exchange is already in flight. Nothing is queued.
	ReasonBusy

	// ReasonRestrictedCommand means a results-style command was typed
	// before analysis completed.
	ReasonRestrictedCommand
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonEmptyInput:
		return "empty input"
	case ReasonBusy:
		return "busy"
	case ReasonRestrictedCommand:
		return "restricted command"
	default:
		return "unknown"
	}
}

// Rejection is returned by Begin when a send is refused locally.
type Rejection struct {
	Reason Reason
	Input  string
}

func (r *Rejection) Error() string {
	return "send rejected: " + r.Reason.String()
}

// Is matches any *Rejection with the same Reason.
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return t.Reason == r.Reason
}

// Sentinels for errors.Is.
var (
	ErrEmptyInput        = &Rejection{Reason: ReasonEmptyInput}
	ErrBusy              = &Rejection{Reason: ReasonBusy}
	ErrRestrictedCommand = &Rejection{Reason: ReasonRestrictedCommand}
)

// IsRejection reports whether err is a local send rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

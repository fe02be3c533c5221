// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package geneaccess

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeNotAuthenticated
	ErrTypeBadRequest
	ErrTypeNotFound
	ErrTypeServer
	ErrTypeInvalidResponse
	ErrTypeUnsuccessful
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeNotAuthenticated:
		return "not_authenticated"
	case ErrTypeBadRequest:
		return "bad_request"
	case ErrTypeNotFound:
		return "not_found"
	case ErrTypeServer:
		return "server"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeUnsuccessful:
		return "unsuccessful"
	default:
		return "unknown"
	}
}

// ClientError is the transport error returned by every Client operation.
// It covers network failures, error statuses, undecodable bodies and
// payloads that report success=false.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type, so errors.Is works
// against the sentinels below.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinel errors for easy checking.
var (
	ErrNotAuthenticated   = &ClientError{Type: ErrTypeNotAuthenticated, Message: "not authenticated"}
	ErrTimeout            = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrAnalysisIncomplete = &ClientError{Type: ErrTypeBadRequest, Message: "analysis not complete"}
	ErrReportNotFound     = &ClientError{Type: ErrTypeNotFound, Message: "report not found"}
)

// ErrInvalidReportFilename is returned before any request is made when a
// report URL does not name a file the backend would serve.
var ErrInvalidReportFilename = errors.New("invalid report filename")

// IsTransportError reports whether err came from the backend round trip.
func IsTransportError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package geneaccess

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// =============================================================================
// CHAT TYPES
// =============================================================================

// ReplyKind identifies the shape of a chat reply.
type ReplyKind string

const (
	// ReplyText is a plain prompt.
	ReplyText ReplyKind = "text"

	// ReplySymptomSelection carries numbered options. The user answers
	// with comma-separated 1-based indices.
	ReplySymptomSelection ReplyKind = "symptom_selection"

	// ReplyWaitAndPredict asks the client to send one more message so the
	// backend can run its prediction.
	ReplyWaitAndPredict ReplyKind = "wait_and_predict"

	// ReplyFinalResult carries the prediction text.
	ReplyFinalResult ReplyKind = "final_result"
)

// Reply is the "response" field of a chat or reset response. On the wire
// it is either a bare string or an object {type, message, options}.
type Reply struct {
	Kind    ReplyKind `json:"type"`
	Message string    `json:"message"`
	Options []string  `json:"options,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (r *Reply) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Reply{Kind: ReplyText}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Reply{Kind: ReplyText, Message: s}
		return nil
	}

	type rawReply Reply
	var raw rawReply
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if raw.Kind == "" {
		raw.Kind = ReplyText
	}
	*r = Reply(raw)
	return nil
}

// HasOptions reports whether the reply asks the user to choose.
func (r Reply) HasOptions() bool {
	return len(r.Options) > 0
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResult is the response of POST /api/chat.
type ChatResult struct {
	Success          bool        `json:"success"`
	Response         Reply       `json:"response"`
	AnalysisComplete bool        `json:"analysis_complete"`
	ReportInfo       *ReportInfo `json:"report_info"`

	// IsFinalQuestion is set by backends that announce the last intake
	// question explicitly. Older backends omit it.
	IsFinalQuestion bool `json:"is_final_question,omitempty"`
}

// ResetResult is the response of POST /api/chat/reset.
type ResetResult struct {
	Success  bool  `json:"success"`
	Response Reply `json:"response"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// ReportInfo describes a generated report. It is transient: it is used to
// render the download affordance and to fetch the file.
type ReportInfo struct {
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// reportResponse is the body of GET /api/chat/report.
type reportResponse struct {
	Success bool `json:"success"`
	ReportInfo
}

// reportPrefixes are the filename prefixes the backend will serve.
var reportPrefixes = []string{"report_", "chatbot_report_", "geneaccess_report_"}

// ValidReportFilename reports whether name is a bare filename the backend
// serves from its report directory.
func ValidReportFilename(name string) bool {
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	if name == "." || name == ".." {
		return false
	}
	for _, p := range reportPrefixes {
		if strings.HasPrefix(name, p) && len(name) > len(p) {
			return true
		}
	}
	return false
}

// ReportFilenameFromURL extracts and validates the file name at the end of
// a report download URL.
func ReportFilenameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidReportFilename, err)
	}
	name := path.Base(u.Path)
	if !ValidReportFilename(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReportFilename, name)
	}
	return name, nil
}

// =============================================================================
// PATIENT TYPES
// =============================================================================

// PatientInfo is the identity collected by the intake form.
type PatientInfo struct {
	Name string `json:"patient_name"`
	Sex  string `json:"sex"`
	Age  int    `json:"age"`
	DOB  string `json:"dob"`
}

// =============================================================================
// QUESTIONNAIRE TYPES
// =============================================================================

// Attachment is an opaque file sent with a questionnaire batch.
type Attachment struct {
	Filename string
	Data     []byte
}

// AnalysisResult is the response of POST /analyze.
type AnalysisResult struct {
	Success    bool   `json:"success"`
	Prediction string `json:"prediction"`
	Details    string `json:"details"`
	ReportURL  string `json:"report_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AnswerField returns the multipart field name of the i-th (0-based) answer.
func AnswerField(i int) string {
	return "answer" + strconv.Itoa(i+1)
}

// apiError is the error body returned with non-2xx statuses.
type apiError struct {
	Error   string `json:"error"`
	Success *bool  `json:"success,omitempty"`
}

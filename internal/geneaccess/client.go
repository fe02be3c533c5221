// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package geneaccess provides the HTTP client for the GeneAccess intake backend.
package geneaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/jeranaias/geneaccess-tui/internal/observability"
)

const (
	// DefaultBaseURL is where the backend listens in development.
	DefaultBaseURL = "http://127.0.0.1:5000"

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "geneaccess-tui"

	// MaxResponseSize caps JSON response bodies.
	MaxResponseSize = 1 << 20

	// MaxReportSize caps report downloads.
	MaxReportSize = 50 << 20
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend root (default: http://127.0.0.1:5000).
	BaseURL string

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Logger receives request traces. Defaults to the process logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the intake backend. The backend keys all chat state on
// a session cookie, so the client keeps a cookie jar for its lifetime.
//
// Each call is a single request/response round trip. Nothing is retried.
//
// Example:
//
//	client, err := geneaccess.NewClientWithConfig(cfg)
//	if err != nil {
//	    return err
//	}
//	if err := client.Login(ctx, email, password); err != nil {
//	    return err
//	}
//	res, err := client.SendChatMessage(ctx, "34")
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client with the default configuration.
func NewClient() (*Client, error) {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	u, err := url.Parse(config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", config.BaseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = observability.Logger()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
		logger: logger.With("component", "geneaccess"),
	}, nil
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// ResolveURL turns a server-relative link into an absolute URL.
func (c *Client) ResolveURL(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", ref, err)
	}
	if r.IsAbs() {
		return r.String(), nil
	}
	base, err := url.Parse(c.config.BaseURL + "/")
	if err != nil {
		return "", err
	}
	return base.ResolveReference(r).String(), nil
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// Login posts the credentials form. On success the session cookie is kept
// in the client's jar and used by every later call.
//
// The backend answers both outcomes with a redirect: back to the login
// page on failure, to the home page on success.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("login_email", email)
	form.Set("login_password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, body, err := c.roundTrip(&noRedirect, req)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc, _ := resp.Location()
		if loc != nil && strings.HasSuffix(strings.TrimRight(loc.Path, "/"), "/login") {
			return &ClientError{Type: ErrTypeNotAuthenticated, Message: "invalid credentials", StatusCode: resp.StatusCode}
		}
		return nil
	case resp.StatusCode == http.StatusOK:
		return nil
	default:
		return statusError(resp.StatusCode, body)
	}
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// SendChatMessage posts one user turn and returns the backend's reply.
func (c *Client) SendChatMessage(ctx context.Context, text string) (*ChatResult, error) {
	var result ChatResult
	if err := c.postJSON(ctx, "/api/chat", ChatRequest{Message: text}, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &ClientError{Type: ErrTypeUnsuccessful, Message: "chat request was not successful"}
	}
	return &result, nil
}

// ResetSession starts a new chat on the backend and returns its greeting.
func (c *Client) ResetSession(ctx context.Context) (*ResetResult, error) {
	var result ResetResult
	if err := c.postJSON(ctx, "/api/chat/reset", nil, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &ClientError{Type: ErrTypeUnsuccessful, Message: "reset was not successful"}
	}
	return &result, nil
}

// SubmitPatientInfo sends the intake form. Callers treat it as
// fire-and-forget; the error exists so it can be logged.
func (c *Client) SubmitPatientInfo(ctx context.Context, info PatientInfo) error {
	return c.postJSON(ctx, "/api/chat/patient_info", info, nil)
}

// =============================================================================
// QUESTIONNAIRE
// =============================================================================

// SubmitQuestionnaire posts every answer plus the optional attachment as
// one multipart batch. The batch succeeds or fails as a whole.
func (c *Client) SubmitQuestionnaire(ctx context.Context, answers []string, file *Attachment) (*AnalysisResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for i, answer := range answers {
		if err := mw.WriteField(AnswerField(i), answer); err != nil {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to encode answers", Cause: err}
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile("dna_file", file.Filename)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to encode attachment", Cause: err}
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to encode attachment", Cause: err}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/analyze", &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result AnalysisResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		msg := "analysis was not successful"
		if result.Error != "" {
			msg = result.Error
		}
		return nil, &ClientError{Type: ErrTypeUnsuccessful, Message: msg}
	}
	return &result, nil
}

// =============================================================================
// REPORTS
// =============================================================================

// GetReport fetches metadata for the report of the current chat.
// It returns ErrAnalysisIncomplete before the intake has finished and
// ErrReportNotFound when no report was generated.
func (c *Client) GetReport(ctx context.Context) (*ReportInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/chat/report", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	var result reportResponse
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &ClientError{Type: ErrTypeUnsuccessful, Message: "report lookup was not successful"}
	}
	info := result.ReportInfo
	return &info, nil
}

// DownloadReport streams the report at downloadURL into w and returns the
// number of bytes written. The URL may be server-relative.
func (c *Client) DownloadReport(ctx context.Context, downloadURL string, w io.Writer) (int64, error) {
	if _, err := ReportFilenameFromURL(downloadURL); err != nil {
		return 0, err
	}
	target, err := c.ResolveURL(downloadURL)
	if err != nil {
		return 0, &ClientError{Type: ErrTypeConnection, Message: "invalid report URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	log := c.requestLogger(req, c.prepare(req))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("report download failed", "error", err)
		return 0, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readResponse(resp.Body, MaxResponseSize)
		log.Warn("report download rejected", "status", resp.StatusCode)
		return 0, statusError(resp.StatusCode, body)
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, MaxReportSize+1))
	if err != nil {
		return n, &ClientError{Type: ErrTypeConnection, Message: "failed to read report", Cause: err}
	}
	if n > MaxReportSize {
		return n, &ClientError{Type: ErrTypeInvalidResponse, Message: fmt.Sprintf("report exceeded maximum size of %d bytes", MaxReportSize)}
	}

	log.Debug("report downloaded", "bytes", n, "duration", time.Since(start))
	return n, nil
}

// DeleteReport removes a stored report of the signed-in user. A report the
// backend does not know matches ErrReportNotFound.
func (c *Client) DeleteReport(ctx context.Context, filename string) error {
	if !ValidReportFilename(filename) {
		return fmt.Errorf("%w: %q", ErrInvalidReportFilename, filename)
	}
	target := c.config.BaseURL + "/api/report/delete/" + url.PathEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := c.doJSON(req, &result); err != nil {
		return err
	}
	if !result.Success {
		return &ClientError{Type: ErrTypeUnsuccessful, Message: "report delete was not successful"}
	}
	c.logger.Info("report deleted", "filename", filename)
	return nil
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

// postJSON marshals body (nil sends no body) and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doJSON(req, out)
}

// doJSON sends req, maps error statuses and decodes a 200 body into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, body, err := c.roundTrip(c.httpClient, req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// roundTrip sends req with hc and returns the response with its body read
// and closed.
func (c *Client) roundTrip(hc *http.Client, req *http.Request) (*http.Response, []byte, error) {
	log := c.requestLogger(req, c.prepare(req))

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		log.Warn("backend request failed", "error", err, "duration", time.Since(start))
		return nil, nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp.Body, MaxResponseSize)
	if err != nil {
		log.Warn("backend response unreadable", "status", resp.StatusCode, "error", err)
		return nil, nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", StatusCode: resp.StatusCode, Cause: err}
	}

	log.Debug("backend request", "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))
	return resp, body, nil
}

// prepare stamps the common headers and returns the request ID.
func (c *Client) prepare(req *http.Request) string {
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return reqID
}

// requestLogger tags the client logger with the request's ID and route.
func (c *Client) requestLogger(req *http.Request, reqID string) *slog.Logger {
	ctx := observability.WithRequestID(req.Context(), reqID)
	return observability.LoggerFromContext(ctx, c.logger).
		With("method", req.Method, "path", req.URL.Path)
}

// readResponse reads at most limit bytes and fails if the body is larger.
func readResponse(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", limit)
	}
	return body, nil
}

// transportError classifies a failure of http.Client.Do.
func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "backend unreachable", Cause: err}
}

// statusError maps a non-2xx response to a ClientError, preferring the
// backend's own {"error": "..."} message.
func statusError(status int, body []byte) error {
	msg := "request failed: " + http.StatusText(status)
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	t := ErrTypeUnknown
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		t = ErrTypeNotAuthenticated
	case status == http.StatusNotFound:
		t = ErrTypeNotFound
	case status == http.StatusBadRequest:
		t = ErrTypeBadRequest
	case status >= 500:
		t = ErrTypeServer
	}
	return &ClientError{Type: t, Message: msg, StatusCode: status}
}

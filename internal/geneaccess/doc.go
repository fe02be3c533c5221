// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package geneaccess provides the HTTP client for the GeneAccess intake backend.
//
// The backend is a session-cookie web application. Every chat endpoint
// requires a logged-in session, so a Client owns a cookie jar and Login
// must succeed before the chat calls do.
//
// # Endpoints
//
//   - POST /login                    form login, sets the session cookie
//   - POST /api/chat                 one user turn, returns the next prompt
//   - POST /api/chat/reset           start over, returns the greeting
//   - POST /api/chat/patient_info    intake form fields
//   - GET  /api/chat/report          metadata of the generated report
//   - GET  /api/chat/report/<file>   the report itself
//   - POST /analyze                  questionnaire batch (multipart)
//
// # Errors
//
// Every failure is a *ClientError. Use errors.Is with the sentinels
// (ErrNotAuthenticated, ErrTimeout, ErrAnalysisIncomplete,
// ErrReportNotFound) or inspect ClientError.Type.
package geneaccess

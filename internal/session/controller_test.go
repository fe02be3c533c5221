// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/model"
	"github.com/jeranaias/geneaccess-tui/internal/observability"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type scripted struct {
	res *geneaccess.ChatResult
	err error
}

type fakeBackend struct {
	replies []scripted
	calls   []string
	sent    []string

	resetResult *geneaccess.ResetResult
	resetErr    error

	patients   []geneaccess.PatientInfo
	patientErr error
}

func (f *fakeBackend) SendChatMessage(_ context.Context, text string) (*geneaccess.ChatResult, error) {
	f.calls = append(f.calls, "chat")
	f.sent = append(f.sent, text)
	if len(f.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.res, r.err
}

func (f *fakeBackend) ResetSession(context.Context) (*geneaccess.ResetResult, error) {
	f.calls = append(f.calls, "reset")
	if f.resetErr != nil {
		return nil, f.resetErr
	}
	if f.resetResult != nil {
		return f.resetResult, nil
	}
	return &geneaccess.ResetResult{
		Success:  true,
		Response: geneaccess.Reply{Kind: geneaccess.ReplyText, Message: "Welcome. What's your full name?"},
	}, nil
}

func (f *fakeBackend) SubmitPatientInfo(_ context.Context, info geneaccess.PatientInfo) error {
	f.calls = append(f.calls, "patient_info")
	f.patients = append(f.patients, info)
	return f.patientErr
}

func textReply(msg string) scripted {
	return scripted{res: &geneaccess.ChatResult{
		Success:  true,
		Response: geneaccess.Reply{Kind: geneaccess.ReplyText, Message: msg},
	}}
}

func newTestController(t *testing.T, backend Backend) *Controller {
	t.Helper()
	opts := OptionsFromConfig(config.Default())
	opts.ReportDelay = 0
	opts.Logger = observability.Discard()
	return New(backend, nil, opts)
}

func contents(log *model.MessageLog) []string {
	var out []string
	for _, m := range log.Messages() {
		out = append(out, m.Content)
	}
	return out
}

// =============================================================================
// GUARDS
// =============================================================================

func TestBegin_RejectsBlankInput(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := newTestController(t, backend)

	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := ctrl.Begin(in)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.True(t, IsRejection(err))
	}
	assert.True(t, ctrl.Log().IsEmpty())
	assert.False(t, ctrl.State().Processing)
	assert.Empty(t, backend.calls)
}

func TestBegin_RejectsWhileProcessing(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})

	ex, err := ctrl.Begin("Jane Doe")
	require.NoError(t, err)
	require.NotNil(t, ex)
	assert.True(t, ctrl.State().Processing)
	assert.Equal(t, IndicatorTyping, ctrl.Indicator())

	before := ctrl.Log().Len()
	_, err = ctrl.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, ctrl.Log().Len(), "busy send must not touch the log")
}

func TestBegin_TrimsUserText(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})

	ex, err := ctrl.Begin("  34  ")
	require.NoError(t, err)
	assert.Equal(t, "34", ex.Text)

	last, ok := ctrl.Log().Last()
	require.True(t, ok)
	assert.Equal(t, model.RoleUser, last.Role)
	assert.Equal(t, "34", last.Content)
}

func TestBegin_RestrictedCommandBeforeAnalysis(t *testing.T) {
	tests := []string{"results", "  RESULTS ", "Report", "download report", "Get Report", "pdf"}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			backend := &fakeBackend{}
			ctrl := newTestController(t, backend)

			_, err := ctrl.Begin(in)
			require.ErrorIs(t, err, ErrRestrictedCommand)

			msgs := ctrl.Log().Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, model.RoleUser, msgs[0].Role)
			assert.Equal(t, strings.TrimSpace(in), msgs[0].Content)
			assert.Equal(t, model.KindWarning, msgs[1].Kind)
			assert.Equal(t, RestrictedWarningText, msgs[1].Content)

			assert.False(t, ctrl.State().Processing)
			assert.Equal(t, IndicatorNone, ctrl.Indicator())
			assert.Empty(t, backend.calls)
		})
	}
}

func TestBegin_RestrictedCommandIsWholeMessageOnly(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})

	_, err := ctrl.Begin("I want my results")
	assert.NoError(t, err)
}

func TestSend_RestrictedCommandAllowedAfterAnalysis(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{
		{res: &geneaccess.ChatResult{Success: true, Response: geneaccess.Reply{Kind: geneaccess.ReplyFinalResult, Message: "Low risk."}, AnalysisComplete: true}},
		textReply("Here is your summary."),
	}}
	ctrl := newTestController(t, backend)

	require.NoError(t, ctrl.Send(context.Background(), "72"))
	assert.True(t, ctrl.State().AnalysisComplete)

	require.NoError(t, ctrl.Send(context.Background(), "results"))
	assert.Equal(t, []string{"72", "results"}, backend.sent)
}

// =============================================================================
// END OF INTAKE
// =============================================================================

func TestBegin_FinalMarkerAddsThankYou(t *testing.T) {
	for _, marker := range config.DefaultFinalQuestionMarkers {
		t.Run(marker, func(t *testing.T) {
			ctrl := newTestController(t, &fakeBackend{})
			ctrl.Log().Append(marker, model.RoleBot)

			ex, err := ctrl.Begin("No")
			require.NoError(t, err)
			assert.True(t, ex.Final)
			assert.Equal(t, IndicatorAnalyzing, ctrl.Indicator())

			assert.Equal(t, []string{marker, "No", ThankYouText}, contents(ctrl.Log()))
			last, _ := ctrl.Log().Last()
			assert.Equal(t, model.KindNotice, last.Kind)
		})
	}
}

func TestBegin_FinalMarkerMatchesInsideLongerPrompt(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})
	ctrl.Log().Append("Thanks. <br>Do you know your HEART RATE? (bpm)", model.RoleBot)

	ex, err := ctrl.Begin("72")
	require.NoError(t, err)
	assert.True(t, ex.Final)
}

func TestBegin_OrdinaryPromptShowsTyping(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})
	ctrl.Log().Append("How old are you?", model.RoleBot)

	ex, err := ctrl.Begin("34")
	require.NoError(t, err)
	assert.False(t, ex.Final)
	assert.Equal(t, IndicatorTyping, ctrl.Indicator())
	assert.Equal(t, 2, ctrl.Log().Len())
}

func TestBegin_RejectedCommandDoesNotHideMarker(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})
	ctrl.Log().Append("Have you had any genetic testing before?", model.RoleBot)

	_, err := ctrl.Begin("results")
	require.ErrorIs(t, err, ErrRestrictedCommand)

	ex, err := ctrl.Begin("Yes")
	require.NoError(t, err)
	assert.True(t, ex.Final)
}

func TestComplete_FinalQuestionFlag(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{
		{res: &geneaccess.ChatResult{
			Success:         true,
			Response:        geneaccess.Reply{Kind: geneaccess.ReplyText, Message: "Any allergies?"},
			IsFinalQuestion: true,
		}},
		textReply("ok"),
	}}
	ctrl := newTestController(t, backend)

	require.NoError(t, ctrl.Send(context.Background(), "Jane"))

	ex, err := ctrl.Begin("None")
	require.NoError(t, err)
	assert.True(t, ex.Final, "backend flag marks the next answer final")
	ctrl.Complete(ctrl.Dispatch(context.Background(), ex))

	ex, err = ctrl.Begin("again")
	require.NoError(t, err)
	assert.False(t, ex.Final, "flag lasts for one answer")
}

func TestConfigure_NoMarkers(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})
	ctrl.Configure(Options{Logger: observability.Discard()})
	ctrl.Log().Append("Do you know your heart rate?", model.RoleBot)

	ex, err := ctrl.Begin("72")
	require.NoError(t, err)
	assert.False(t, ex.Final)

	// Restricted list is empty too.
	assert.False(t, ctrl.IsRestricted("results"))
}

// =============================================================================
// COMPLETION
// =============================================================================

func TestComplete_AppendsReplyAndClearsProcessing(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{textReply("What is your sex?")}}
	ctrl := newTestController(t, backend)

	ex, err := ctrl.Begin("Jane")
	require.NoError(t, err)
	eff := ctrl.Complete(ctrl.Dispatch(context.Background(), ex))

	assert.Equal(t, Effect{}, eff)
	assert.False(t, ctrl.State().Processing)
	assert.Equal(t, IndicatorNone, ctrl.Indicator())
	assert.Equal(t, []string{"Jane", "What is your sex?"}, contents(ctrl.Log()))
}

func TestComplete_SymptomOptions(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{{res: &geneaccess.ChatResult{
		Success: true,
		Response: geneaccess.Reply{
			Kind:    geneaccess.ReplySymptomSelection,
			Message: "Select symptoms",
			Options: []string{"Fever", "Cough"},
		},
	}}}}
	ctrl := newTestController(t, backend)

	require.NoError(t, ctrl.Send(context.Background(), "yes"))

	last, ok := ctrl.Log().Last()
	require.True(t, ok)
	assert.Equal(t, model.KindOptions, last.Kind)
	assert.Equal(t, []string{"Fever", "Cough"}, last.Options)
}

func TestComplete_FailureShowsGenericError(t *testing.T) {
	failures := []scripted{
		{err: &geneaccess.ClientError{Type: geneaccess.ErrTypeConnection, Message: "backend unreachable"}},
		{err: geneaccess.ErrNotAuthenticated},
		{res: nil, err: nil},
	}

	for i, f := range failures {
		backend := &fakeBackend{replies: []scripted{f}}
		ctrl := newTestController(t, backend)
		ctrl.Log().Append("Do you know your heart rate?", model.RoleBot)

		ex, err := ctrl.Begin("72")
		require.NoError(t, err)
		eff := ctrl.Complete(ctrl.Dispatch(context.Background(), ex))

		assert.Equal(t, Effect{}, eff, "case %d", i)
		assert.False(t, ctrl.State().Processing, "case %d", i)
		assert.False(t, ctrl.State().AnalysisComplete, "case %d", i)
		assert.Equal(t, IndicatorNone, ctrl.Indicator(), "case %d", i)

		last, _ := ctrl.Log().Last()
		assert.Equal(t, ErrorText, last.Content, "case %d", i)
		assert.Equal(t, model.KindError, last.Kind, "case %d", i)
	}
}

func TestComplete_AnalysisCompleteWithReport(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{{res: &geneaccess.ChatResult{
		Success:          true,
		Response:         geneaccess.Reply{Kind: geneaccess.ReplyFinalResult, Message: "Prediction: low risk"},
		AnalysisComplete: true,
		ReportInfo:       &geneaccess.ReportInfo{Filename: "chatbot_report_1.pdf", DownloadURL: "/api/chat/report/chatbot_report_1.pdf"},
	}}}}
	ctrl := newTestController(t, backend)
	ctrl.Configure(Options{ReportDelay: 1500 * time.Millisecond, RestrictedCommands: config.DefaultRestrictedCommands, Logger: observability.Discard()})

	ex, err := ctrl.Begin("72")
	require.NoError(t, err)
	eff := ctrl.Complete(ctrl.Dispatch(context.Background(), ex))

	assert.True(t, eff.ShowReport)
	assert.Equal(t, 1500*time.Millisecond, eff.ReportDelay)
	assert.Nil(t, eff.Continue)
	assert.Equal(t, IndicatorReport, ctrl.Indicator())
	assert.True(t, ctrl.State().AnalysisComplete)
	assert.True(t, ctrl.State().Processing, "the report loader holds the in-flight slot")

	report := ctrl.Report()
	require.NotNil(t, report)
	assert.Equal(t, "chatbot_report_1.pdf", report.Filename)

	msg := ctrl.FinishReport()
	assert.Equal(t, IndicatorNone, ctrl.Indicator())
	assert.False(t, ctrl.State().Processing)
	assert.Equal(t, model.KindReport, msg.Kind)
	assert.Equal(t, "/api/chat/report/chatbot_report_1.pdf", msg.Link)
	assert.Contains(t, msg.Content, "chatbot_report_1.pdf")
}

func TestBegin_RefusedDuringReportDelay(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{
		{res: &geneaccess.ChatResult{
			Success:          true,
			Response:         geneaccess.Reply{Kind: geneaccess.ReplyFinalResult, Message: "Prediction: low risk"},
			AnalysisComplete: true,
			ReportInfo:       &geneaccess.ReportInfo{Filename: "chatbot_report_2.pdf", DownloadURL: "/api/chat/report/chatbot_report_2.pdf"},
		}},
		{res: &geneaccess.ChatResult{Success: true, Response: geneaccess.Reply{Kind: geneaccess.ReplyText, Message: "Anything else?"}}},
	}}
	ctrl := newTestController(t, backend)

	ex, err := ctrl.Begin("no")
	require.NoError(t, err)
	eff := ctrl.Complete(ctrl.Dispatch(context.Background(), ex))
	require.True(t, eff.ShowReport)

	_, err = ctrl.Begin("hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, ctrl.BeginReset(), ErrBusy)
	assert.Equal(t, IndicatorReport, ctrl.Indicator(), "a refused send leaves the loader alone")

	msg := ctrl.FinishReport()
	assert.Equal(t, model.KindReport, msg.Kind)
	assert.Equal(t, "/api/chat/report/chatbot_report_2.pdf", msg.Link)

	require.NoError(t, ctrl.Send(context.Background(), "hello"))
	assert.Equal(t, []string{"no", "hello"}, backend.sent)
	last, _ := ctrl.Log().Last()
	assert.Equal(t, "Anything else?", last.Content)
}

func TestFinishReport_Fallback(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{{res: &geneaccess.ChatResult{
		Success:          true,
		Response:         geneaccess.Reply{Kind: geneaccess.ReplyFinalResult, Message: "done"},
		AnalysisComplete: true,
	}}}}
	ctrl := newTestController(t, backend)

	require.NoError(t, ctrl.Send(context.Background(), "72"))

	last, _ := ctrl.Log().Last()
	assert.Equal(t, ReportFallbackText, last.Content)
	assert.Empty(t, last.Link)
	assert.Nil(t, ctrl.Report())
}

func TestSend_AutoContinueAfterWaitReply(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{
		{res: &geneaccess.ChatResult{Success: true, Response: geneaccess.Reply{Kind: geneaccess.ReplyWaitAndPredict, Message: "Please wait..."}}},
		{res: &geneaccess.ChatResult{Success: true, Response: geneaccess.Reply{Kind: geneaccess.ReplyFinalResult, Message: "Low risk"}, AnalysisComplete: true}},
	}}
	ctrl := newTestController(t, backend)
	ctrl.Log().Append("Do you know your heart rate?", model.RoleBot)

	require.NoError(t, ctrl.Send(context.Background(), "72"))

	assert.Equal(t, []string{"72", "continue"}, backend.sent)
	assert.Equal(t, []string{
		"Do you know your heart rate?",
		"72",
		ThankYouText,
		"Please wait...",
		"Low risk",
		ReportFallbackText,
	}, contents(ctrl.Log()))
	assert.False(t, ctrl.State().Processing)
}

func TestComplete_ContinuationKeepsProcessing(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{
		{res: &geneaccess.ChatResult{Success: true, Response: geneaccess.Reply{Kind: geneaccess.ReplyWaitAndPredict, Message: "Please wait..."}}},
	}}
	ctrl := newTestController(t, backend)

	ex, err := ctrl.Begin("72")
	require.NoError(t, err)
	eff := ctrl.Complete(ctrl.Dispatch(context.Background(), ex))

	require.NotNil(t, eff.Continue)
	assert.True(t, eff.Continue.Continuation)
	assert.Equal(t, "continue", eff.Continue.Text)
	assert.True(t, ctrl.State().Processing, "continuation holds the in-flight slot")
	assert.Equal(t, IndicatorAnalyzing, ctrl.Indicator())

	_, err = ctrl.Begin("another")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestComplete_WaitReplyWithoutAutoContinue(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{
		{res: &geneaccess.ChatResult{Success: true, Response: geneaccess.Reply{Kind: geneaccess.ReplyWaitAndPredict, Message: "Please wait..."}}},
	}}
	ctrl := newTestController(t, backend)
	ctrl.Configure(Options{Logger: observability.Discard()})

	require.NoError(t, ctrl.Send(context.Background(), "72"))
	assert.Equal(t, []string{"72"}, backend.sent)
	assert.False(t, ctrl.State().Processing)
}

func TestSend_ReturnsTransportError(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{{err: geneaccess.ErrTimeout}}}
	ctrl := newTestController(t, backend)

	err := ctrl.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, geneaccess.ErrTimeout)
	assert.False(t, IsRejection(err))
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_ClearsAndShowsGreeting(t *testing.T) {
	backend := &fakeBackend{replies: []scripted{{res: &geneaccess.ChatResult{
		Success: true, Response: geneaccess.Reply{Message: "done"}, AnalysisComplete: true,
	}}}}
	ctrl := newTestController(t, backend)
	require.NoError(t, ctrl.Send(context.Background(), "72"))
	require.True(t, ctrl.State().AnalysisComplete)

	require.NoError(t, ctrl.Reset(context.Background()))

	assert.Equal(t, []string{"Welcome. What's your full name?"}, contents(ctrl.Log()))
	assert.Equal(t, State{}, ctrl.State())
	assert.Nil(t, ctrl.Report())
	assert.True(t, ctrl.IsRestricted("results"))
	_, err := ctrl.Begin("results")
	assert.ErrorIs(t, err, ErrRestrictedCommand, "gate closes again after reset")
}

func TestReset_Failure(t *testing.T) {
	backend := &fakeBackend{resetErr: geneaccess.ErrNotAuthenticated}
	ctrl := newTestController(t, backend)

	err := ctrl.Reset(context.Background())
	assert.ErrorIs(t, err, geneaccess.ErrNotAuthenticated)
	assert.Equal(t, []string{ErrorText}, contents(ctrl.Log()))
	assert.False(t, ctrl.State().Processing)
}

func TestReset_RefusedWhileProcessing(t *testing.T) {
	ctrl := newTestController(t, &fakeBackend{})
	_, err := ctrl.Begin("hi")
	require.NoError(t, err)

	assert.ErrorIs(t, ctrl.BeginReset(), ErrBusy)
	assert.Equal(t, 1, ctrl.Log().Len())
}

func TestStartIntake_ResetsBeforePatientInfo(t *testing.T) {
	backend := &fakeBackend{}
	ctrl := newTestController(t, backend)
	ctrl.Log().Append("stale", model.RoleBot)

	info := geneaccess.PatientInfo{Name: "Jane Doe", Sex: "Female", Age: 34, DOB: "1991-02-03"}
	require.NoError(t, ctrl.StartIntake(context.Background(), info))

	assert.Equal(t, []string{"reset", "patient_info"}, backend.calls)
	assert.Equal(t, []geneaccess.PatientInfo{info}, backend.patients)
	assert.Equal(t, []string{"Welcome. What's your full name?"}, contents(ctrl.Log()))
}

func TestStartIntake_PatientInfoFailureIsNotFatal(t *testing.T) {
	backend := &fakeBackend{patientErr: errors.New("boom")}
	ctrl := newTestController(t, backend)

	require.NoError(t, ctrl.StartIntake(context.Background(), geneaccess.PatientInfo{Name: "A"}))
	assert.Equal(t, 1, ctrl.Log().Len())
}

// =============================================================================
// AGAINST A FAKE SERVER
// =============================================================================

func TestSend_AgainstHTTPBackend(t *testing.T) {
	var mu sync.Mutex
	var received []string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/reset", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"response":"Welcome to GeneAccessAI. I'm Dr. GeneAccess. Let's begin. What's your full name?"}`))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, string(body))
		n := len(received)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch n {
		case 1:
			_, _ = w.Write([]byte(`{"success":true,"response":"Do you know your heart rate?"}`))
		default:
			_, _ = w.Write([]byte(`{"success":true,"response":{"type":"final_result","message":"Low risk"},"analysis_complete":true,"report_info":{"filename":"report_7.pdf","download_url":"/api/chat/report/report_7.pdf"}}`))
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := geneaccess.NewClientWithConfig(&geneaccess.ClientConfig{BaseURL: server.URL, Logger: observability.Discard()})
	require.NoError(t, err)

	ctrl := newTestController(t, client)
	ctx := context.Background()

	require.NoError(t, ctrl.Reset(ctx))
	require.NoError(t, ctrl.Send(ctx, "Jane Doe"))
	require.NoError(t, ctrl.Send(ctx, "72"))

	msgs := ctrl.Log().Messages()
	require.Len(t, msgs, 7)
	assert.Equal(t, ThankYouText, msgs[4].Content)
	assert.Equal(t, "Low risk", msgs[5].Content)
	assert.Equal(t, model.KindReport, msgs[6].Kind)
	assert.Equal(t, "/api/chat/report/report_7.pdf", msgs[6].Link)

	mu.Lock()
	defer mu.Unlock()
	assert.JSONEq(t, `{"message":"Jane Doe"}`, received[0])
	assert.JSONEq(t, `{"message":"72"}`, received[1])
}

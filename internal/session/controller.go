// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/model"
	"github.com/jeranaias/geneaccess-tui/internal/observability"
)

// =============================================================================
// FIXED TEXTS
// =============================================================================

const (
	// ThankYouText follows the answer to the last intake question.
	ThankYouText = "Thank you for answering all the questions. Please wait while we analyze your responses..."

	// RestrictedWarningText answers a results command sent too early.
	RestrictedWarningText = "Please complete the assessment before requesting results."

	// ErrorText is the only failure text the user sees.
	ErrorText = "Sorry, something went wrong. Please try again."

	// ReportReadyText heads a report message that carries a download link.
	ReportReadyText = "Your genetic risk report is ready."

	// ReportFallbackText is shown when analysis completed without report info.
	ReportFallbackText = "Your report has been generated. Please check the Reports page to download it."
)

// =============================================================================
// TYPES
// =============================================================================

// Backend is the part of the transport client the controller needs.
type Backend interface {
	SendChatMessage(ctx context.Context, text string) (*geneaccess.ChatResult, error)
	ResetSession(ctx context.Context) (*geneaccess.ResetResult, error)
	SubmitPatientInfo(ctx context.Context, info geneaccess.PatientInfo) error
}

// State is the controller's session state.
type State struct {
	// Processing is true while an exchange is in flight.
	Processing bool

	// AnalysisComplete lifts the restricted-command gate.
	AnalysisComplete bool
}

// Indicator is the transient status shown under the message log.
type Indicator int

const (
	IndicatorNone Indicator = iota
	IndicatorTyping
	IndicatorAnalyzing
	IndicatorReport
)

// String returns the indicator name.
func (i Indicator) String() string {
	switch i {
	case IndicatorTyping:
		return "typing"
	case IndicatorAnalyzing:
		return "analyzing"
	case IndicatorReport:
		return "report"
	default:
		return "none"
	}
}

// Options configures a Controller.
type Options struct {
	FinalQuestionMarkers []string
	RestrictedCommands   []string

	// ReportDelay is the cosmetic pause before FinishReport.
	ReportDelay time.Duration

	// AutoContinue answers a wait-and-predict reply with ContinueMessage.
	AutoContinue    bool
	ContinueMessage string

	Logger *slog.Logger
}

// OptionsFromConfig builds controller options from the [intake] section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FinalQuestionMarkers: cfg.Intake.FinalQuestionMarkers,
		RestrictedCommands:   cfg.Intake.RestrictedCommands,
		ReportDelay:          cfg.ReportDelay(),
		AutoContinue:         cfg.Intake.AutoContinue,
		ContinueMessage:      cfg.Intake.ContinueMessage,
	}
}

// Exchange is one user message on its way to the backend.
type Exchange struct {
	Text string

	// Final is set when Text answers the last intake question.
	Final bool

	// Continuation marks an automatic follow-up to a wait-and-predict reply.
	Continuation bool
}

// Outcome is the result of dispatching an exchange.
type Outcome struct {
	Exchange *Exchange
	Result   *geneaccess.ChatResult
	Err      error
	Elapsed  time.Duration
}

// Effect tells the caller what to schedule after Complete.
type Effect struct {
	// ShowReport asks for FinishReport after ReportDelay.
	ShowReport  bool
	ReportDelay time.Duration

	// Continue is a follow-up exchange to dispatch right away. Processing
	// stays set until it completes.
	Continue *Exchange
}

// ResetOutcome is the result of a backend session reset.
type ResetOutcome struct {
	Result *geneaccess.ResetResult
	Err    error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives one chat intake session. It is not safe for concurrent
// use; all methods except Dispatch and DispatchReset belong on the UI
// goroutine.
type Controller struct {
	backend Backend
	log     *model.MessageLog
	logger  *slog.Logger

	markers         []string
	restricted      map[string]struct{}
	reportDelay     time.Duration
	autoContinue    bool
	continueMessage string

	state        State
	indicator    Indicator
	finalFlagged bool
	report       *geneaccess.ReportInfo
}

// New creates a controller appending to log. A nil log gets a fresh one.
func New(backend Backend, log *model.MessageLog, opts Options) *Controller {
	if log == nil {
		log = model.NewMessageLog()
	}
	c := &Controller{backend: backend, log: log}
	c.Configure(opts)
	return c
}

// Configure replaces the intake options. Session state is kept, so a config
// reload can take effect mid-conversation.
func (c *Controller) Configure(opts Options) {
	c.logger = opts.Logger
	if c.logger == nil {
		c.logger = observability.Logger()
	}
	c.logger = c.logger.With("component", "session")

	c.markers = c.markers[:0]
	for _, m := range opts.FinalQuestionMarkers {
		if f := fold(m); f != "" {
			c.markers = append(c.markers, f)
		}
	}

	c.restricted = make(map[string]struct{}, len(opts.RestrictedCommands))
	for _, cmd := range opts.RestrictedCommands {
		if f := fold(cmd); f != "" {
			c.restricted[f] = struct{}{}
		}
	}

	c.reportDelay = opts.ReportDelay
	if c.reportDelay < 0 {
		c.reportDelay = 0
	}
	c.autoContinue = opts.AutoContinue && strings.TrimSpace(opts.ContinueMessage) != ""
	c.continueMessage = strings.TrimSpace(opts.ContinueMessage)
}

// Log returns the message log.
func (c *Controller) Log() *model.MessageLog { return c.log }

// State returns a copy of the session state.
func (c *Controller) State() State { return c.state }

// Indicator returns the current status indicator.
func (c *Controller) Indicator() Indicator { return c.indicator }

// Report returns the report of a completed analysis, if any.
func (c *Controller) Report() *geneaccess.ReportInfo {
	if c.report == nil {
		return nil
	}
	r := *c.report
	return &r
}

// ReportDelay returns the configured cosmetic delay.
func (c *Controller) ReportDelay() time.Duration { return c.reportDelay }

// fold normalizes s for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

// IsRestricted reports whether text is a gated results command.
func (c *Controller) IsRestricted(text string) bool {
	_, ok := c.restricted[fold(text)]
	return ok
}

// MatchesFinalMarker reports whether a bot prompt contains a final-question
// marker.
func (c *Controller) MatchesFinalMarker(prompt string) bool {
	p := fold(prompt)
	for _, m := range c.markers {
		if strings.Contains(p, m) {
			return true
		}
	}
	return false
}

// awaitingFinalAnswer reports whether the next user message answers the
// last intake question. Client-side notices and warnings are skipped so a
// rejected command does not hide the prompt.
func (c *Controller) awaitingFinalAnswer() bool {
	if c.finalFlagged {
		return true
	}
	last, ok := c.log.LastWhere(func(m model.Message) bool {
		return m.IsBot() && (m.Kind == model.KindText || m.Kind == model.KindOptions)
	})
	return ok && c.MatchesFinalMarker(last.Content)
}

// =============================================================================
// EXCHANGE LIFECYCLE
// =============================================================================

// Begin validates text and records it as a user turn. On success the
// controller is Processing and the returned exchange must be passed to
// Dispatch and then Complete. A refused send returns a *Rejection.
func (c *Controller) Begin(text string) (*Exchange, error) {
	if c.state.Processing {
		return nil, &Rejection{Reason: ReasonBusy, Input: text}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &Rejection{Reason: ReasonEmptyInput, Input: text}
	}

	if !c.state.AnalysisComplete && c.IsRestricted(trimmed) {
		c.log.Append(trimmed, model.RoleUser)
		c.log.AppendMessage(model.NewBotMessage(RestrictedWarningText).WithKind(model.KindWarning))
		c.logger.Info("restricted command before analysis", "command", trimmed)
		return nil, &Rejection{Reason: ReasonRestrictedCommand, Input: text}
	}

	ex := &Exchange{Text: trimmed, Final: c.awaitingFinalAnswer()}

	c.log.Append(trimmed, model.RoleUser)
	c.state.Processing = true
	if ex.Final {
		c.log.AppendMessage(model.NewBotMessage(ThankYouText).WithKind(model.KindNotice))
		c.indicator = IndicatorAnalyzing
		c.logger.Info("final intake answer sent")
	} else {
		c.indicator = IndicatorTyping
	}
	return ex, nil
}

// Dispatch sends the exchange to the backend. It reads no mutable
// controller state and may run on any goroutine.
func (c *Controller) Dispatch(ctx context.Context, ex *Exchange) Outcome {
	start := time.Now()
	res, err := c.backend.SendChatMessage(ctx, ex.Text)
	return Outcome{Exchange: ex, Result: res, Err: err, Elapsed: time.Since(start)}
}

// Complete applies a dispatch outcome. Processing is cleared on return
// unless a continuation is handed back or the report loader is pending; in
// that case FinishReport clears it.
func (c *Controller) Complete(out Outcome) (eff Effect) {
	defer func() {
		if eff.Continue == nil && !eff.ShowReport {
			c.state.Processing = false
		}
	}()

	c.finalFlagged = false

	if out.Err != nil || out.Result == nil {
		c.indicator = IndicatorNone
		c.log.AppendMessage(model.NewBotMessage(ErrorText).WithKind(model.KindError))
		c.logger.Warn("chat exchange failed",
			"error", out.Err,
			"final", out.Exchange != nil && out.Exchange.Final,
			"elapsed", out.Elapsed)
		return Effect{}
	}

	res := out.Result
	c.finalFlagged = res.IsFinalQuestion
	c.appendReply(res.Response)

	if res.AnalysisComplete {
		c.state.AnalysisComplete = true
		c.report = nil
		if res.ReportInfo != nil {
			r := *res.ReportInfo
			c.report = &r
		}
		c.indicator = IndicatorReport
		c.logger.Info("analysis complete", "has_report", c.report != nil, "elapsed", out.Elapsed)
		return Effect{ShowReport: true, ReportDelay: c.reportDelay}
	}

	continuation := out.Exchange != nil && out.Exchange.Continuation
	if res.Response.Kind == geneaccess.ReplyWaitAndPredict && c.autoContinue && !continuation {
		c.indicator = IndicatorAnalyzing
		c.logger.Debug("auto-continuing after wait reply")
		return Effect{Continue: &Exchange{Text: c.continueMessage, Continuation: true}}
	}

	c.indicator = IndicatorNone
	return Effect{}
}

func (c *Controller) appendReply(reply geneaccess.Reply) {
	if reply.Message == "" && !reply.HasOptions() {
		return
	}
	msg := model.NewBotMessage(reply.Message)
	if reply.HasOptions() {
		msg = msg.WithOptions(reply.Options)
	}
	c.log.AppendMessage(msg)
}

// FinishReport hides the report loader, appends the report message and
// ends the exchange.
func (c *Controller) FinishReport() model.Message {
	c.indicator = IndicatorNone
	c.state.Processing = false
	if c.report != nil && c.report.DownloadURL != "" {
		content := ReportReadyText
		if c.report.Filename != "" {
			content += " (" + c.report.Filename + ")"
		}
		return c.log.AppendMessage(model.NewBotMessage(content).
			WithKind(model.KindReport).
			WithLink(c.report.DownloadURL))
	}
	return c.log.AppendMessage(model.NewBotMessage(ReportFallbackText).WithKind(model.KindNotice))
}

// Send runs a whole exchange: Begin, Dispatch, Complete, any automatic
// continuation and the report delay. It returns a *Rejection, the
// transport error of a failed exchange, or nil.
func (c *Controller) Send(ctx context.Context, text string) error {
	ex, err := c.Begin(text)
	if err != nil {
		return err
	}
	return c.Run(ctx, ex)
}

// Run finishes an exchange returned by Begin: it dispatches it, applies the
// outcome, follows any automatic continuation and waits out the report
// delay. It returns the transport error of the last dispatch, or nil.
func (c *Controller) Run(ctx context.Context, ex *Exchange) error {
	var lastErr error
	for ex != nil {
		out := c.Dispatch(ctx, ex)
		lastErr = out.Err
		eff := c.Complete(out)
		ex = eff.Continue

		if eff.ShowReport {
			wait(ctx, eff.ReportDelay)
			c.FinishReport()
		}
	}
	return lastErr
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// =============================================================================
// RESET
// =============================================================================

// BeginReset clears the conversation and the session state. It is refused
// while an exchange is in flight, including the report loader.
func (c *Controller) BeginReset() error {
	if c.state.Processing {
		return &Rejection{Reason: ReasonBusy}
	}
	c.log.Clear()
	c.state = State{Processing: true}
	c.indicator = IndicatorTyping
	c.finalFlagged = false
	c.report = nil
	return nil
}

// DispatchReset starts a new backend session. Like Dispatch it may run on
// any goroutine.
func (c *Controller) DispatchReset(ctx context.Context) ResetOutcome {
	res, err := c.backend.ResetSession(ctx)
	return ResetOutcome{Result: res, Err: err}
}

// DispatchIntake starts a new backend session and then submits the patient
// form. The form submission is best effort: its failure is logged only.
func (c *Controller) DispatchIntake(ctx context.Context, info geneaccess.PatientInfo) ResetOutcome {
	out := c.DispatchReset(ctx)
	if out.Err != nil {
		return out
	}
	if err := c.backend.SubmitPatientInfo(ctx, info); err != nil {
		c.logger.Warn("patient info not recorded", "error", err)
	}
	return out
}

// CompleteReset appends the backend greeting, or the error text.
func (c *Controller) CompleteReset(out ResetOutcome) {
	c.state.Processing = false
	c.indicator = IndicatorNone

	if out.Err != nil || out.Result == nil {
		c.log.AppendMessage(model.NewBotMessage(ErrorText).WithKind(model.KindError))
		c.logger.Warn("session reset failed", "error", out.Err)
		return
	}
	c.finalFlagged = false
	c.appendReply(out.Result.Response)
}

// Reset clears the conversation and starts a new backend session.
func (c *Controller) Reset(ctx context.Context) error {
	if err := c.BeginReset(); err != nil {
		return err
	}
	out := c.DispatchReset(ctx)
	c.CompleteReset(out)
	return out.Err
}

// StartIntake resets the session and records the patient form.
func (c *Controller) StartIntake(ctx context.Context, info geneaccess.PatientInfo) error {
	if err := c.BeginReset(); err != nil {
		return err
	}
	out := c.DispatchIntake(ctx, info)
	c.CompleteReset(out)
	return out.Err
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stepper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
	"github.com/jeranaias/geneaccess-tui/internal/observability"
)

type fakeSubmitter struct {
	answers []string
	file    *geneaccess.Attachment
	result  *geneaccess.AnalysisResult
	err     error
}

func (f *fakeSubmitter) SubmitQuestionnaire(_ context.Context, answers []string, file *geneaccess.Attachment) (*geneaccess.AnalysisResult, error) {
	f.answers = answers
	f.file = file
	return f.result, f.err
}

func (f *fakeSubmitter) ResolveURL(ref string) (string, error) {
	return "http://127.0.0.1:5000" + ref, nil
}

func newTestModel(t *testing.T, sub *fakeSubmitter) Model {
	t.Helper()
	cfg := config.Default()
	cfg.UI.MarkdownStyle = "notty"
	m, err := New(sub, Options{Config: cfg, Logger: observability.Discard()})
	require.NoError(t, err)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func answer(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// submitResult runs the submit command and returns its SubmitDoneMsg.
func submitResult(t *testing.T, cmd tea.Cmd) SubmitDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			ch := make(chan tea.Msg, 1)
			go func() { ch <- c() }()
			select {
			case got := <-ch:
				if done, ok := got.(SubmitDoneMsg); ok {
					return done
				}
			case <-time.After(time.Second):
			}
		}
		t.Fatal("no SubmitDoneMsg in batch")
	}
	done, ok := msg.(SubmitDoneMsg)
	require.True(t, ok, "got %T", msg)
	return done
}

func answerAll(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; i < len(config.DefaultQuestions); i++ {
		m, _ = answer(t, m, "answer "+string(rune('A'+i)))
	}
	require.True(t, m.Stepper().AtUploadStep())
	return m
}

func TestStepper_WalksQuestionsAndSubmits(t *testing.T) {
	sub := &fakeSubmitter{result: &geneaccess.AnalysisResult{
		Success:    true,
		Prediction: "Low risk",
		Details:    "Family history **reviewed**.",
		ReportURL:  "/download_report/report_7.pdf",
	}}
	m := newTestModel(t, sub)

	assert.Contains(t, m.View(), "Question 1 of 4")
	assert.Contains(t, m.View(), "Next")

	m = answerAll(t, m)
	assert.Contains(t, m.View(), "Submit")

	m, cmd := answer(t, m, "")
	assert.True(t, m.submitting)
	m, _ = update(t, m, submitResult(t, cmd))

	require.NotNil(t, m.Result())
	assert.Equal(t, []string{"answer A", "answer B", "answer C", "answer D"}, sub.answers)
	assert.Nil(t, sub.file)

	view := m.View()
	assert.Contains(t, view, "Low risk")
	assert.Contains(t, view, "reviewed")
	assert.Contains(t, view, "http://127.0.0.1:5000/download_report/report_7.pdf")
}

func TestStepper_EmptyAnswerRejected(t *testing.T) {
	m := newTestModel(t, &fakeSubmitter{})

	m, _ = answer(t, m, "   ")

	assert.Equal(t, 0, m.Stepper().Index())
	assert.Contains(t, m.View(), EmptyAnswerText)

	m, _ = answer(t, m, "42")
	assert.Equal(t, 1, m.Stepper().Index())
	assert.NotContains(t, m.View(), EmptyAnswerText)
}

func TestStepper_BackRestoresAnswer(t *testing.T) {
	m := newTestModel(t, &fakeSubmitter{})
	m, _ = answer(t, m, "first")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, 0, m.Stepper().Index())
	assert.Equal(t, "first", m.input.Value())
	assert.Empty(t, m.Stepper().Answers())
}

func TestStepper_AttachesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genome.txt")
	require.NoError(t, os.WriteFile(path, []byte("rs123 AA"), 0600))

	sub := &fakeSubmitter{result: &geneaccess.AnalysisResult{Success: true, Prediction: "ok"}}
	m := answerAll(t, newTestModel(t, sub))

	m, cmd := answer(t, m, path)
	m, _ = update(t, m, submitResult(t, cmd))

	require.NotNil(t, sub.file)
	assert.Equal(t, "genome.txt", sub.file.Filename)
	assert.Equal(t, "rs123 AA", string(sub.file.Data))
	assert.NotNil(t, m.Result())
}

func TestStepper_MissingFileStaysOnUploadStep(t *testing.T) {
	m := answerAll(t, newTestModel(t, &fakeSubmitter{}))

	m, cmd := answer(t, m, filepath.Join(t.TempDir(), "missing.vcf"))

	assert.Nil(t, cmd)
	assert.False(t, m.submitting)
	assert.Contains(t, m.View(), "Could not read the file")
}

func TestStepper_FailureAndRestart(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("server error")}
	m := answerAll(t, newTestModel(t, sub))

	m, cmd := answer(t, m, "")
	m, _ = update(t, m, submitResult(t, cmd))

	assert.Nil(t, m.Result())
	assert.Contains(t, m.View(), SubmitFailureText)
	assert.NotContains(t, m.View(), "server error")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, 0, m.Stepper().Index())
	assert.Contains(t, m.View(), "Question 1 of 4")
}

func TestStepper_IgnoresKeysWhileSubmitting(t *testing.T) {
	m := answerAll(t, newTestModel(t, &fakeSubmitter{}))
	m, _ = answer(t, m, "")
	require.True(t, m.submitting)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, m.Stepper().AtUploadStep(), "restart waits for the submission")
}

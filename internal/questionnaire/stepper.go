// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/geneaccess-tui/internal/config"
	"github.com/jeranaias/geneaccess-tui/internal/geneaccess"
)

// MaxAttachmentSize caps the DNA file read from disk.
const MaxAttachmentSize = 25 << 20

var (
	// ErrEmptyAnswer is returned when an answer is blank after trimming.
	ErrEmptyAnswer = errors.New("answer is empty")

	// ErrAtUploadStep is returned by Advance on the final step, which is
	// completed by Submit instead.
	ErrAtUploadStep = errors.New("already at the upload step")

	// ErrNotAtUploadStep is returned by Submit before every question is
	// answered.
	ErrNotAtUploadStep = errors.New("questions remain unanswered")

	// ErrNoQuestions is returned by New without at least one question
	// ahead of the upload step.
	ErrNoQuestions = errors.New("questionnaire needs at least one question and an upload step")
)

// Submitter posts a finished questionnaire.
type Submitter interface {
	SubmitQuestionnaire(ctx context.Context, answers []string, file *geneaccess.Attachment) (*geneaccess.AnalysisResult, error)
}

// Stepper walks a fixed list of steps. Every step but the last takes a
// free-text answer; the last step takes an optional file and submits.
//
// The answers recorded always equal the steps completed, so len(Answers())
// == Index().
type Stepper struct {
	steps   []string
	index   int
	answers []string
}

// New creates a stepper over steps. The last step is the upload prompt.
func New(steps []string) (*Stepper, error) {
	if len(steps) < 2 {
		return nil, ErrNoQuestions
	}
	return &Stepper{
		steps:   append([]string(nil), steps...),
		answers: make([]string, 0, len(steps)-1),
	}, nil
}

// FromConfig creates a stepper over the configured questions.
func FromConfig(cfg *config.Config) (*Stepper, error) {
	return New(cfg.QuestionList())
}

// Len returns the number of steps, including the upload step.
func (s *Stepper) Len() int { return len(s.steps) }

// Index returns the 0-based current step.
func (s *Stepper) Index() int { return s.index }

// Current returns the prompt of the current step.
func (s *Stepper) Current() string { return s.steps[s.index] }

// Steps returns a copy of every prompt.
func (s *Stepper) Steps() []string { return append([]string(nil), s.steps...) }

// Answers returns a copy of the recorded answers.
func (s *Stepper) Answers() []string { return append([]string(nil), s.answers...) }

// AtUploadStep reports whether the current step is the final one.
func (s *Stepper) AtUploadStep() bool { return s.index == len(s.steps)-1 }

// ActionLabel is the label of the button that leaves the current step.
func (s *Stepper) ActionLabel() string {
	if s.AtUploadStep() {
		return "Submit"
	}
	return "Next"
}

// Progress returns the share of questions answered, 0 to 1.
func (s *Stepper) Progress() float64 {
	return float64(s.index) / float64(len(s.steps)-1)
}

// Advance records answer for the current step and moves to the next.
// State is unchanged on error.
func (s *Stepper) Advance(answer string) error {
	if s.AtUploadStep() {
		return ErrAtUploadStep
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ErrEmptyAnswer
	}
	s.answers = append(s.answers, answer)
	s.index++
	return nil
}

// Back returns to the previous step and forgets its answer. It returns the
// forgotten answer so a UI can put it back in the input.
func (s *Stepper) Back() (string, bool) {
	if s.index == 0 {
		return "", false
	}
	s.index--
	prev := s.answers[s.index]
	s.answers = s.answers[:s.index]
	return prev, true
}

// Reset returns to the first step with no answers.
func (s *Stepper) Reset() {
	s.index = 0
	s.answers = s.answers[:0]
}

// Submit posts every answer in order, plus file when non-nil, as one batch.
func (s *Stepper) Submit(ctx context.Context, sub Submitter, file *geneaccess.Attachment) (*geneaccess.AnalysisResult, error) {
	if !s.AtUploadStep() {
		return nil, ErrNotAtUploadStep
	}
	return sub.SubmitQuestionnaire(ctx, s.Answers(), file)
}

// LoadAttachment reads the file at path. A blank path means no attachment
// and returns nil, nil.
func LoadAttachment(path string) (*geneaccess.Attachment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attachment %s is a directory", path)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	if len(data) > MaxAttachmentSize {
		return nil, fmt.Errorf("attachment exceeds %d MiB", MaxAttachmentSize>>20)
	}
	return &geneaccess.Attachment{Filename: filepath.Base(path), Data: data}, nil
}

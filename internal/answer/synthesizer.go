// Package answer turns learner questions into answers via a completion client.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/healthcoach/internal/completion"
	"github.com/ashureev/healthcoach/internal/domain"
)

// SystemPrompt frames every completion request.
const SystemPrompt = "You are an expert in health and learning personalization."

const (
	DefaultMaxTokens   = 150
	DefaultTemperature = 0.7
)

// ReasonEmptyQuestion is the failure reason for blank questions.
const ReasonEmptyQuestion = "empty question"

var errEmptyAnswer = errors.New("completion returned empty text")

// Options tunes the completion request.
type Options struct {
	MaxTokens   int
	// Temperature overrides DefaultTemperature when non-nil; 0 is a valid value.
	Temperature *float64
}

// Synthesizer answers questions in the context of a learner profile.
type Synthesizer struct {
	client      completion.Client
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// NewSynthesizer creates a Synthesizer. Unset options take the defaults.
func NewSynthesizer(client completion.Client, opts Options, logger *slog.Logger) *Synthesizer {
	s := &Synthesizer{
		client:      client,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		logger:      logger,
	}
	if opts.MaxTokens > 0 {
		s.maxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		s.temperature = *opts.Temperature
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// BuildContext renders the profile summary sent ahead of the question.
func BuildContext(p domain.LearnerProfile) string {
	return fmt.Sprintf("User data: First name: %s, Slides completed: %t, Video progress: %d%%, Video watched: %t.",
		p.DisplayName(), p.SlidesCompleted, p.VideoProgress, p.VideoWatched)
}

// Synthesize asks the completion service. Failures are logged and reported
// through the result; they are never returned as errors.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, p domain.LearnerProfile) domain.AnswerResult {
	if strings.TrimSpace(question) == "" {
		return domain.AnswerFailed(ReasonEmptyQuestion)
	}

	req := completion.Request{
		SystemPrompt: SystemPrompt,
		UserPrompt:   BuildContext(p) + " " + question,
		MaxTokens:    s.maxTokens,
		Temperature:  s.temperature,
	}

	text, err := s.client.Complete(ctx, req)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errEmptyAnswer
		}
	}
	if err != nil {
		s.logger.Error("Failed to generate answer", "user_id", p.UserID, "error", err)
		return domain.AnswerFailed(err.Error())
	}

	return domain.AnswerSucceeded(text)
}

// Package coach sequences profile lookup, prompt selection, answer
// generation, translation and speech rendering for every front-end.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/healthcoach/internal/dialogue"
	"github.com/ashureev/healthcoach/internal/domain"
	"github.com/ashureev/healthcoach/internal/observe"
	"github.com/ashureev/healthcoach/internal/speech"
	"github.com/ashureev/healthcoach/internal/translate"
)

var (
	// ErrUserNotFound is returned when no profile matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuestionRequired is returned for a blank question.
	ErrQuestionRequired = errors.New("question is required")
	// ErrAudioUnavailable is returned when no audio artifact was produced.
	ErrAudioUnavailable = errors.New("audio unavailable")
)

// ProfileLookup resolves learner profiles.
type ProfileLookup interface {
	LookupByEmail(ctx context.Context, email string) (*domain.LearnerProfile, error)
	Ping(ctx context.Context) error
}

// AnswerSynthesizer produces answers. Failures are reported in the result.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, p domain.LearnerProfile) domain.AnswerResult
}

// SpeechRenderer writes answers as audio artifacts.
type SpeechRenderer interface {
	Render(ctx context.Context, text string, lang domain.Language, fileName string) (*domain.AudioArtifact, error)
}

// FetchResult is a looked-up profile with its personalized question.
type FetchResult struct {
	Profile *domain.LearnerProfile
	Prompt  string
}

// AnswerRequest is one question from a learner.
type AnswerRequest struct {
	Profile  domain.LearnerProfile
	Question string
	// Language of the audio; empty uses the service default.
	Language domain.Language
	// FileName of the audio artifact inside the audio directory.
	FileName string
	// Translate the answer into Language before rendering it.
	Translate bool
}

// AnswerResponse carries the answer and, when rendered, its audio.
type AnswerResponse struct {
	Answer     domain.AnswerResult
	Translated string
	Artifact   *domain.AudioArtifact
	Language   domain.Language
}

// SpokenText returns the text that was rendered to audio.
func (r *AnswerResponse) SpokenText() string {
	if r.Translated != "" {
		return r.Translated
	}
	return r.Answer.Text
}

// Service is the coach use-case layer.
type Service struct {
	lookup      ProfileLookup
	synthesizer AnswerSynthesizer
	renderer    SpeechRenderer
	translator  translate.Translator
	metrics     *observe.Metrics
	defaultLang domain.Language
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTranslator enables translation of answers.
func WithTranslator(t translate.Translator) Option {
	return func(s *Service) { s.translator = t }
}

// WithMetrics records metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultLanguage sets the audio language used when a request has none.
func WithDefaultLanguage(lang domain.Language) Option {
	return func(s *Service) { s.defaultLang = lang }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a coach service.
func NewService(lookup ProfileLookup, synthesizer AnswerSynthesizer, renderer SpeechRenderer, opts ...Option) *Service {
	s := &Service{
		lookup:      lookup,
		synthesizer: synthesizer,
		renderer:    renderer,
		defaultLang: domain.LanguageBengali,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.Noop()
	}
	return s
}

// DefaultLanguage returns the language used when a request names none.
func (s *Service) DefaultLanguage() domain.Language {
	return s.defaultLang
}

// Ready reports whether the backing stores are reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.lookup.Ping(ctx)
}

// FetchUser looks up the profile for email and selects its prompt.
func (s *Service) FetchUser(ctx context.Context, email string) (*FetchResult, error) {
	p, err := s.lookup.LookupByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLookup(ctx, observe.StatusError)
		return nil, err
	}
	if p == nil {
		s.metrics.RecordLookup(ctx, observe.StatusNotFound)
		return nil, ErrUserNotFound
	}

	s.metrics.RecordLookup(ctx, observe.StatusOK)
	return &FetchResult{Profile: p, Prompt: dialogue.SelectPrompt(*p)}, nil
}

// Answer answers a question and renders it to audio. When rendering fails
// the response is still returned together with an error wrapping
// ErrAudioUnavailable, so callers may show the text.
func (s *Service) Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrQuestionRequired
	}
	lang := req.Language
	if lang == "" {
		lang = s.defaultLang
	}

	start := time.Now()
	result := s.synthesizer.Synthesize(ctx, req.Question, req.Profile)
	s.metrics.RecordAnswer(ctx, result.Succeeded, time.Since(start))
	if !result.Succeeded {
		s.logger.Warn("Answer fell back", "user_id", req.Profile.UserID, "reason", result.Reason)
	}

	resp := &AnswerResponse{Answer: result, Language: lang}
	if req.Translate {
		resp.Translated = s.translateAnswer(ctx, result.Text, lang)
	}

	start = time.Now()
	artifact, err := s.renderer.Render(ctx, resp.SpokenText(), lang, req.FileName)
	switch {
	case err != nil:
		s.metrics.RecordRender(ctx, observe.StatusError, string(lang), time.Since(start))
		s.logger.Error("Failed to render speech", "file", req.FileName, "language", lang, "error", err)
		return resp, fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
	case artifact == nil:
		s.metrics.RecordRender(ctx, observe.StatusError, string(lang), time.Since(start))
		return resp, ErrAudioUnavailable
	}

	s.metrics.RecordRender(ctx, observe.StatusOK, string(lang), time.Since(start))
	resp.Artifact = artifact
	return resp, nil
}

// translateAnswer translates the English answer into lang, falling back to
// the original text on failure.
func (s *Service) translateAnswer(ctx context.Context, text string, lang domain.Language) string {
	if s.translator == nil || lang == domain.LanguageEnglish {
		return ""
	}
	translated, err := s.translator.Translate(ctx, text, domain.LanguageEnglish, lang)
	if err != nil {
		s.metrics.TranslationErrors.Add(ctx, 1)
		s.logger.Warn("Translation failed, using original answer", "language", lang, "error", err)
		return ""
	}
	return translated
}

var _ SpeechRenderer = (*speech.Renderer)(nil)

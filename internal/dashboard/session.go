package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ashureev/healthcoach/internal/coach"
	"github.com/ashureev/healthcoach/internal/domain"
	"github.com/ashureev/healthcoach/internal/identity"
	"github.com/ashureev/healthcoach/internal/profile"
)

// Error texts sent to the dashboard.
const (
	errEmailRequired  = "Email is required"
	errUserNotFound   = "User not found"
	errLookupFailed   = "Failed to fetch user data"
	errNoProfile      = "No user loaded, look up an email first"
	errQuestionNeeded = "Question is required"
	errBadLanguage    = "Unsupported language"
	errAudioFailed    = "Failed to generate audio"
	errBadMessage     = "Invalid message"
	errUnknownType    = "Unknown message type"
)

// Coach is the use-case layer a session drives.
type Coach interface {
	FetchUser(ctx context.Context, email string) (*coach.FetchResult, error)
	Answer(ctx context.Context, req coach.AnswerRequest) (*coach.AnswerResponse, error)
	DefaultLanguage() domain.Language
}

// Session is the state of one dashboard connection: the last looked-up
// email and its profile.
type Session struct {
	id        string
	coach     Coach
	audioMode string
	logger    *slog.Logger

	email   string
	profile *domain.LearnerProfile
}

// NewSession creates an empty session.
func NewSession(id string, c Coach, audioMode string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{id: id, coach: c, audioMode: audioMode, logger: logger}
}

// Profile returns the cached profile, or nil before the first lookup.
func (s *Session) Profile() *domain.LearnerProfile {
	return s.profile
}

// Handle processes one message and returns the replies to send, in order.
func (s *Session) Handle(ctx context.Context, msg inbound) []any {
	switch msg.Type {
	case TypeLookup:
		return s.lookup(ctx, msg.Email)
	case TypeRefresh:
		if s.email == "" {
			return []any{errorReply(errNoProfile)}
		}
		return s.lookup(ctx, s.email)
	case TypeAsk:
		return s.ask(ctx, msg)
	case TypePing:
		return []any{pongMessage{Type: TypePong}}
	default:
		return []any{errorReply(errUnknownType)}
	}
}

func (s *Session) lookup(ctx context.Context, email string) []any {
	email = strings.TrimSpace(email)
	res, err := s.coach.FetchUser(ctx, email)
	switch {
	case errors.Is(err, profile.ErrEmailRequired):
		return []any{errorReply(errEmailRequired)}
	case errors.Is(err, coach.ErrUserNotFound):
		return []any{errorReply(errUserNotFound)}
	case err != nil:
		s.logger.Error("Dashboard lookup failed", "session_id", s.id, "error", err)
		return []any{errorReply(errLookupFailed)}
	}

	s.email = email
	s.profile = res.Profile
	return []any{profileMessage{
		Type:                 TypeProfile,
		PersonalizedQuestion: res.Prompt,
		UserData:             res.Profile,
	}}
}

func (s *Session) ask(ctx context.Context, msg inbound) []any {
	if s.profile == nil {
		return []any{errorReply(errNoProfile)}
	}
	if strings.TrimSpace(msg.Question) == "" {
		return []any{errorReply(errQuestionNeeded)}
	}

	lang := s.coach.DefaultLanguage()
	if strings.TrimSpace(msg.Language) != "" {
		parsed, err := domain.ParseLanguage(msg.Language)
		if err != nil {
			return []any{errorReply(errBadLanguage)}
		}
		lang = parsed
	}
	translate := msg.Translate == nil || *msg.Translate

	resp, err := s.coach.Answer(ctx, coach.AnswerRequest{
		Profile:   *s.profile,
		Question:  msg.Question,
		Language:  lang,
		FileName:  identity.ArtifactName(s.audioMode, s.id),
		Translate: translate,
	})
	if resp == nil {
		if errors.Is(err, coach.ErrQuestionRequired) {
			return []any{errorReply(errQuestionNeeded)}
		}
		s.logger.Error("Dashboard answer failed", "session_id", s.id, "error", err)
		return []any{errorReply(errAudioFailed)}
	}

	reply := answerMessage{
		Type:            TypeAnswer,
		GPTAnswer:       resp.Answer.Text,
		AnswerSucceeded: resp.Answer.Succeeded,
		Language:        resp.Language,
	}
	if translate {
		reply.TranslatedAnswer = resp.SpokenText()
	}
	if resp.Artifact != nil {
		reply.AudioURL = resp.Artifact.URLPath()
	}

	if err != nil {
		s.logger.Warn("Dashboard audio unavailable", "session_id", s.id, "error", err)
		return []any{reply, errorReply(errAudioFailed)}
	}
	return []any{reply}
}

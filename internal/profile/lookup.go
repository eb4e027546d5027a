// Package profile resolves learner profiles by email, merging the profile
// document with its progress record.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/healthcoach/internal/domain"
	"github.com/ashureev/healthcoach/internal/store"
)

// ErrEmailRequired is returned when the lookup email is blank.
var ErrEmailRequired = errors.New("email is required")

// matchProbe is how many records are fetched per lookup: one to use and one
// to detect duplicates.
const matchProbe = 2

// Service looks up learner profiles.
type Service struct {
	profiles store.ProfileStore
	progress store.ProgressStore
	logger   *slog.Logger
}

// NewService creates a lookup service over the given stores.
func NewService(profiles store.ProfileStore, progress store.ProgressStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{profiles: profiles, progress: progress, logger: logger}
}

// LookupByEmail returns the merged profile for email, or nil when no profile
// matches. When several profiles share the email the first one in store
// order is used.
func (s *Service) LookupByEmail(ctx context.Context, email string) (*domain.LearnerProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	records, err := s.profiles.FindProfilesByEmail(ctx, email, matchProbe)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > 1 {
		s.logger.Warn("Multiple profiles share an email, using the first",
			"email", email, "user_id", records[0].ID, "matches_at_least", len(records))
	}

	record := records[0]
	merged := make(map[string]any, len(record.Fields))
	for k, v := range record.Fields {
		merged[k] = v
	}

	progress, err := s.progress.GetProgress(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("get progress for %s: %w", record.ID, err)
	}
	for k, v := range progress {
		merged[k] = v
	}

	p := domain.ProfileFromMap(merged)
	p.UserID = record.ID
	if p.Email == "" {
		p.Email = email
	}
	return &p, nil
}

// Ping checks both backing stores.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.profiles.Ping(ctx); err != nil {
		return fmt.Errorf("profile store: %w", err)
	}
	if err := s.progress.Ping(ctx); err != nil {
		return fmt.Errorf("progress store: %w", err)
	}
	return nil
}

// Package store provides profile and progress persistence.
package store

import (
	"context"

	"github.com/ashureev/healthcoach/internal/domain"
)

// ProfileStore looks up learner profile documents.
type ProfileStore interface {
	// FindProfilesByEmail returns up to limit profile records whose email
	// equals email, in store order. A limit <= 0 means no limit.
	FindProfilesByEmail(ctx context.Context, email string, limit int) ([]*domain.ProfileRecord, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// ProgressStore fetches progress records by internal user ID.
type ProgressStore interface {
	// GetProgress returns the flat progress attributes for userID, or nil
	// when no record exists.
	GetProgress(ctx context.Context, userID string) (map[string]any, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// Repository is the writable local store used for development and seeding.
type Repository interface {
	ProfileStore
	ProgressStore

	// UpsertProfile creates or replaces a profile record.
	UpsertProfile(ctx context.Context, record *domain.ProfileRecord) error

	// UpsertProgress creates or replaces the progress record of a user.
	UpsertProgress(ctx context.Context, userID string, fields map[string]any) error
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashureev/healthcoach/internal/domain"
)

// SeedFile is the YAML layout accepted by the seed command:
//
//	users:
//	  - id: u1
//	    profile: {email: a@example.com, fname: Rina}
//	    progress: {slidesCompleted: true, videoProgress: 40}
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is one learner with its profile and optional progress.
type SeedUser struct {
	ID       string         `yaml:"id"`
	Profile  map[string]any `yaml:"profile"`
	Progress map[string]any `yaml:"progress"`
}

// ProfileWriter stores profile records.
type ProfileWriter interface {
	UpsertProfile(ctx context.Context, record *domain.ProfileRecord) error
}

// ProgressWriter stores progress records.
type ProgressWriter interface {
	UpsertProgress(ctx context.Context, userID string, fields map[string]any) error
}

// LoadSeedFile parses a seed document.
func LoadSeedFile(r io.Reader) (*SeedFile, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// Seed writes every user of f and returns how many were written.
func Seed(ctx context.Context, profiles ProfileWriter, progress ProgressWriter, f *SeedFile) (int, error) {
	for i, u := range f.Users {
		if strings.TrimSpace(u.ID) == "" {
			return i, fmt.Errorf("user %d: id is required", i+1)
		}
		email, _ := u.Profile[domain.KeyEmail].(string)
		if strings.TrimSpace(email) == "" {
			return i, fmt.Errorf("user %s: profile.email is required", u.ID)
		}

		if err := profiles.UpsertProfile(ctx, &domain.ProfileRecord{
			ID:     u.ID,
			Email:  strings.TrimSpace(email),
			Fields: u.Profile,
		}); err != nil {
			return i, fmt.Errorf("user %s: %w", u.ID, err)
		}
		if len(u.Progress) > 0 {
			if err := progress.UpsertProgress(ctx, u.ID, u.Progress); err != nil {
				return i, fmt.Errorf("user %s progress: %w", u.ID, err)
			}
		}
	}
	return len(f.Users), nil
}

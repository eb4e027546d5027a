package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ashureev/healthcoach/internal/domain"
)

// FirestoreProfileStore reads learner profiles from a Firestore collection.
type FirestoreProfileStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore opens a Firestore client. credentialsFile may be empty to use
// application default credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile, collection string) (*FirestoreProfileStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	if collection == "" {
		collection = "users"
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &FirestoreProfileStore{client: client, collection: collection}, nil
}

// FindProfilesByEmail queries the collection for documents whose email field
// equals email, in the order Firestore returns them.
func (s *FirestoreProfileStore) FindProfilesByEmail(ctx context.Context, email string, limit int) ([]*domain.ProfileRecord, error) {
	q := s.client.Collection(s.collection).Where(domain.KeyEmail, "==", email)
	if limit > 0 {
		q = q.Limit(limit)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var records []*domain.ProfileRecord
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query firestore profiles: %w", err)
		}

		records = append(records, &domain.ProfileRecord{
			ID:        doc.Ref.ID,
			Email:     email,
			Fields:    doc.Data(),
			CreatedAt: doc.CreateTime,
			UpdatedAt: doc.UpdateTime,
		})
	}

	return records, nil
}

// Ping issues a minimal read against the collection.
func (s *FirestoreProfileStore) Ping(ctx context.Context) error {
	it := s.client.Collection(s.collection).Limit(1).Documents(ctx)
	defer it.Stop()

	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// Close closes the Firestore client.
func (s *FirestoreProfileStore) Close() error {
	return s.client.Close()
}

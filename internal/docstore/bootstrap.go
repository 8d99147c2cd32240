package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/buildtrack/buildtrack/pkg/types"
)

// The credential seeded into an empty users collection.
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
	DefaultRole     = "admin"
)

// Initialize prepares a freshly opened store: it creates missing
// collections and seeds the default credential. Safe to call repeatedly.
func Initialize(ctx context.Context, s Store) error {
	if _, err := EnsureCollections(ctx, s); err != nil {
		return err
	}
	if _, err := SeedCredential(ctx, s); err != nil {
		return err
	}
	return nil
}

// EnsureCollections creates every collection in Collections that does not
// exist yet and returns the ones it created.
func EnsureCollections(ctx context.Context, s Store) ([]string, error) {
	existing, err := s.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var created []string
	for _, name := range Collections {
		if have[name] {
			continue
		}
		if err := s.CreateCollection(ctx, name); err != nil {
			return created, fmt.Errorf("create collection %s: %w", name, err)
		}
		created = append(created, name)
	}
	return created, nil
}

// SeedCredential inserts the default credential when the users collection
// is empty. It reports whether a record was written.
func SeedCredential(ctx context.Context, s Store) (bool, error) {
	n, err := s.Count(ctx, Users, nil)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	doc, err := Encode(types.Credential{
		ID:        types.NewID(),
		Username:  DefaultUsername,
		Password:  DefaultPassword,
		Role:      DefaultRole,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}
	if _, err := s.Insert(ctx, Users, doc); err != nil {
		return false, fmt.Errorf("seed credential: %w", err)
	}
	return true, nil
}

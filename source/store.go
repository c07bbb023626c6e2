package source

import (
	"context"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/storage"
)

// Store adapts a storage.EntityStore to resolve.Source, for deployments
// where the resolver runs in the same process as the database (the
// server's own widgets, the CLI's offline mode).
type Store struct {
	kind  resolve.Kind
	store *storage.EntityStore
}

// NewStore creates a Store source for one entity kind.
func NewStore(kind resolve.Kind, store *storage.EntityStore) *Store {
	return &Store{kind: kind, store: store}
}

// Search implements resolve.Source.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]resolve.Entity, error) {
	return s.store.Search(ctx, s.kind, query, limit)
}

// Lister returns a Loader over the store's full collection, for feeding
// a Local source.
func Lister(kind resolve.Kind, store *storage.EntityStore) Loader {
	return func(ctx context.Context) ([]resolve.Entity, error) {
		return store.List(ctx, kind)
	}
}

package resolve

import (
	"context"
)

// Source abstracts where candidates come from: a backend search endpoint,
// a client-cached collection, or an in-process store. The resolver is
// agnostic to which.
type Source interface {
	// Search returns entities matching the normalized query, capped at
	// limit. An empty result is not an error.
	Search(ctx context.Context, query string, limit int) ([]Entity, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, query string, limit int) ([]Entity, error)

func (f SourceFunc) Search(ctx context.Context, query string, limit int) ([]Entity, error) {
	return f(ctx, query, limit)
}

// StaticSource serves a fixed in-memory collection. The resolver scores
// the full collection itself, so Search ignores the query and returns
// everything up to limit. Used for session-local candidate lists and in
// tests.
type StaticSource struct {
	Entities []Entity
}

func (s *StaticSource) Search(_ context.Context, _ string, limit int) ([]Entity, error) {
	if limit <= 0 || limit >= len(s.Entities) {
		return s.Entities, nil
	}
	return s.Entities[:limit], nil
}

// Append adds an entity to the collection. Called from the single event
// loop that owns the resolver, so no locking is required.
func (s *StaticSource) Append(e Entity) {
	s.Entities = append(s.Entities, e)
}

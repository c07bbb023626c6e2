package source

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/odyomed/resolve"
)

const collectionKey = "collection"

// Loader fetches the full entity collection for a kind.
type Loader func(ctx context.Context) ([]resolve.Entity, error)

// Local serves the full entity collection from a TTL cache, reloading
// through its Loader on expiry. When the loader fails, the last
// successfully loaded collection is served instead: a stale candidate
// list beats an empty dropdown.
type Local struct {
	kind  resolve.Kind
	load  Loader
	cache *gocache.Cache
	log   *zap.SugaredLogger

	mu        sync.Mutex
	lastKnown []resolve.Entity
}

// NewLocal creates a Local source reloading at most every ttl.
func NewLocal(kind resolve.Kind, load Loader, ttl time.Duration, log *zap.SugaredLogger) *Local {
	return &Local{
		kind:  kind,
		load:  load,
		cache: gocache.New(ttl, 2*ttl),
		log:   log,
	}
}

// Search implements resolve.Source. The query is ignored: the resolver
// scores the full collection itself, which is what makes fuzzy fallback
// matching possible at all.
func (l *Local) Search(ctx context.Context, _ string, limit int) ([]resolve.Entity, error) {
	entities, err := l.collection(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(entities) {
		entities = entities[:limit]
	}
	return entities, nil
}

func (l *Local) collection(ctx context.Context) ([]resolve.Entity, error) {
	if cached, ok := l.cache.Get(collectionKey); ok {
		return cached.([]resolve.Entity), nil
	}

	entities, err := l.load(ctx)
	if err != nil {
		l.mu.Lock()
		stale := l.lastKnown
		l.mu.Unlock()
		if stale != nil {
			if l.log != nil {
				l.log.Warnw("collection reload failed, serving stale data",
					"kind", l.kind,
					"entities", len(stale),
					"error", err,
				)
			}
			return stale, nil
		}
		return nil, err
	}

	l.cache.Set(collectionKey, entities, gocache.DefaultExpiration)
	l.mu.Lock()
	l.lastKnown = entities
	l.mu.Unlock()

	return entities, nil
}

// Append adds a just-created entity to the cached collection so queries
// in the same session see it without waiting for the next reload.
func (l *Local) Append(e resolve.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastKnown = append(l.lastKnown, e)
	if cached, ok := l.cache.Get(collectionKey); ok {
		l.cache.Set(collectionKey, append(cached.([]resolve.Entity), e), gocache.DefaultExpiration)
	}
}

// Invalidate drops the cached collection, forcing a reload on next use.
func (l *Local) Invalidate() {
	l.cache.Delete(collectionKey)
}

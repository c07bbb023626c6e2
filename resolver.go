package resolve

import (
	"context"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/odyomed/resolve/match"
	"github.com/odyomed/resolve/synonym"
	"github.com/odyomed/resolve/textnorm"
)

// Config tunes a Resolver for one entity kind.
type Config struct {
	Kind Kind

	// AllowCreate enables the synthetic "create new" entry when no
	// near-exact match exists.
	AllowCreate bool

	// MinQueryLen is the minimum normalized query length (in runes)
	// before any source is consulted. Defaults to 2 for suppliers and
	// 1 for everything else.
	MinQueryLen int

	// NearExact is the primary-name score at or above which a candidate
	// counts as "already there" and suppresses the create entry. The
	// default 0.85 covers exact matches, tight prefixes and
	// single-character typos on typical name lengths.
	NearExact float64

	// SourceLimit caps how many entities are pulled from each source
	// per query. Defaults to 50.
	SourceLimit int

	// Matcher configures the fuzzy scorer.
	Matcher match.Config

	// Synonyms, when set, expands each entity's name into its synonym
	// search pool before scoring. Used by the category path.
	Synonyms *synonym.Index

	// Fields extracts the searchable strings for an entity. When nil,
	// the primary name (expanded through Synonyms if configured) plus
	// all metadata values are searched.
	Fields func(Entity) []string
}

func (c Config) withDefaults() Config {
	if c.MinQueryLen <= 0 {
		if c.Kind == KindSupplier {
			c.MinQueryLen = 2
		} else {
			c.MinQueryLen = 1
		}
	}
	if c.NearExact <= 0 {
		c.NearExact = 0.85
	}
	if c.SourceLimit <= 0 {
		c.SourceLimit = 50
	}
	return c
}

// Resolver orchestrates one autocomplete surface: normalize the query,
// gather candidates from the remote source with local fallback, rank them
// with the fuzzy scorer, and decide whether to offer creation.
//
// The only mutable state is the synonym index, swapped atomically when
// the synonyms file is live-reloaded; the session-local candidate list
// lives in its local Source.
type Resolver struct {
	cfg      Config
	scorer   *match.Scorer
	remote   Source
	local    Source
	fields   func(Entity) []string
	synonyms atomic.Pointer[synonym.Index]
	log      *zap.SugaredLogger
}

// New creates a Resolver. Either source may be nil: a nil remote skips
// straight to local, a nil local disables the fallback.
func New(cfg Config, remote, local Source, log *zap.SugaredLogger) *Resolver {
	cfg = cfg.withDefaults()

	r := &Resolver{
		cfg:    cfg,
		scorer: match.NewScorer(cfg.Matcher),
		remote: remote,
		local:  local,
		fields: cfg.Fields,
		log:    log,
	}
	if cfg.Synonyms != nil {
		r.synonyms.Store(cfg.Synonyms)
	}
	if r.fields == nil {
		r.fields = r.defaultFields
	}
	return r
}

// SetSynonyms swaps the synonym index used for field expansion. Safe to
// call while Resolve is running; in-flight passes keep the index they
// started with.
func (r *Resolver) SetSynonyms(ix *synonym.Index) {
	r.synonyms.Store(ix)
}

// defaultFields searches the primary name (through the synonym pool when
// an index is configured) plus all metadata values.
func (r *Resolver) defaultFields(e Entity) []string {
	var fields []string
	if ix := r.synonyms.Load(); ix != nil {
		fields = ix.SearchPoolFor(e.Name)
	} else {
		fields = []string{e.Name}
	}
	for _, v := range e.Metadata {
		fields = append(fields, v)
	}
	return fields
}

// Resolve runs one resolution pass. Source failures are not fatal: remote
// errors degrade to local-only search, and when both sources are
// unavailable the result is simply empty so the caller can present a
// "not found" state.
func (r *Resolver) Resolve(ctx context.Context, query string) Result {
	raw := strings.TrimSpace(query)
	q := textnorm.Normalize(raw)
	if utf8.RuneCountInString(q) < r.cfg.MinQueryLen {
		return Result{}
	}

	candidates := r.gather(ctx, q)
	ranked := match.Search(r.scorer, q, candidates, r.fields, r.log)

	matches := make([]ScoredCandidate, 0, len(ranked))
	for _, c := range ranked {
		matches = append(matches, ScoredCandidate{
			Entity:        c.Item,
			Score:         c.Score,
			MatchedFields: c.MatchedFields,
		})
	}

	result := Result{Matches: matches}

	if r.cfg.AllowCreate && !r.nearExactExists(q, matches) && !r.duplicateName(raw, candidates) {
		result.Create = &CreateProposal{ProposedName: raw}
	}

	return result
}

// gather pulls candidates from the remote source, falling back to the
// full local collection when the remote call fails or returns nothing.
// When both sources contribute, the merged set is deduplicated by entity
// identity.
func (r *Resolver) gather(ctx context.Context, q string) []Entity {
	var remoteEntities []Entity
	remoteOK := false

	if r.remote != nil {
		ents, err := r.remote.Search(ctx, q, r.cfg.SourceLimit)
		if err != nil {
			if r.log != nil {
				r.log.Warnw("remote search failed, falling back to local",
					"kind", r.cfg.Kind,
					"query", q,
					"error", err,
				)
			}
		} else if len(ents) > 0 {
			remoteEntities = ents
			remoteOK = true
		}
	}

	if r.local == nil {
		return remoteEntities
	}

	localEntities, err := r.local.Search(ctx, q, 0)
	if err != nil {
		if r.log != nil {
			r.log.Warnw("local search failed",
				"kind", r.cfg.Kind,
				"query", q,
				"error", err,
			)
		}
		return remoteEntities
	}

	if !remoteOK {
		return localEntities
	}

	return dedupEntities(append(remoteEntities, localEntities...))
}

// dedupEntities keeps the first occurrence of each entity. Identity is
// the ID when present, otherwise the normalized name.
func dedupEntities(entities []Entity) []Entity {
	seen := make(map[string]bool, len(entities))
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		key := e.ID
		if key == "" {
			key = "name:" + textnorm.Normalize(e.Name)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// nearExactExists reports whether any ranked candidate's primary name
// scores at or above the near-exact threshold. Only the primary name
// counts: a strong match on a secondary field (city, phone) should not
// hide the option to create an entity with the typed name.
func (r *Resolver) nearExactExists(q string, matches []ScoredCandidate) bool {
	for _, m := range matches {
		score, _ := r.scorer.Score(q, []string{m.Entity.Name})
		if score >= r.cfg.NearExact {
			return true
		}
	}
	return false
}

// duplicateName reports whether the proposed name equals an existing
// candidate's name under normalization. This is the canonical duplicate
// check, applied before creation is ever offered.
func (r *Resolver) duplicateName(proposed string, candidates []Entity) bool {
	for _, e := range candidates {
		if textnorm.Equal(proposed, e.Name) {
			return true
		}
	}
	return false
}

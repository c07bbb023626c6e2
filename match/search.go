package match

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/odyomed/resolve/textnorm"
)

// Candidate pairs an item with its score and the fields that produced it.
// Candidates are ephemeral: produced fresh for one search pass and
// discarded once the caller consumes them.
type Candidate[T any] struct {
	Item          T
	Score         float64
	MatchedFields []string

	// bestFieldLen is the length of the shortest contributing field,
	// used for tie-breaking only.
	bestFieldLen int
	// pos preserves input order for the stable tie-break.
	pos int
}

// Search scores every item against the query and returns candidates sorted
// by descending score, truncated to the scorer's MaxResults. The fields
// function extracts the searchable strings for an item (e.g. company name,
// code, contact, city for a supplier; just the name for a brand).
//
// Ties are broken by shorter contributing field first (tighter matches
// rank higher), then by original collection order.
func Search[T any](s *Scorer, query string, items []T, fields func(T) []string, log *zap.SugaredLogger) []Candidate[T] {
	q := textnorm.Normalize(query)
	if q == "" {
		return nil
	}

	start := time.Now()
	var results []Candidate[T]

	for i, item := range items {
		score, matched := s.Score(q, fields(item))
		if score <= 0 {
			continue
		}

		bestLen := 0
		for _, f := range matched {
			l := len([]rune(textnorm.Normalize(f)))
			if bestLen == 0 || l < bestLen {
				bestLen = l
			}
		}

		results = append(results, Candidate[T]{
			Item:          item,
			Score:         score,
			MatchedFields: matched,
			bestFieldLen:  bestLen,
			pos:           i,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].bestFieldLen != results[j].bestFieldLen {
			return results[i].bestFieldLen < results[j].bestFieldLen
		}
		return results[i].pos < results[j].pos
	})

	if len(results) > s.cfg.MaxResults {
		results = results[:s.cfg.MaxResults]
	}

	if log != nil && len(results) > 0 {
		log.Debugw("fuzzy search",
			"query", query,
			"matches", len(results),
			"time_us", time.Since(start).Microseconds(),
			"top_score", results[0].Score,
		)
	}

	return results
}

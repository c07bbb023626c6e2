// Package match scores candidate records against a user query with
// edit-distance tolerance. It is the ranking engine behind the supplier,
// category and brand autocomplete surfaces.
package match

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/odyomed/resolve/textnorm"
)

// Config tunes the matcher. Zero values are replaced by defaults.
type Config struct {
	// MaxDistance is the Levenshtein distance cap; candidates farther
	// than this from the query on every field are excluded.
	MaxDistance int
	// MinScore discards edit-distance matches scoring below it.
	MinScore float64
	// MaxResults truncates ranked result lists.
	MaxResults int
	// MinFieldLen is the minimum normalized field length considered;
	// shorter fields are placeholder noise and never match.
	MinFieldLen int
}

// DefaultConfig returns the production matcher settings.
func DefaultConfig() Config {
	return Config{
		MaxDistance: 3,
		MinScore:    0.6,
		MaxResults:  10,
		MinFieldLen: 1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxDistance <= 0 {
		c.MaxDistance = d.MaxDistance
	}
	if c.MinScore <= 0 {
		c.MinScore = d.MinScore
	}
	if c.MaxResults <= 0 {
		c.MaxResults = d.MaxResults
	}
	if c.MinFieldLen <= 0 {
		c.MinFieldLen = d.MinFieldLen
	}
	return c
}

// Scorer computes similarity scores in [0,1] between a query and
// candidate fields. Scoring bands, in priority order per field:
//
//	exact match            -> 1.0
//	prefix match           -> (0.8, 0.9], tighter prefixes score higher
//	substring match        -> (0.7, 0.8), tighter fields score higher
//	edit distance <= cap   -> 1 - d/max(len), gated by MinScore
//
// A candidate's overall score is the maximum across its fields.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer with the given config.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg.withDefaults()}
}

// Config returns the effective matcher configuration.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score returns the best similarity score between the query and any of the
// candidate fields, along with the fields that contributed it. Query and
// fields are normalized before comparison. A zero score means no rule
// matched.
func (s *Scorer) Score(query string, fields []string) (float64, []string) {
	q := textnorm.Normalize(query)
	if q == "" {
		return 0, nil
	}

	best := 0.0
	bestLen := 0
	var matched []string

	for _, field := range fields {
		f := textnorm.Normalize(field)
		if len([]rune(f)) < s.cfg.MinFieldLen || f == "" {
			continue
		}

		score := s.scoreField(q, f)
		if score <= 0 {
			continue
		}

		switch {
		case score > best:
			best = score
			bestLen = len([]rune(f))
			matched = []string{field}
		case score == best:
			matched = append(matched, field)
			if l := len([]rune(f)); l < bestLen {
				bestLen = l
			}
		}
	}

	return best, matched
}

// scoreField applies the band rules to one normalized field.
// The first rule that applies wins the field's contribution.
func (s *Scorer) scoreField(q, f string) float64 {
	qLen := len([]rune(q))
	fLen := len([]rune(f))

	// 1. Exact normalized match
	if q == f {
		return 1.0
	}

	ratio := float64(qLen) / float64(fLen)

	// 2. Prefix match, scaled by how much longer the field is
	if strings.HasPrefix(f, q) {
		return 0.8 + 0.1*ratio
	}

	// 3. Substring match, similarly length-scaled
	if strings.Contains(f, q) {
		return 0.7 + 0.1*ratio
	}

	// 4. Bounded edit distance over word windows of the field
	return s.distanceScore(q, f)
}

// distanceScore computes the best Levenshtein-based score between the
// query and rolling word windows of the field. Multi-word queries slide a
// window of the same word count across the field so that "rayovac pro"
// can match inside "rayovac pro extra mercury free".
func (s *Scorer) distanceScore(q, f string) float64 {
	qWords := strings.Fields(q)
	fWords := strings.Fields(f)
	if len(qWords) == 0 || len(fWords) == 0 {
		return 0
	}

	windowSize := len(qWords)
	if windowSize > len(fWords) {
		windowSize = len(fWords)
	}

	qLen := len([]rune(q))
	best := 0.0

	for i := 0; i+windowSize <= len(fWords); i++ {
		window := strings.Join(fWords[i:i+windowSize], " ")
		wLen := len([]rune(window))

		// Windows too different in length cannot be within the cap
		if abs(wLen-qLen) > s.cfg.MaxDistance {
			continue
		}

		distance := fuzzy.LevenshteinDistance(q, window)
		if distance > s.cfg.MaxDistance {
			continue
		}

		longer := qLen
		if wLen > longer {
			longer = wLen
		}
		score := 1.0 - float64(distance)/float64(longer)
		if score > best {
			best = score
		}
	}

	if best < s.cfg.MinScore {
		return 0
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

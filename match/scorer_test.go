package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreExactMatch(t *testing.T) {
	s := NewScorer(DefaultConfig())

	score, matched := s.Score("phonak", []string{"Phonak"})
	assert.Equal(t, 1.0, score)
	assert.Equal(t, []string{"Phonak"}, matched)
}

func TestScoreExactMatchAfterFold(t *testing.T) {
	s := NewScorer(DefaultConfig())

	score, _ := s.Score("phonak turkiye", []string{"Phonak Türkiye"})
	assert.Equal(t, 1.0, score)
}

func TestScorePrefixOutranksSubstring(t *testing.T) {
	s := NewScorer(DefaultConfig())

	prefix, _ := s.Score("Pho", []string{"Phonak"})
	substring, _ := s.Score("Pho", []string{"XPhonakY"})

	assert.Greater(t, prefix, substring)
	assert.Greater(t, prefix, 0.8)
	assert.LessOrEqual(t, prefix, 0.9)
	assert.Greater(t, substring, 0.7)
	assert.Less(t, substring, 0.8)
}

func TestScoreTighterPrefixScoresHigher(t *testing.T) {
	s := NewScorer(DefaultConfig())

	tight, _ := s.Score("rayovac", []string{"Rayovac Pro"})
	loose, _ := s.Score("rayovac", []string{"Rayovac Pro Extra Mercury Free"})

	assert.Greater(t, tight, loose)
}

func TestScoreEditDistance(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// One substitution: distance 1 over length 7
	score, _ := s.Score("raiovac", []string{"Rayovac"})
	assert.InDelta(t, 1.0-1.0/7.0, score, 1e-9)
}

func TestScoreDistanceBeyondCapExcluded(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// Four substitutions from a 4-character query, cap is 3
	score, matched := s.Score("abcd", []string{"wxyz"})
	assert.Zero(t, score)
	assert.Empty(t, matched)
}

func TestScoreDistanceBelowMinScoreExcluded(t *testing.T) {
	s := NewScorer(Config{MaxDistance: 3, MinScore: 0.6, MaxResults: 10, MinFieldLen: 1})

	// Distance 2 over length 4: score 0.5, below the 0.6 floor
	score, _ := s.Score("abcd", []string{"abxy"})
	assert.Zero(t, score)
}

func TestScoreMultiWordWindow(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// "rayovc" should match the "rayovac" word inside a longer field
	score, _ := s.Score("rayovc", []string{"Rayovac Pro Extra"})
	assert.Greater(t, score, 0.8) // distance 1 over 7 runes
}

func TestScoreBestFieldWins(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// Exact match on one field must outrank partial matches on others
	score, matched := s.Score("izmir", []string{"Duysan Medikal", "İzmir"})
	assert.Equal(t, 1.0, score)
	assert.Equal(t, []string{"İzmir"}, matched)
}

func TestScoreShortFieldNeverMatches(t *testing.T) {
	s := NewScorer(Config{MaxDistance: 3, MinScore: 0.6, MaxResults: 10, MinFieldLen: 2})

	score, _ := s.Score("a", []string{"a"})
	assert.Zero(t, score)
}

func TestScoreEmptyQuery(t *testing.T) {
	s := NewScorer(DefaultConfig())

	score, matched := s.Score("   ", []string{"Phonak"})
	assert.Zero(t, score)
	assert.Nil(t, matched)
}

func TestScoreBounds(t *testing.T) {
	s := NewScorer(DefaultConfig())

	queries := []string{"p", "pho", "phonak", "fonak", "xyz", "işitme"}
	fields := [][]string{
		{"Phonak"},
		{"Phonak Türkiye", "PHN-01"},
		{"işitme cihazı"},
		{""},
	}

	for _, q := range queries {
		for _, f := range fields {
			score, _ := s.Score(q, f)
			require.GreaterOrEqual(t, score, 0.0)
			require.LessOrEqual(t, score, 1.0)
		}
	}
}

package match

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string
	City string
}

func nameAndCity(it item) []string {
	return []string{it.Name, it.City}
}

func TestSearchRanksByScoreDescending(t *testing.T) {
	s := NewScorer(DefaultConfig())
	items := []item{
		{Name: "XPhonakY"},
		{Name: "Phonak"},
		{Name: "Phonak Türkiye"},
	}

	results := Search(s, "Phonak", items, nameAndCity, nil)
	require.Len(t, results, 3)

	assert.Equal(t, "Phonak", results[0].Item.Name)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestSearchTighterPrefixRanksFirst(t *testing.T) {
	s := NewScorer(DefaultConfig())
	items := []item{
		{Name: "Rayovac Pro Extra"},
		{Name: "Rayovac Pro"},
	}

	results := Search(s, "rayovac", items, nameAndCity, nil)
	require.Len(t, results, 2)
	assert.Equal(t, "Rayovac Pro", results[0].Item.Name)
}

func TestSearchTieBreakShorterFieldFirst(t *testing.T) {
	s := NewScorer(DefaultConfig())
	// Both fields sit at edit distance 2 from the 8-rune query, so they
	// score identically; the shorter field must rank first even though
	// it appears later in the collection.
	items := []item{
		{Name: "abcdxygh"}, // distance 2, length 8
		{Name: "abcdef"},   // distance 2, length 6
	}

	results := Search(s, "abcdefgh", items, nameAndCity, nil)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "abcdef", results[0].Item.Name)
}

func TestSearchStableOrderForEqualCandidates(t *testing.T) {
	s := NewScorer(DefaultConfig())
	items := []item{
		{Name: "Rayovac", City: "İzmir"},
		{Name: "Rayovac", City: "Ankara"},
	}

	results := Search(s, "rayovac", items, nameAndCity, nil)
	require.Len(t, results, 2)
	assert.Equal(t, "İzmir", results[0].Item.City)
	assert.Equal(t, "Ankara", results[1].Item.City)
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	s := NewScorer(Config{MaxDistance: 3, MinScore: 0.6, MaxResults: 3, MinFieldLen: 1})

	var items []item
	for i := 0; i < 10; i++ {
		items = append(items, item{Name: fmt.Sprintf("Phonak %d", i)})
	}

	results := Search(s, "phonak", items, nameAndCity, nil)
	assert.Len(t, results, 3)
}

func TestSearchNoMatches(t *testing.T) {
	s := NewScorer(DefaultConfig())
	items := []item{{Name: "Rayovac"}, {Name: "Phonak"}}

	results := Search(s, "duracell", items, nameAndCity, nil)
	assert.Empty(t, results)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := NewScorer(DefaultConfig())
	results := Search(s, "  ", []item{{Name: "Phonak"}}, nameAndCity, nil)
	assert.Nil(t, results)
}

func TestSearchMatchedFieldAttribution(t *testing.T) {
	s := NewScorer(DefaultConfig())
	items := []item{{Name: "Duysan Medikal", City: "İzmir"}}

	results := Search(s, "izmir", items, nameAndCity, nil)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"İzmir"}, results[0].MatchedFields)
	assert.Equal(t, 1.0, results[0].Score)
}

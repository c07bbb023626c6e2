// Package synonym maps category labels to canonical concepts.
//
// Clinic inventory categories accumulate alternate phrasings over time
// ("işitme cihazı", "isitme cihazi", "hearing aid" all mean hearing_aid).
// The Index resolves any known surface form to its canonical token and
// expands a label into the full set of forms a query should match against.
package synonym

import (
	"github.com/odyomed/resolve/textnorm"
)

// Group is one canonical concept plus its alternate surface forms.
// Groups are static configuration: read-only once the Index is built.
type Group struct {
	Canonical  string   `yaml:"canonical"`
	Alternates []string `yaml:"alternates"`
}

// Index provides canonical-token lookup and search-pool expansion over a
// fixed set of synonym groups. All forms are stored normalized.
type Index struct {
	byForm map[string]string  // normalized form -> canonical token
	pools  map[string][]string // canonical token -> all normalized forms
}

// NewIndex builds an Index from the given groups. Forms are normalized on
// the way in; duplicate forms across groups keep the first group's mapping.
// An empty group list is valid: every name is then its own island.
func NewIndex(groups []Group) *Index {
	ix := &Index{
		byForm: make(map[string]string),
		pools:  make(map[string][]string),
	}

	for _, g := range groups {
		canonical := textnorm.Normalize(g.Canonical)
		if canonical == "" {
			continue
		}

		forms := make([]string, 0, 1+len(g.Alternates))
		forms = append(forms, canonical)
		for _, alt := range g.Alternates {
			forms = append(forms, textnorm.Normalize(alt))
		}

		var pool []string
		seen := make(map[string]bool)
		for _, form := range forms {
			if form == "" || seen[form] {
				continue
			}
			seen[form] = true
			pool = append(pool, form)
			if _, taken := ix.byForm[form]; !taken {
				ix.byForm[form] = canonical
			}
		}
		ix.pools[canonical] = pool
	}

	return ix
}

// CanonicalOf returns the canonical token for a raw category label, by
// exact normalized match against a group's canonical token or any of its
// alternates. The second return is false when the label belongs to no
// group, meaning the raw normalized name is its own canonical form.
func (ix *Index) CanonicalOf(name string) (string, bool) {
	canonical, ok := ix.byForm[textnorm.Normalize(name)]
	return canonical, ok
}

// SearchPoolFor returns the set of normalized forms that should be matched
// against a query when looking for the named item: the normalized name
// itself plus, when it belongs to a synonym group, every form in that
// group. A query for any synonym then surfaces the item.
func (ix *Index) SearchPoolFor(name string) []string {
	normalized := textnorm.Normalize(name)
	if normalized == "" {
		return nil
	}

	canonical, ok := ix.byForm[normalized]
	if !ok {
		return []string{normalized}
	}

	pool := ix.pools[canonical]
	out := make([]string, 0, 1+len(pool))
	out = append(out, normalized)
	for _, form := range pool {
		if form != normalized {
			out = append(out, form)
		}
	}
	return out
}

// Groups returns the number of configured synonym groups.
func (ix *Index) Groups() int {
	return len(ix.pools)
}

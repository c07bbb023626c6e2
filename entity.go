// Package resolve turns free-typed text into references to named entities:
// suppliers, inventory categories and brands. It ranks candidates from
// remote and local sources with fuzzy scoring, offers a "create new" entry
// when nothing matches closely enough, and runs the race-safe
// create-or-reuse protocol for user-confirmed new names.
package resolve

// Kind identifies which entity collection a resolver works against.
type Kind string

const (
	KindSupplier Kind = "supplier"
	KindCategory Kind = "category"
	KindBrand    Kind = "brand"
)

// Entity is a named resolvable item. ID is opaque and absent until the
// entity is persisted. Metadata carries free-form fields (contact info
// for suppliers); the resolution layer reads but never mutates them.
type Entity struct {
	ID       string            `json:"id,omitempty"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ScoredCandidate pairs an entity with its similarity score in [0,1] and
// the fields that contributed it. Ephemeral: produced fresh per query.
type ScoredCandidate struct {
	Entity        Entity   `json:"entity"`
	Score         float64  `json:"score"`
	MatchedFields []string `json:"matched_fields,omitempty"`
}

// CreateProposal is the synthetic "create new" entry appended to a result
// when no candidate matches closely enough and creation is permitted.
type CreateProposal struct {
	ProposedName string `json:"proposed_name"`
}

// Result is the outcome of one resolution pass. An empty Matches slice
// with a nil Create is the valid "not found" state, not an error.
type Result struct {
	Matches []ScoredCandidate `json:"matches"`
	Create  *CreateProposal   `json:"create,omitempty"`
}

// CreateOutcome reports whether CreateOrReuse persisted a new entity or
// converged on an existing one.
type CreateOutcome struct {
	Entity  Entity `json:"entity"`
	Created bool   `json:"created"`
}

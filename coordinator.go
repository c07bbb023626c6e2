package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/odyomed/resolve/errors"
	"github.com/odyomed/resolve/textnorm"
)

// PersistFn persists a new entity under the given name. It must return an
// error wrapping errors.ErrConflict (ideally a *ConflictError carrying the
// existing entity) when the name already exists server-side.
type PersistFn func(ctx context.Context, name string) (Entity, error)

// Coordinator runs the create-or-reuse protocol: a user-confirmed new
// name becomes either a freshly persisted entity or a reference to an
// existing one discovered mid-flight.
//
// The client-side duplicate check cannot guarantee exclusivity: two
// sessions typing the same new name race, and the backend is the
// authority. The conflict path exists so both converge on one entity
// instead of erroring or duplicating.
type Coordinator struct {
	persist PersistFn
	session *StaticSource
	log     *zap.SugaredLogger
}

// NewCoordinator creates a Coordinator. The session source is the
// in-memory candidate list that newly created entities are appended to so
// subsequent queries in the same session see them without a round-trip;
// it may be nil.
func NewCoordinator(persist PersistFn, session *StaticSource, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		persist: persist,
		session: session,
		log:     log,
	}
}

// CreateOrReuse trims and validates the proposed name, short-circuits on
// a locally known duplicate, and otherwise persists. A backend conflict
// is success-with-reuse, not an error. Any other persist failure is
// surfaced as a *PersistenceError and leaves the session list unmodified.
func (c *Coordinator) CreateOrReuse(ctx context.Context, proposedName string, existing []Entity) (CreateOutcome, error) {
	name := strings.TrimSpace(proposedName)
	if name == "" {
		return CreateOutcome{}, &ValidationError{Reason: "proposed name is empty"}
	}

	// Idempotent short-circuit: a case/locale-insensitive duplicate in
	// the known candidates is returned without touching the backend.
	for _, e := range existing {
		if textnorm.Equal(name, e.Name) {
			if c.log != nil {
				c.log.Debugw("create-or-reuse short-circuit",
					"name", name,
					"entity_id", e.ID,
				)
			}
			return CreateOutcome{Entity: e, Created: false}, nil
		}
	}

	entity, err := c.persist(ctx, name)
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			// The backend found the name mid-flight; converge on its
			// entity rather than failing.
			if c.log != nil {
				c.log.Infow("create conflict resolved to existing entity",
					"name", name,
					"entity_id", conflict.Existing.ID,
				)
			}
			return CreateOutcome{Entity: conflict.Existing, Created: false}, nil
		}
		if errors.Is(err, errors.ErrConflict) {
			// Conflict without a payload: the name exists but the
			// backend did not say which entity it is.
			return CreateOutcome{Entity: Entity{Name: name}, Created: false}, nil
		}
		return CreateOutcome{}, &PersistenceError{Cause: err}
	}

	if c.session != nil {
		c.session.Append(entity)
	}
	if c.log != nil {
		c.log.Infow("entity created",
			"name", name,
			"entity_id", entity.ID,
		)
	}

	return CreateOutcome{Entity: entity, Created: true}, nil
}

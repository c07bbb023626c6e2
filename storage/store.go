// Package storage provides SQLite-backed persistence for resolvable
// entities. It is the backend authority for name uniqueness: a UNIQUE
// index on the normalized name closes the race that client-side duplicate
// checks cannot.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/errors"
	"github.com/odyomed/resolve/textnorm"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL,
	name            TEXT NOT NULL,
	name_normalized TEXT NOT NULL,
	metadata        TEXT NOT NULL DEFAULT '{}',
	created_at      TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_kind_name
	ON entities(kind, name_normalized);
`

// EntityStore persists suppliers, categories and brands in SQLite.
type EntityStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens (creating if needed) the SQLite database at path with the
// settings the store expects.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}
	return db, nil
}

// NewEntityStore creates a store over an open database handle.
func NewEntityStore(db *sql.DB, log *zap.SugaredLogger) *EntityStore {
	return &EntityStore{db: db, log: log}
}

// Init creates the schema if it does not exist.
func (s *EntityStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to initialize entity schema")
	}
	return nil
}

// Create persists a new entity. The name is stored as typed; uniqueness
// is enforced on its normalized form per kind. When another client
// created the same name first, Create returns a *resolve.ConflictError
// carrying the existing entity.
func (s *EntityStore) Create(ctx context.Context, kind resolve.Kind, name string, metadata map[string]string) (resolve.Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return resolve.Entity{}, errors.Wrap(errors.ErrInvalidRequest, "entity name cannot be empty")
	}

	metadataJSON, err := json.Marshal(orEmpty(metadata))
	if err != nil {
		return resolve.Entity{}, errors.Wrap(err, "failed to marshal entity metadata")
	}

	entity := resolve.Entity{
		ID:       uuid.NewString(),
		Name:     name,
		Metadata: metadata,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, kind, name, name_normalized, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entity.ID, string(kind), name, textnorm.Normalize(name), string(metadataJSON), time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.GetByName(ctx, kind, name)
			if lookupErr != nil {
				// The row exists but could not be read back; still a
				// conflict, just without the payload.
				return resolve.Entity{}, &resolve.ConflictError{Name: name}
			}
			return resolve.Entity{}, &resolve.ConflictError{Name: name, Existing: existing}
		}
		return resolve.Entity{}, errors.Wrapf(err, "failed to create %s %q", kind, name)
	}

	if s.log != nil {
		s.log.Infow("entity created",
			"kind", kind,
			"entity_id", entity.ID,
			"name", name,
		)
	}

	return entity, nil
}

// Search returns entities of the kind whose normalized name contains the
// normalized query, tighter names first. An empty result is not an error.
func (s *EntityStore) Search(ctx context.Context, kind resolve.Kind, query string, limit int) ([]resolve.Entity, error) {
	if limit <= 0 {
		limit = 50
	}

	pattern := "%" + escapeLike(textnorm.Normalize(query)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, metadata
		FROM entities
		WHERE kind = ? AND name_normalized LIKE ? ESCAPE '\'
		ORDER BY length(name_normalized), name_normalized
		LIMIT ?`,
		string(kind), pattern, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search %s entities", kind)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// List returns the full collection for a kind, for local-cache loading.
func (s *EntityStore) List(ctx context.Context, kind resolve.Kind) ([]resolve.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, metadata
		FROM entities
		WHERE kind = ?
		ORDER BY name_normalized`,
		string(kind))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s entities", kind)
	}
	defer rows.Close()

	return scanEntities(rows)
}

// GetByName fetches one entity by its normalized name. Returns an error
// wrapping errors.ErrNotFound when no such entity exists.
func (s *EntityStore) GetByName(ctx context.Context, kind resolve.Kind, name string) (resolve.Entity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, metadata
		FROM entities
		WHERE kind = ? AND name_normalized = ?`,
		string(kind), textnorm.Normalize(name))

	var e resolve.Entity
	var metadataJSON string
	if err := row.Scan(&e.ID, &e.Name, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resolve.Entity{}, errors.Wrapf(errors.ErrNotFound, "%s %q", kind, name)
		}
		return resolve.Entity{}, errors.Wrapf(err, "failed to get %s %q", kind, name)
	}

	e.Metadata = unmarshalMetadata(metadataJSON)
	return e, nil
}

func scanEntities(rows *sql.Rows) ([]resolve.Entity, error) {
	var entities []resolve.Entity
	for rows.Next() {
		var e resolve.Entity
		var metadataJSON string
		if err := rows.Scan(&e.ID, &e.Name, &metadataJSON); err != nil {
			return nil, errors.Wrap(err, "failed to scan entity")
		}
		e.Metadata = unmarshalMetadata(metadataJSON)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func unmarshalMetadata(metadataJSON string) map[string]string {
	if metadataJSON == "" || metadataJSON == "{}" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(metadataJSON), &m); err != nil {
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// isUniqueViolation recognizes the SQLite unique-constraint error both as
// the typed driver error and by message, so non-sqlite test doubles can
// trigger the conflict path too.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

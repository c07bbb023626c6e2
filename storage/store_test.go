package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/errors"
)

// setupTestDB creates an in-memory SQLite database with the entity schema.
func setupTestDB(t *testing.T) *EntityStore {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewEntityStore(db, nil)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestCreateAndGetByName(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	entity, err := store.Create(ctx, resolve.KindSupplier, "Phonak Türkiye", map[string]string{
		"city": "İstanbul",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entity.ID)
	assert.Equal(t, "Phonak Türkiye", entity.Name)

	// Lookup is locale-insensitive
	got, err := store.GetByName(ctx, resolve.KindSupplier, "phonak turkiye")
	require.NoError(t, err)
	assert.Equal(t, entity.ID, got.ID)
	assert.Equal(t, "Phonak Türkiye", got.Name)
	assert.Equal(t, "İstanbul", got.Metadata["city"])
}

func TestCreateEmptyNameRejected(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.Create(context.Background(), resolve.KindBrand, "   ", nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestCreateDuplicateReturnsConflictWithExisting(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	first, err := store.Create(ctx, resolve.KindBrand, "Rayovac", nil)
	require.NoError(t, err)

	// Same name under normalization, different surface spelling
	_, err = store.Create(ctx, resolve.KindBrand, "RAYOVAC", nil)
	var conflict *resolve.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.ID, conflict.Existing.ID)
	assert.True(t, errors.IsConflictError(err))
}

func TestCreateSameNameDifferentKinds(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.Create(ctx, resolve.KindBrand, "Phonak", nil)
	require.NoError(t, err)

	// Uniqueness is per kind: a supplier may share a brand's name
	_, err = store.Create(ctx, resolve.KindSupplier, "Phonak", nil)
	assert.NoError(t, err)
}

func TestSearchNormalizedSubstring(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Rayovac", "Rayovac Pro", "Duracell"} {
		_, err := store.Create(ctx, resolve.KindBrand, name, nil)
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, resolve.KindBrand, "RAYOVAC", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Tighter names first
	assert.Equal(t, "Rayovac", results[0].Name)
	assert.Equal(t, "Rayovac Pro", results[1].Name)
}

func TestSearchRespectsLimit(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Rayovac", "Rayovac Pro", "Rayovac Extra"} {
		_, err := store.Create(ctx, resolve.KindBrand, name, nil)
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, resolve.KindBrand, "rayovac", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.Create(ctx, resolve.KindBrand, "Rayovac", nil)
	require.NoError(t, err)

	results, err := store.Search(ctx, resolve.KindBrand, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "a literal %% query must not match everything")
}

func TestListReturnsFullCollection(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.Create(ctx, resolve.KindCategory, "hearing_aid", nil)
	require.NoError(t, err)
	_, err = store.Create(ctx, resolve.KindCategory, "battery", nil)
	require.NoError(t, err)
	_, err = store.Create(ctx, resolve.KindBrand, "Phonak", nil)
	require.NoError(t, err)

	categories, err := store.List(ctx, resolve.KindCategory)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestGetByNameNotFound(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.GetByName(context.Background(), resolve.KindBrand, "nope")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSearchQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, metadata").
		WillReturnError(errors.New("disk I/O error"))

	store := NewEntityStore(db, nil)
	_, err = store.Search(context.Background(), resolve.KindBrand, "rayovac", 10)
	assert.ErrorContains(t, err, "failed to search")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUniqueViolationByMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO entities").
		WillReturnError(errors.New("UNIQUE constraint failed: entities.name_normalized"))
	mock.ExpectQuery("SELECT id, name, metadata").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "metadata"}).
			AddRow("existing-id", "Rayovac", "{}"))

	store := NewEntityStore(db, nil)
	_, err = store.Create(context.Background(), resolve.KindBrand, "Rayovac", nil)

	var conflict *resolve.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "existing-id", conflict.Existing.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

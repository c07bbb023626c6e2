package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/source"
	"github.com/odyomed/resolve/storage"
)

// setupTestServer wires a brand resolver and coordinator over an
// in-memory store, seeded with a few entities.
func setupTestServer(t *testing.T) (*Server, *storage.EntityStore) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewEntityStore(db, nil)
	require.NoError(t, store.Init(context.Background()))

	ctx := context.Background()
	for _, name := range []string{"Rayovac", "Duracell", "Phonak"} {
		_, err := store.Create(ctx, resolve.KindBrand, name, nil)
		require.NoError(t, err)
	}

	local := source.NewLocal(resolve.KindBrand, source.Lister(resolve.KindBrand, store), time.Minute, nil)
	resolver := resolve.New(resolve.Config{
		Kind:        resolve.KindBrand,
		AllowCreate: true,
	}, nil, local, nil)

	coordinator := resolve.NewCoordinator(func(ctx context.Context, name string) (resolve.Entity, error) {
		return store.Create(ctx, resolve.KindBrand, name, nil)
	}, nil, nil)

	srv := New(Config{Addr: ":0", Debounce: 50 * time.Millisecond}, store,
		map[resolve.Kind]*resolve.Resolver{resolve.KindBrand: resolver},
		map[resolve.Kind]*resolve.Coordinator{resolve.KindBrand: coordinator},
		zap.NewNop().Sugar(),
	)
	return srv, store
}

func TestHandleHealth(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestEntitySearchUnknownKind(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/widget?q=x", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntitySearch(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/brand?q=rayovac", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var entities []resolve.Entity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entities))
	require.Len(t, entities, 1)
	assert.Equal(t, "Rayovac", entities[0].Name)
}

func TestEntitySearchBadLimit(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/brand?q=x&limit=banana", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/brand/resolve?q=raiovac", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result resolve.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Matches)
	assert.Equal(t, "Rayovac", result.Matches[0].Entity.Name)
	// A near-exact typo match suppresses the create proposal
	assert.Nil(t, result.Create)
}

func TestResolveEndpointOffersCreate(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/brand/resolve?q=PowerOne", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result resolve.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Create)
	assert.Equal(t, "PowerOne", result.Create.ProposedName)
}

func postCreate(t *testing.T, srv *Server, name string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(createRequest{Name: name})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/brand", bytes.NewReader(body))
	srv.routes().ServeHTTP(rec, req)
	return rec
}

func TestEntityCreateThenReuse(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := postCreate(t, srv, "PowerOne")
	require.Equal(t, http.StatusCreated, rec.Code)

	var outcome resolve.CreateOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.True(t, outcome.Created)
	assert.NotEmpty(t, outcome.Entity.ID)

	// Same name again converges on the existing entity
	rec = postCreate(t, srv, "powerone")
	require.Equal(t, http.StatusOK, rec.Code)

	var reused resolve.CreateOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reused))
	assert.False(t, reused.Created)
	assert.Equal(t, outcome.Entity.ID, reused.Entity.ID)
}

func TestEntityCreateEmptyName(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := postCreate(t, srv, "   ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntityMethodNotAllowed(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/brand", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

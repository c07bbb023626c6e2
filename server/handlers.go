package server

import (
	"net/http"
	"strconv"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/errors"
)

const defaultSearchLimit = 50

// createRequest is the POST /api/{kind} body.
type createRequest struct {
	Name string `json:"name"`
}

// HandleHealth reports liveness and the kinds this server resolves.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	kinds := make([]resolve.Kind, 0, len(s.resolvers))
	for kind := range s.resolvers {
		kinds = append(kinds, kind)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"kinds":  kinds,
	})
}

// HandleEntities serves GET (raw substring candidate search against the
// store) and POST (create-or-reuse) for one entity kind.
func (s *Server) HandleEntities(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleEntitySearch(w, r)
	case http.MethodPost:
		s.handleEntityCreate(w, r)
	}
}

// handleEntitySearch is the backend half of the remote candidate source:
// unranked store lookup, no fuzzy scoring. Ranked results live under
// /resolve.
func (s *Server) handleEntitySearch(w http.ResponseWriter, r *http.Request) {
	kind, _, ok := s.resolverFor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entities, err := s.store.Search(r.Context(), kind, query, limit)
	if err != nil {
		s.logger.Errorw("Entity search failed",
			"kind", kind,
			"query", query,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, entities)
}

func (s *Server) handleEntityCreate(w http.ResponseWriter, r *http.Request) {
	kind := resolve.Kind(r.PathValue("kind"))
	coordinator, ok := s.coordinators[kind]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity kind: "+string(kind))
		return
	}

	var req createRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	// Known candidates let the coordinator reuse an existing entity
	// without a round-trip through the UNIQUE constraint.
	existing, err := s.store.Search(r.Context(), kind, req.Name, defaultSearchLimit)
	if err != nil {
		s.logger.Warnw("Candidate lookup before create failed",
			"kind", kind,
			"name", req.Name,
			"error", err,
		)
	}

	outcome, err := coordinator.CreateOrReuse(r.Context(), req.Name, existing)
	if err != nil {
		var invalid *resolve.ValidationError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		s.logger.Errorw("Create-or-reuse failed",
			"kind", kind,
			"name", req.Name,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}

	status := http.StatusOK
	if outcome.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, outcome)
}

// HandleResolve runs one ranked resolution pass for GET /api/{kind}/resolve?q=.
func (s *Server) HandleResolve(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	_, resolver, ok := s.resolverFor(w, r)
	if !ok {
		return
	}

	result := resolver.Resolve(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, result)
}

// Package server exposes entity search and create-or-reuse over HTTP,
// plus a WebSocket endpoint for debounced live search.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/odyomed/resolve"
	"github.com/odyomed/resolve/errors"
	"github.com/odyomed/resolve/storage"
)

// Config holds the server's listen address and live-search debounce.
type Config struct {
	Addr     string
	Debounce time.Duration
}

// Server routes entity requests to per-kind resolvers and coordinators.
// Kinds without a registered resolver return 404.
type Server struct {
	cfg          Config
	store        *storage.EntityStore
	resolvers    map[resolve.Kind]*resolve.Resolver
	coordinators map[resolve.Kind]*resolve.Coordinator
	upgrader     websocket.Upgrader
	httpServer   *http.Server
	logger       *zap.SugaredLogger
}

// New creates a Server. The store backs the raw candidate endpoint; the
// resolver and coordinator maps define which kinds the server serves.
func New(cfg Config, store *storage.EntityStore, resolvers map[resolve.Kind]*resolve.Resolver, coordinators map[resolve.Kind]*resolve.Coordinator, log *zap.SugaredLogger) *Server {
	if cfg.Debounce <= 0 {
		cfg.Debounce = resolve.DefaultDebounce
	}
	return &Server{
		cfg:          cfg,
		store:        store,
		resolvers:    resolvers,
		coordinators: coordinators,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// routes configures all HTTP handlers
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.HandleHealth)              // Liveness and served kinds (GET)
	mux.HandleFunc("/api/{kind}", s.HandleEntities)            // Raw candidate search (GET) and create-or-reuse (POST)
	mux.HandleFunc("/api/{kind}/resolve", s.HandleResolve)     // Ranked resolution with create proposal (GET)
	mux.HandleFunc("/ws/{kind}/search", s.HandleSearchSocket)  // Debounced live search (WebSocket)
	return mux
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("Server listening",
		"addr", s.cfg.Addr,
		"kinds", len(s.resolvers),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Infow("Server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// resolverFor validates the {kind} path segment against the registered
// resolvers.
func (s *Server) resolverFor(w http.ResponseWriter, r *http.Request) (resolve.Kind, *resolve.Resolver, bool) {
	kind := resolve.Kind(r.PathValue("kind"))
	resolver, ok := s.resolvers[kind]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown entity kind: "+string(kind))
		return kind, nil, false
	}
	return kind, resolver, true
}

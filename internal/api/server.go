// Package api serves the gateway's HTTP surface.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aulanet-io/ad-console/internal/batch"
	"github.com/aulanet-io/ad-console/internal/directory"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr       string
	CORSOrigin string
}

// Server is the ad-console gateway HTTP server.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
}

// NewServer wires routes, middleware and handlers.
func NewServer(cfg ServerConfig, dir *directory.Service, jobs *batch.Registry) *Server {
	handlers := NewHandlers(dir, jobs)
	mux := http.NewServeMux()

	common := []func(http.Handler) http.Handler{RequestLogger, CORS(cfg.CORSOrigin)}
	listing := append(append([]func(http.Handler) http.Handler{}, common...), NoStore)

	// Read-only listings, cached behind the directory service.
	mux.Handle("GET /api/users", applyMiddleware(handlers.ListingHandler(directory.ScriptGetUsers), listing...))
	mux.Handle("GET /api/groups", applyMiddleware(handlers.ListingHandler(directory.ScriptGetGroups), listing...))
	mux.Handle("GET /api/ous", applyMiddleware(handlers.ListingHandler(directory.ScriptGetOUs), listing...))
	mux.Handle("GET /api/computers", applyMiddleware(handlers.ListingHandler(directory.ScriptGetComputers), listing...))
	mux.Handle("GET /api/logs", applyMiddleware(handlers.ListingHandler(directory.ScriptGetLogs), listing...))
	mux.Handle("GET /api/sessions", applyMiddleware(http.HandlerFunc(handlers.SessionsHandler), listing...))

	// Mutations.
	mux.Handle("POST /api/users", applyMiddleware(http.HandlerFunc(handlers.CreateUserHandler), common...))
	mux.Handle("PUT /api/users/{username}", applyMiddleware(http.HandlerFunc(handlers.UpdateUserHandler), common...))
	mux.Handle("DELETE /api/users/{username}", applyMiddleware(http.HandlerFunc(handlers.DeleteUserHandler), common...))

	// Batch operations.
	mux.Handle("POST /api/users/import", applyMiddleware(http.HandlerFunc(handlers.ImportHandler), common...))
	mux.Handle("POST /api/users/batch-delete", applyMiddleware(http.HandlerFunc(handlers.BatchDeleteHandler), common...))
	mux.Handle("POST /api/users/batch-password", applyMiddleware(http.HandlerFunc(handlers.BatchPasswordHandler), common...))
	mux.Handle("GET /api/batch/{id}", applyMiddleware(http.HandlerFunc(handlers.BatchStatusHandler), listing...))

	// Live feed (websocket; no middleware that would buffer the upgrade).
	mux.HandleFunc("GET /api/sessions/live", handlers.LiveSessionsHandler)

	// Health check.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Everything else is a 404 in the JSON envelope.
	mux.Handle("/", applyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	}), common...))

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the live feed holds its connection open
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: httpServer, handlers: handlers}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Default().Info("gateway listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

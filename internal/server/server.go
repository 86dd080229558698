// Package server provides the HTTP and WebSocket API for the frontdesk
// dashboard and the simulated phone line.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinkerloft/frontdesk/internal/agent"
	"github.com/tinkerloft/frontdesk/internal/bus"
	"github.com/tinkerloft/frontdesk/internal/calls"
	"github.com/tinkerloft/frontdesk/internal/metrics"
	"github.com/tinkerloft/frontdesk/internal/store"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Deps carries everything the server needs. Bus and Metrics may be nil in
// tests that do not exercise them.
type Deps struct {
	Resolver    *agent.Resolver
	Requests    *store.RequestStore
	Knowledge   *store.KnowledgeStore
	Calls       *calls.Registry
	Bus         *bus.Bus
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	deps   Deps
	hub    *Hub
}

// New creates a new Server and registers its metrics with reg. reg may be
// nil to disable the /metrics endpoint.
func New(deps Deps, reg *prometheus.Registry) *Server {
	s := &Server{deps: deps}
	s.hub = NewHub(deps.Metrics)
	s.router = s.buildRouter(reg)
	return s
}

// Hub exposes the WebSocket hub so cmd/server can run its pumps.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter(reg *prometheus.Registry) chi.Router {
	origins := s.deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.deps.Metrics != nil {
		r.Use(metrics.Middleware(s.deps.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/", s.handleRoot)

	// Call routes
	r.Post("/api/calls/simulate", s.handleSimulateCall)
	r.Get("/api/calls/active", s.handleActiveCalls)
	r.Get("/api/calls/logs", s.handleCallLogs)
	r.Post("/api/calls/{id}/hold", s.handleHoldCall)
	r.Post("/api/calls/{id}/resume", s.handleResumeCall)

	// Help-request routes
	r.Post("/api/requests/create", s.handleCreateRequest)
	r.Get("/api/requests/pending", s.handlePendingRequests)
	r.Get("/api/requests/all", s.handleAllRequests)
	r.Get("/api/requests/{id}", s.handleGetRequest)
	r.Post("/api/requests/respond", s.handleRespond)

	// Knowledge routes
	r.Get("/api/knowledge/all", s.handleAllKnowledge)
	r.Post("/api/knowledge/add", s.handleAddKnowledge)
	r.Get("/api/knowledge/search", s.handleSearchKnowledge)

	r.Get("/api/stats", s.handleStats)

	r.Get("/ws", s.handleWS)

	if reg != nil {
		r.Get("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP)
	}

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "frontdesk",
		"version": Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store sentinels onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

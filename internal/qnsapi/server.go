// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package qnsapi exposes the decision engine's admin HTTP surface: a
// snapshot endpoint per (slot, session) ANE and a websocket endpoint
// streaming the ResultChannel's publications live, for a front-end
// dashboard or cmd/qns-sim to observe decisions as they happen.
package qnsapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"grimm.is/qns/internal/ane"
	"grimm.is/qns/internal/logging"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/validation"
)

// EngineKey identifies one running ANE instance within the registry.
type EngineKey struct {
	Slot    int
	Session qnstypes.SessionType
}

// Registry is the set of ANE instances the API surfaces. The daemon
// registers one entry per (slot, session) it starts.
type Registry struct {
	engines map[EngineKey]*ane.ANE
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{engines: map[EngineKey]*ane.ANE{}}
}

// Register adds or replaces the ANE for key.
func (r *Registry) Register(key EngineKey, a *ane.ANE) {
	r.engines[key] = a
}

// Server is the qnsapi HTTP server.
type Server struct {
	registry *Registry
	logger   *logging.Logger
	upgrader websocketUpgrader
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Registry *Registry
	Logger   *logging.Logger
}

// NewServer builds a Server bound to opts.Registry.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Server{
		registry: opts.Registry,
		logger:   logger.WithComponent("qnsapi"),
		upgrader: newWebsocketUpgrader(),
	}
}

// RegisterRoutes wires the Server's handlers onto router, following the
// handler-struct-with-RegisterRoutes convention used throughout the
// admin API.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/qns/engines", s.handleListEngines).Methods("GET")
	router.HandleFunc("/api/v1/qns/{slot}/{session}", s.handleSnapshot).Methods("GET")
	router.HandleFunc("/api/v1/qns/{slot}/{session}/stream", s.handleStream)
}

// handleListEngines reports the (slot, session) pairs currently registered.
func (s *Server) handleListEngines(w http.ResponseWriter, r *http.Request) {
	keys := make([]EngineKey, 0, len(s.registry.engines))
	for k := range s.registry.engines {
		keys = append(keys, k)
	}
	respondWithJSON(w, http.StatusOK, keys)
}

// handleSnapshot returns the last notified qualified-network list for
// one engine, if anything has been published yet.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	key, ok := s.engineKeyFromRequest(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "invalid slot or session")
		return
	}
	e, ok := s.registry.engines[key]
	if !ok {
		WriteError(w, http.StatusNotFound, "no such engine")
		return
	}
	info, published := e.LastNotified()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"slot":            key.Slot,
		"session":         key.Session,
		"published":       published,
		"access_networks": info.AccessNetworks,
		"timestamp":       time.Now().UTC(),
	})
}

func (s *Server) engineKeyFromRequest(r *http.Request) (EngineKey, bool) {
	vars := mux.Vars(r)
	slot, err := strconv.Atoi(vars["slot"])
	if err != nil {
		return EngineKey{}, false
	}
	if err := validation.ValidateIdentifier(vars["session"]); err != nil {
		return EngineKey{}, false
	}
	return EngineKey{Slot: slot, Session: qnstypes.SessionType(vars["session"])}, true
}

// respondWithJSON sends a JSON response, matching the admin API's
// established response helper (grounded on internal/api's handler style).
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

// WriteError sends a uniform JSON error body.
func WriteError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

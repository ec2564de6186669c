// Package httpapi is the thin HTTP wiring over the engine: JSON routes for
// the five operations, a Server-Sent Events feed for real-time observers,
// and optional static serving for the bundled web client.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mealrounds/cartsync/internal/cart"
	"github.com/mealrounds/cartsync/internal/engine"
)

// Server translates HTTP requests into engine calls. It holds no state of
// its own beyond the static asset directory.
type Server struct {
	engine    *engine.Engine
	staticDir string
}

// Option configures a Server.
type Option func(*Server)

// WithStaticDir enables serving the web client from the given directory.
// Unknown non-API paths fall back to index.html so client-side routing
// works after a page reload.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// New builds the server around an engine.
func New(e *engine.Engine, opts ...Option) *Server {
	s := &Server{engine: e}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the mux with all routes. Every response passes through the
// permissive CORS wrapper; the service has no cross-origin restrictions.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/carts", s.listCarts)
	mux.HandleFunc("GET /api/history", s.listHistory)
	mux.HandleFunc("POST /api/carts/{id}/state", s.changeState)
	mux.HandleFunc("PUT /api/carts", s.replaceCarts)
	mux.HandleFunc("DELETE /api/history", s.clearHistory)
	mux.HandleFunc("GET /api/events", s.events)

	if s.staticDir != "" {
		mux.HandleFunc("/", s.static)
	}

	return withCORS(mux)
}

// listCarts returns the full cart registry.
func (s *Server) listCarts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Carts())
}

// listHistory returns the full history log, newest first.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.History())
}

// changeState applies a state transition to one cart.
func (s *Server) changeState(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart id"})
		return
	}

	var req struct {
		NewState string `json:"newState"`
		User     string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	updated, err := s.engine.ChangeState(r.Context(), id, req.NewState, req.User)
	if engine.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cart":    updated,
	})
}

// replaceCarts overwrites the registry with the supplied carts. The payload
// is trusted as-is; only JSON decoding failures are rejected.
func (s *Server) replaceCarts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Carts []cart.Cart `json:"carts"`
		User  string      `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	s.engine.ReplaceCarts(r.Context(), req.Carts, req.User)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// clearHistory truncates the history log.
func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User string `json:"user"`
	}
	// A missing or malformed body clears anyway; the user label is advisory.
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.engine.ClearHistory(r.Context(), req.User)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// static serves the web client with index.html fallback for client-side
// routes.
func (s *Server) static(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.staticDir, filepath.Clean("/"+r.URL.Path))

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
}

// withCORS applies the permissive cross-origin policy the deployed clients
// rely on and short-circuits preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes a response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !isClientGone(err) {
		slog.Error("encoding response failed", "error", err)
	}
}

// isClientGone reports whether a write error is just a disconnected client.
func isClientGone(err error) bool {
	return strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset")
}

// Package api serves the Spot the Op HTTP surface: game CRUD, sighting
// appends, the leaderboard view and the predictive heatmap endpoint.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rakhic/spot-the-op/internal/location"
	"github.com/rakhic/spot-the-op/internal/predict"
	"github.com/rakhic/spot-the-op/internal/store"
)

// Server serves the game API over HTTP.
type Server struct {
	Store     *store.DB
	Predictor *predict.Generator
	Location  location.Provider
	Addr      string
	BaseURL   string // public base URL used in invite links
}

// Handler builds the routing table. Split out from Start so tests can drive
// the mux through httptest.
func (s *Server) Handler() http.Handler {
	// The predict endpoint consumes generative-AI quota; keep it behind a
	// per-IP limiter.
	predictLimiter := NewRateLimiter(10, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/games", s.handleGames)
	mux.HandleFunc("/api/v1/games/", s.handleGameRoutes(predictLimiter))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	slog.Info("HTTP API starting", "addr", s.Addr)
	go func() {
		if err := http.ListenAndServe(s.Addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleGameRoutes dispatches /api/v1/games/:id and its sub-resources.
func (s *Server) handleGameRoutes(predictLimiter *RateLimiter) http.HandlerFunc {
	rateLimitedPredict := RateLimitMiddleware(predictLimiter, s.withGameID(s.handlePredict))

	return func(w http.ResponseWriter, r *http.Request) {
		// /api/v1/games/:id → parts[0]="" [1]="api" [2]="v1" [3]="games" [4]=id [5]=sub
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 5 || parts[4] == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}
		gameID := parts[4]

		if len(parts) == 5 {
			s.handleGameDetail(w, r, gameID)
			return
		}

		switch parts[5] {
		case "sightings":
			s.handleSightings(w, r, gameID)
		case "leaderboard":
			s.handleLeaderboard(w, r, gameID)
		case "predict":
			rateLimitedPredict(w, r)
		case "invite":
			if len(parts) >= 7 && parts[6] == "qr" {
				s.handleInviteQR(w, r, gameID)
				return
			}
			s.handleInvite(w, r, gameID)
		default:
			http.NotFound(w, r)
		}
	}
}

// withGameID re-extracts the game id for handlers wrapped by middleware that
// only passes (w, r).
func (s *Server) withGameID(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		if len(parts) < 5 || parts[4] == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}
		next(w, r, parts[4])
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	games, err := s.Store.ListGames()
	if err != nil {
		slog.Error("status list failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	sightings := 0
	for _, g := range games {
		sightings += len(g.SpottedHistory)
	}

	writeJSON(w, map[string]any{
		"name":       "Spot the Op",
		"games":      len(games),
		"sightings":  sightings,
		"predictive": s.Predictor != nil && s.Predictor.GenAI.Enabled(),
	})
}

// writeStoreError maps store failures onto 404/503.
func writeStoreError(w http.ResponseWriter, gameID string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	slog.Error("store operation failed", "game", gameID, "error", err)
	http.Error(w, "store unavailable", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	http.Error(w, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

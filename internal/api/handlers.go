package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/rakhic/spot-the-op/internal/game"
	"github.com/rakhic/spot-the-op/internal/heatmap"
	"github.com/rakhic/spot-the-op/internal/leaderboard"
)

// handleGames serves GET (list) and POST (create) on the games collection.
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListGames(w, r)
	case http.MethodPost:
		s.handleCreateGame(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.Store.ListGames()
	if err != nil {
		writeStoreError(w, "", err)
		return
	}

	type gameSummary struct {
		ID             string    `json:"id"`
		Name           string    `json:"gameName"`
		Latitude       float64   `json:"latitude"`
		Longitude      float64   `json:"longitude"`
		Mode           game.Mode `json:"mode,omitempty"`
		InvitedFriends []string  `json:"invitedFriends"`
		Sightings      int       `json:"sightings"`
		LastSpotted    string    `json:"lastSpotted,omitempty"`
	}

	result := make([]gameSummary, 0, len(games))
	for _, g := range games {
		summary := gameSummary{
			ID:             g.ID,
			Name:           g.Name,
			Latitude:       g.Latitude,
			Longitude:      g.Longitude,
			Mode:           g.Mode,
			InvitedFriends: g.InvitedFriends,
			Sightings:      len(g.SpottedHistory),
		}
		if last, ok := g.LastSighting(); ok {
			summary.LastSpotted = humanize.Time(last.Timestamp)
		}
		result = append(result, summary)
	}
	writeJSON(w, result)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string    `json:"gameName"`
		Mode           game.Mode `json:"mode"`
		Latitude       *float64  `json:"latitude,omitempty"`
		Longitude      *float64  `json:"longitude,omitempty"`
		InvitedFriends []string  `json:"invitedFriends,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.Name == "" {
		badRequest(w, "gameName required")
		return
	}
	if req.Mode == "" {
		req.Mode = game.ModeCustom
	}
	if !req.Mode.Valid() {
		badRequest(w, "unknown mode %q", req.Mode)
		return
	}

	anchor, ok := game.PresetAnchor(req.Mode)
	if !ok {
		switch {
		case req.Latitude != nil && req.Longitude != nil:
			anchor = game.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
		case s.Location != nil:
			var err error
			anchor, err = s.Location.Current(r.Context())
			if err != nil {
				badRequest(w, "custom games need coordinates: no location available")
				return
			}
		default:
			badRequest(w, "custom games need latitude and longitude")
			return
		}
	}

	g := game.New(req.Name, req.Mode, anchor)
	g.InvitedFriends = req.InvitedFriends

	if err := s.Store.CreateGame(g); err != nil {
		writeStoreError(w, g.ID, err)
		return
	}

	slog.Info("game created", "id", g.ID, "name", g.Name, "mode", g.Mode)
	writeJSONStatus(w, http.StatusCreated, g)
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request, gameID string) {
	g, err := s.Store.GetGame(gameID)
	if err != nil {
		writeStoreError(w, gameID, err)
		return
	}
	writeJSON(w, g)
}

// handleSightings appends one sighting to the game's history. The append is
// fire-and-forget at-least-once: there is no concurrency check against other
// players spotting at the same moment.
func (s *Server) handleSightings(w http.ResponseWriter, r *http.Request, gameID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PersonSpotted string  `json:"personSpotted"`
		Latitude      float64 `json:"latitude"`
		Longitude     float64 `json:"longitude"`
		ImageURL      string  `json:"imageData,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if req.PersonSpotted == "" {
		badRequest(w, "personSpotted required")
		return
	}

	sighting := game.NewSighting(req.PersonSpotted, req.Latitude, req.Longitude)
	sighting.ImageURL = req.ImageURL

	if err := s.Store.AppendSighting(gameID, sighting); err != nil {
		writeStoreError(w, gameID, err)
		return
	}

	slog.Info("sighting recorded", "game", gameID, "person", req.PersonSpotted)
	writeJSONStatus(w, http.StatusCreated, sighting)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request, gameID string) {
	limit := leaderboard.DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			badRequest(w, "invalid limit %q", l)
			return
		}
		limit = n
	}

	g, err := s.Store.GetGame(gameID)
	if err != nil {
		writeStoreError(w, gameID, err)
		return
	}

	entries := leaderboard.Rank(g.SpottedHistory, limit)
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, map[string]any{
		"game":        g.ID,
		"leaderboard": entries,
	})
}

// handlePredict runs the predictive heatmap pipeline over the game's
// history. Failures degrade to an empty prediction set; the client renders
// its "no prediction" state.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request, gameID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Predictor == nil {
		http.Error(w, "prediction not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Prompt string `json:"prompt,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid json")
			return
		}
	}

	g, err := s.Store.GetGame(gameID)
	if err != nil {
		writeStoreError(w, gameID, err)
		return
	}

	// The request context cancels the generation call and any in-flight
	// geocode lookups when the client goes away.
	set, err := s.Predictor.Predict(r.Context(), g.SpottedHistory, req.Prompt)
	if err != nil {
		slog.Warn("prediction failed", "game", gameID, "error", err)
	}

	bounds, _ := heatmap.BoundsOf(set.Points)
	writeJSON(w, map[string]any{
		"game":        g.ID,
		"outcome":     set.Outcome,
		"predictions": set.Predictions,
		"sentences":   set.Sentences(),
		"points":      set.Points,
		"bounds":      bounds,
	})
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request, gameID string) {
	switch r.Method {
	case http.MethodGet:
		g, err := s.Store.GetGame(gameID)
		if err != nil {
			writeStoreError(w, gameID, err)
			return
		}
		writeJSON(w, map[string]string{"link": g.InviteLink(s.BaseURL)})

	case http.MethodPost:
		var req struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid json")
			return
		}
		if req.Username == "" {
			badRequest(w, "username required")
			return
		}
		if err := s.Store.InviteFriend(gameID, req.Username); err != nil {
			writeStoreError(w, gameID, err)
			return
		}
		slog.Info("friend invited", "game", gameID, "username", req.Username)
		writeJSON(w, map[string]any{"invited": req.Username})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleInviteQR renders the invite link as a QR code PNG.
func (s *Server) handleInviteQR(w http.ResponseWriter, r *http.Request, gameID string) {
	g, err := s.Store.GetGame(gameID)
	if err != nil {
		writeStoreError(w, gameID, err)
		return
	}

	png, err := qrcode.Encode(g.InviteLink(s.BaseURL), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr encode failed", "game", gameID, "error", err)
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

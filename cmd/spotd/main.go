// Command spotd runs the Spot the Op backend: game storage, sighting
// aggregation and the predictive heatmap API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rakhic/spot-the-op/internal/api"
	"github.com/rakhic/spot-the-op/internal/game"
	"github.com/rakhic/spot-the-op/internal/genai"
	"github.com/rakhic/spot-the-op/internal/geocode"
	"github.com/rakhic/spot-the-op/internal/location"
	"github.com/rakhic/spot-the-op/internal/predict"
	"github.com/rakhic/spot-the-op/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Local dev convenience; a missing .env is fine.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env")
	}

	addr := envOr("SPOTD_ADDR", ":8080")
	dbPath := envOr("SPOTD_DB", "data/spottheop.db")
	baseURL := envOr("SPOTD_BASE_URL", "http://localhost:8080")

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := store.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Generative client ─────────────────────────────────────────────
	var genaiOpts []genai.Option
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(model))
	}
	genaiClient := genai.NewClient(os.Getenv("GEMINI_API_KEY"), genaiOpts...)
	if genaiClient.Enabled() {
		slog.Info("generative client enabled")
	} else {
		slog.Warn("GEMINI_API_KEY not set — predictive heatmap disabled")
	}

	// ── Geocoder ──────────────────────────────────────────────────────
	geocoder := geocode.NewClient(os.Getenv("GEOCODER_URL"), "spot-the-op/1.0")

	predictor := &predict.Generator{
		GenAI:    genaiClient,
		Geocoder: geocoder,
	}

	// ── Location provider ─────────────────────────────────────────────
	// Servers have no device location; custom games either carry their own
	// coordinates or fall back to a venue anchor configured here.
	var locProvider location.Provider = location.None{}
	if lat, lng := os.Getenv("SPOTD_VENUE_LAT"), os.Getenv("SPOTD_VENUE_LNG"); lat != "" && lng != "" {
		var coord game.Coordinate
		if _, err := fmt.Sscanf(lat+" "+lng, "%f %f", &coord.Latitude, &coord.Longitude); err == nil {
			locProvider = location.Static{Coord: coord}
			slog.Info("venue anchor configured", "lat", coord.Latitude, "lng", coord.Longitude)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Store:     db,
		Predictor: predictor,
		Location:  locProvider,
		Addr:      addr,
		BaseURL:   baseURL,
	}
	server.Start()

	fmt.Printf("Spot the Op is up: http://localhost%s/api/v1/status\n", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}

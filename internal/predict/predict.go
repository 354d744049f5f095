// Package predict turns a game's sighting history into geocoded predictions
// of where each person is likely to show up next, plus the weighted
// coordinates for the heatmap overlay.
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rakhic/spot-the-op/internal/game"
	"github.com/rakhic/spot-the-op/internal/genai"
	"github.com/rakhic/spot-the-op/internal/geocode"
	"github.com/rakhic/spot-the-op/internal/heatmap"
)

// Prediction is one generated guess of where a person may next be sighted.
// Ephemeral: a new generation replaces the previous set.
type Prediction struct {
	Person    string  `json:"person"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Place     string  `json:"place,omitempty"`
	Sentence  string  `json:"sentence"`
}

// Set is the result of one generation pass.
type Set struct {
	Predictions []Prediction    `json:"predictions"`
	Points      []heatmap.Point `json:"points"`
	Outcome     string          `json:"outcome"` // full, partial, empty
}

// Sentences returns the human-readable prediction lines in stable order.
func (s *Set) Sentences() []string {
	out := make([]string, len(s.Predictions))
	for i, p := range s.Predictions {
		out[i] = p.Sentence
	}
	return out
}

// Generator orchestrates prompt construction, the generation call, response
// parsing and the reverse-geocoding fan-out.
type Generator struct {
	GenAI    *genai.Client
	Geocoder geocode.Resolver
}

// Predict generates a prediction set from the sighting history. A failed or
// unusable generation call returns an error alongside an empty set; a
// parseable response always yields a complete set, with per-coordinate
// geocode failures degrading to a lat/long fallback sentence rather than
// failing the pass.
func (g *Generator) Predict(ctx context.Context, history []game.Sighting, promptPrefix string) (*Set, error) {
	if !g.GenAI.Enabled() {
		return &Set{Outcome: ParseEmpty.String()}, fmt.Errorf("prediction disabled: no generation client")
	}

	prompt := BuildPrompt(history, promptPrefix)
	text, err := g.GenAI.Generate(ctx, prompt)
	if err != nil {
		return &Set{Outcome: ParseEmpty.String()}, fmt.Errorf("generate predictions: %w", err)
	}

	preds, outcome := ParseResponse(text)
	if outcome == ParseEmpty {
		slog.Info("prediction response had no usable lines", "history", len(history))
		return &Set{Outcome: outcome.String()}, nil
	}

	g.resolvePlaces(ctx, preds)

	points := make([]heatmap.Point, len(preds))
	for i, p := range preds {
		// Every predicted coordinate contributes equal intensity.
		points[i] = heatmap.Point{Latitude: p.Latitude, Longitude: p.Longitude, Weight: 1.0}
	}

	return &Set{Predictions: preds, Points: points, Outcome: outcome.String()}, nil
}

// resolvePlaces runs one reverse-geocode lookup per prediction, concurrently,
// and fills in each sentence. Lookups fail independently; the barrier waits
// for all of them so the set is complete when it is returned. Indexed writes
// keep each coordinate bound to its own sentence.
func (g *Generator) resolvePlaces(ctx context.Context, preds []Prediction) {
	var wg sync.WaitGroup
	for i := range preds {
		wg.Add(1)
		go func(p *Prediction) {
			defer wg.Done()

			if g.Geocoder != nil {
				place, err := g.Geocoder.ReverseGeocode(ctx, p.Latitude, p.Longitude)
				if err == nil && place != "" {
					p.Place = place
					p.Sentence = fmt.Sprintf("%s is most likely right now to show up in %s.", p.Person, place)
					return
				}
				slog.Debug("reverse geocode failed, using coordinate fallback",
					"person", p.Person, "lat", p.Latitude, "lng", p.Longitude, "error", err)
			}
			p.Sentence = fmt.Sprintf("%s is most likely right now to show up at your location %v, %v.",
				p.Person, p.Latitude, p.Longitude)
		}(&preds[i])
	}
	wg.Wait()
}

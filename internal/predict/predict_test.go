package predict

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rakhic/spot-the-op/internal/game"
	"github.com/rakhic/spot-the-op/internal/genai"
)

// fakeResolver maps coordinates to canned place names; unknown coordinates
// fail the lookup.
type fakeResolver struct {
	places map[string]string
}

func (f *fakeResolver) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%.4f,%.4f", lat, lng)
	if place, ok := f.places[key]; ok {
		return place, nil
	}
	return "", errors.New("lookup failed")
}

func genaiServer(t *testing.T, responseText string) *genai.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, responseText)
	}))
	t.Cleanup(srv.Close)
	return genai.NewClient("test-key", genai.WithBaseURL(srv.URL))
}

func TestPredict(t *testing.T) {
	response := strings.Join([]string{
		"Alice is most likely right now to show up at your location 37.8719 -122.2585",
		"Bob is most likely right now to show up at your location 34.0689 -118.4452",
		"Alice is most likely right now to show up at your location 40.7128 -74.0060",
	}, "\n")

	gen := &Generator{
		GenAI: genaiServer(t, response),
		Geocoder: &fakeResolver{places: map[string]string{
			"37.8719,-122.2585": "Berkeley",
			"34.0689,-118.4452": "Los Angeles",
			// 40.7128,-74.0060 missing: that lookup fails.
		}},
	}

	history := []game.Sighting{game.NewSighting("Alice", 37.87, -122.25)}
	set, err := gen.Predict(context.Background(), history, "")
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if set.Outcome != "full" {
		t.Errorf("outcome = %q, want full", set.Outcome)
	}
	if len(set.Predictions) != 3 {
		t.Fatalf("got %d predictions, want 3", len(set.Predictions))
	}

	// Sentence order stays bound to parse order; geocode completion order
	// must not reshuffle it.
	sentences := set.Sentences()
	if sentences[0] != "Alice is most likely right now to show up in Berkeley." {
		t.Errorf("sentence[0] = %q", sentences[0])
	}
	if sentences[1] != "Bob is most likely right now to show up in Los Angeles." {
		t.Errorf("sentence[1] = %q", sentences[1])
	}
	// Failed lookup degrades to the coordinate fallback, pass still completes.
	if sentences[2] != "Alice is most likely right now to show up at your location 40.7128, -74.006." {
		t.Errorf("sentence[2] = %q", sentences[2])
	}

	if len(set.Points) != 3 {
		t.Fatalf("got %d heatmap points, want 3", len(set.Points))
	}
	for i, p := range set.Points {
		if p.Weight != 1.0 {
			t.Errorf("point %d weight = %v, want 1.0", i, p.Weight)
		}
	}
}

func TestPredictAllGeocodesFail(t *testing.T) {
	response := "Eve is most likely right now to show up at your location 51.5074 -0.1278"
	gen := &Generator{
		GenAI:    genaiServer(t, response),
		Geocoder: &fakeResolver{},
	}

	set, err := gen.Predict(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(set.Predictions) != 1 {
		t.Fatalf("got %d predictions, want 1", len(set.Predictions))
	}
	want := "Eve is most likely right now to show up at your location 51.5074, -0.1278."
	if got := set.Predictions[0].Sentence; got != want {
		t.Errorf("sentence = %q, want %q", got, want)
	}
}

func TestPredictUnusableResponse(t *testing.T) {
	gen := &Generator{
		GenAI:    genaiServer(t, "I am sorry, I cannot help with that."),
		Geocoder: &fakeResolver{},
	}

	set, err := gen.Predict(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("unusable response must not be an error, got %v", err)
	}
	if set.Outcome != "empty" {
		t.Errorf("outcome = %q, want empty", set.Outcome)
	}
	if len(set.Predictions) != 0 {
		t.Errorf("got %d predictions, want 0", len(set.Predictions))
	}
}

func TestPredictServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gen := &Generator{
		GenAI:    genai.NewClient("test-key", genai.WithBaseURL(srv.URL)),
		Geocoder: &fakeResolver{},
	}

	set, err := gen.Predict(context.Background(), nil, "")
	if err == nil {
		t.Fatal("expected error from failed service call")
	}
	if set == nil || len(set.Predictions) != 0 {
		t.Error("failed call must still return an empty set")
	}
}

func TestPredictDisabledClient(t *testing.T) {
	gen := &Generator{GenAI: nil, Geocoder: &fakeResolver{}}
	set, err := gen.Predict(context.Background(), nil, "")
	if err == nil {
		t.Fatal("expected error from disabled client")
	}
	if set == nil {
		t.Fatal("expected empty set, got nil")
	}
}

func TestPredictCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	gen := &Generator{
		GenAI:    genai.NewClient("test-key", genai.WithBaseURL(srv.URL)),
		Geocoder: &fakeResolver{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gen.Predict(ctx, nil, ""); err == nil {
		t.Error("expected error after cancellation")
	}
}

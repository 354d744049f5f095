// Package geocode resolves coordinates to place names through a
// Nominatim-compatible reverse geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"

	// Geocoding is cheap; fail fast and let the caller fall back to a
	// coordinate sentence.
	lookupTimeout = 10 * time.Second
)

// ErrNoLocality is returned when the geocoder answers but names no usable
// locality for the coordinate (open ocean, wilderness).
var ErrNoLocality = errors.New("geocode: no locality for coordinate")

// Resolver turns a coordinate into a locality name.
// The prediction generator accepts any implementation.
type Resolver interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// Client is a Resolver backed by a Nominatim-style /reverse endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a reverse geocoding client. baseURL may be empty to use
// the public Nominatim instance; userAgent identifies the app as that
// instance's usage policy requires.
func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = "spot-the-op"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: lookupTimeout,
		},
	}
}

// reverseResponse is the subset of the jsonv2 response we read. Nominatim
// fills whichever locality fields apply, from city down to hamlet.
type reverseResponse struct {
	Address struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Hamlet       string `json:"hamlet"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
		State        string `json:"state"`
	} `json:"address"`
	Error string `json:"error"`
}

// ReverseGeocode returns the locality name for a coordinate, preferring the
// most specific populated place the geocoder reports.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoder error %d: %s", resp.StatusCode, string(body))
	}

	var rr reverseResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if rr.Error != "" {
		return "", fmt.Errorf("geocoder: %s", rr.Error)
	}

	for _, name := range []string{
		rr.Address.City, rr.Address.Town, rr.Address.Village,
		rr.Address.Hamlet, rr.Address.Municipality, rr.Address.County,
		rr.Address.State,
	} {
		if name != "" {
			return name, nil
		}
	}
	return "", ErrNoLocality
}

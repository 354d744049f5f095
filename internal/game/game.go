// Package game defines the core Spot the Op data model: games anchored to a
// map region and the append-only sighting history recorded inside them.
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mode selects the anchor coordinate for a new game.
type Mode string

const (
	ModeSpotMyEx Mode = "spot-my-ex" // preset: New York City
	ModeSpotMyOp Mode = "spot-my-op" // preset: Los Angeles
	ModeCustom   Mode = "custom"     // anchor comes from the player's location
)

// Valid reports whether m is one of the known game modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeSpotMyEx, ModeSpotMyOp, ModeCustom:
		return true
	}
	return false
}

// Coordinate is a WGS 84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PresetAnchor returns the fixed anchor coordinate for a preset mode.
// Custom games have no preset; ok is false.
func PresetAnchor(m Mode) (Coordinate, bool) {
	switch m {
	case ModeSpotMyEx:
		return Coordinate{Latitude: 40.7128, Longitude: -74.0060}, true
	case ModeSpotMyOp:
		return Coordinate{Latitude: 34.0522, Longitude: -118.2437}, true
	}
	return Coordinate{}, false
}

// Sighting is one recorded observation of a named person at a place and time.
// Sightings are immutable once created and are only ever appended to a game's
// history, never edited or deleted.
type Sighting struct {
	ID        string    `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`

	// PersonSpotted is a free-text label. The same person may be entered
	// inconsistently ("alice" vs "Alice"); no canonicalization is applied
	// anywhere, so those count as distinct people on the leaderboard.
	PersonSpotted string `json:"personSpotted"`

	// ImageURL is an opaque reference to an uploaded photo. Aggregation and
	// prediction never interpret it.
	ImageURL string `json:"imageData,omitempty"`
}

// NewSighting captures a sighting of person at the given coordinate, stamped
// with the current clock.
func NewSighting(person string, lat, lng float64) Sighting {
	return Sighting{
		ID:            uuid.NewString(),
		Latitude:      lat,
		Longitude:     lng,
		Timestamp:     time.Now().UTC(),
		PersonSpotted: person,
	}
}

// Game is a bounded collection of sightings anchored to a map region.
type Game struct {
	ID             string     `json:"id"`
	Name           string     `json:"gameName"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Mode           Mode       `json:"mode,omitempty"`
	InvitedFriends []string   `json:"invitedFriends"`
	SpottedHistory []Sighting `json:"spottedHistory"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// New creates a game with a fresh id and an empty sighting history.
func New(name string, mode Mode, anchor Coordinate) *Game {
	return &Game{
		ID:        uuid.NewString(),
		Name:      name,
		Latitude:  anchor.Latitude,
		Longitude: anchor.Longitude,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
	}
}

// LastSighting returns the most recent sighting, relying on the history
// being append-only in chronological order. ok is false for an empty game.
func (g *Game) LastSighting() (Sighting, bool) {
	if len(g.SpottedHistory) == 0 {
		return Sighting{}, false
	}
	return g.SpottedHistory[len(g.SpottedHistory)-1], true
}

// InviteLink builds the shareable join URL for this game. The token lets the
// join page distinguish independently generated links; it carries no
// authority on its own.
func (g *Game) InviteLink(baseURL string) string {
	return fmt.Sprintf("%s/join?gameId=%s&token=%s", baseURL, g.ID, uuid.NewString())
}

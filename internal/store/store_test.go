package store

import (
	"errors"
	"testing"
	"time"

	"github.com/rakhic/spot-the-op/internal/game"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return db
}

func TestCreateAndGetGame(t *testing.T) {
	db := openTestDB(t)

	anchor, _ := game.PresetAnchor(game.ModeSpotMyEx)
	g := game.New("UC Berkeley", game.ModeSpotMyEx, anchor)
	g.InvitedFriends = []string{"sam", "riley"}

	if err := db.CreateGame(g); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	got, err := db.GetGame(g.ID)
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	if got.Name != "UC Berkeley" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Mode != game.ModeSpotMyEx {
		t.Errorf("mode = %q", got.Mode)
	}
	if got.Latitude != 40.7128 || got.Longitude != -74.0060 {
		t.Errorf("anchor = (%v, %v)", got.Latitude, got.Longitude)
	}
	if len(got.InvitedFriends) != 2 {
		t.Errorf("invited friends = %v", got.InvitedFriends)
	}
	if len(got.SpottedHistory) != 0 {
		t.Errorf("fresh game has %d sightings", len(got.SpottedHistory))
	}
}

func TestGetGameNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetGame("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAppendSighting(t *testing.T) {
	db := openTestDB(t)

	g := game.New("Test", game.ModeCustom, game.Coordinate{Latitude: 37.87, Longitude: -122.25})
	if err := db.CreateGame(g); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	first := game.NewSighting("Alice", 37.8719, -122.2585)
	second := game.NewSighting("Bob", 37.8721, -122.2590)
	for _, s := range []game.Sighting{first, second} {
		if err := db.AppendSighting(g.ID, s); err != nil {
			t.Fatalf("AppendSighting() error = %v", err)
		}
	}

	got, err := db.GetGame(g.ID)
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	if len(got.SpottedHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(got.SpottedHistory))
	}
	// Append order is chronological order.
	if got.SpottedHistory[0].PersonSpotted != "Alice" || got.SpottedHistory[1].PersonSpotted != "Bob" {
		t.Errorf("history order = [%s, %s]",
			got.SpottedHistory[0].PersonSpotted, got.SpottedHistory[1].PersonSpotted)
	}
	if got.SpottedHistory[0].ID != first.ID {
		t.Errorf("sighting id = %q, want %q", got.SpottedHistory[0].ID, first.ID)
	}
	if !got.SpottedHistory[0].Timestamp.Equal(first.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.SpottedHistory[0].Timestamp, first.Timestamp)
	}
}

func TestAppendSightingMissingGame(t *testing.T) {
	db := openTestDB(t)
	err := db.AppendSighting("missing", game.NewSighting("Alice", 0, 0))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestInviteFriend(t *testing.T) {
	db := openTestDB(t)

	g := game.New("Test", game.ModeSpotMyOp, game.Coordinate{})
	if err := db.CreateGame(g); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	for _, u := range []string{"sam", "sam"} {
		if err := db.InviteFriend(g.ID, u); err != nil {
			t.Fatalf("InviteFriend() error = %v", err)
		}
	}

	got, err := db.GetGame(g.ID)
	if err != nil {
		t.Fatalf("GetGame() error = %v", err)
	}
	// Duplicates are kept as-is.
	if len(got.InvitedFriends) != 2 {
		t.Errorf("invited friends = %v, want two entries", got.InvitedFriends)
	}

	if err := db.InviteFriend("missing", "sam"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListGames(t *testing.T) {
	db := openTestDB(t)

	a := game.New("First", game.ModeSpotMyEx, game.Coordinate{})
	a.CreatedAt = time.Date(2024, 10, 19, 0, 0, 0, 0, time.UTC)
	b := game.New("Second", game.ModeSpotMyOp, game.Coordinate{})
	b.CreatedAt = time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)

	for _, g := range []*game.Game{b, a} {
		if err := db.CreateGame(g); err != nil {
			t.Fatalf("CreateGame() error = %v", err)
		}
	}

	games, err := db.ListGames()
	if err != nil {
		t.Fatalf("ListGames() error = %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("got %d games, want 2", len(games))
	}
	if games[0].Name != "First" || games[1].Name != "Second" {
		t.Errorf("order = [%s, %s], want creation order", games[0].Name, games[1].Name)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetMeta("schema_version")
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if v != schemaVersion {
		t.Errorf("schema_version = %q, want %q", v, schemaVersion)
	}

	if err := db.SaveMeta("k", "v1"); err != nil {
		t.Fatalf("SaveMeta() error = %v", err)
	}
	if err := db.SaveMeta("k", "v2"); err != nil {
		t.Fatalf("SaveMeta() overwrite error = %v", err)
	}
	if v, _ := db.GetMeta("k"); v != "v2" {
		t.Errorf("meta k = %q, want v2", v)
	}
}

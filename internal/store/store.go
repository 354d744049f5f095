// Package store provides SQLite-backed storage for games and their sighting
// histories. Games are stored as documents: scalar columns for the anchor
// fields and JSON columns for the nested arrays, with appends performed as
// atomic array-level updates on the document row.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/rakhic/spot-the-op/internal/game"
)

const schemaVersion = "1"

// ErrNotFound is returned when no game exists with the requested id.
var ErrNotFound = errors.New("store: game not found")

// DB wraps a SQLite connection holding the games collection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. ":memory:"
// opens an in-memory database pinned to a single connection so every query
// sees the same schema.
func Open(path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		mode TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		invited_json TEXT NOT NULL DEFAULT '[]',
		sightings_json TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return db.SaveMeta("schema_version", schemaVersion)
}

// gameRow is the flat table shape of a game document.
type gameRow struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	Latitude      float64 `db:"latitude"`
	Longitude     float64 `db:"longitude"`
	Mode          string  `db:"mode"`
	CreatedAt     string  `db:"created_at"`
	InvitedJSON   string  `db:"invited_json"`
	SightingsJSON string  `db:"sightings_json"`
}

func (r *gameRow) toGame() (*game.Game, error) {
	g := &game.Game{
		ID:        r.ID,
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Mode:      game.Mode(r.Mode),
	}
	if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
		g.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(r.InvitedJSON), &g.InvitedFriends); err != nil {
		return nil, fmt.Errorf("unmarshal invited friends: %w", err)
	}
	if err := json.Unmarshal([]byte(r.SightingsJSON), &g.SpottedHistory); err != nil {
		return nil, fmt.Errorf("unmarshal sighting history: %w", err)
	}
	return g, nil
}

// CreateGame inserts a new game document.
func (db *DB) CreateGame(g *game.Game) error {
	invitedJSON, err := json.Marshal(emptyIfNil(g.InvitedFriends))
	if err != nil {
		return fmt.Errorf("marshal invited friends: %w", err)
	}
	sightingsJSON, err := json.Marshal(g.SpottedHistory)
	if err != nil {
		return fmt.Errorf("marshal sighting history: %w", err)
	}
	if g.SpottedHistory == nil {
		sightingsJSON = []byte("[]")
	}

	_, err = db.conn.Exec(`INSERT INTO games
		(id, name, latitude, longitude, mode, created_at, invited_json, sightings_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Latitude, g.Longitude, string(g.Mode),
		g.CreatedAt.Format(time.RFC3339Nano), string(invitedJSON), string(sightingsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	return nil
}

// GetGame returns a point-in-time read of one game document. Callers hold
// the snapshot only for the current view pass; a sighting appended after
// this read appears on the next fetch.
func (db *DB) GetGame(id string) (*game.Game, error) {
	var row gameRow
	err := db.conn.Get(&row, "SELECT * FROM games WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}
	return row.toGame()
}

// ListGames returns all game documents in creation order.
func (db *DB) ListGames() ([]*game.Game, error) {
	var rows []gameRow
	if err := db.conn.Select(&rows, "SELECT * FROM games ORDER BY created_at"); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	games := make([]*game.Game, 0, len(rows))
	for i := range rows {
		g, err := rows[i].toGame()
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

// AppendSighting appends one sighting to the game's history as a single
// array-level update on the document row. There is no read-modify-write and
// no concurrency check: concurrent appends from other clients interleave at
// the array level, which is the store's contract.
func (db *DB) AppendSighting(gameID string, s game.Sighting) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal sighting: %w", err)
	}

	res, err := db.conn.Exec(
		`UPDATE games SET sightings_json = json_insert(sightings_json, '$[#]', json(?)) WHERE id = ?`,
		string(doc), gameID,
	)
	if err != nil {
		return fmt.Errorf("append sighting to %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InviteFriend appends a username to the game's invited list. Duplicates are
// kept; the list is informational, not a membership set.
func (db *DB) InviteFriend(gameID, username string) error {
	res, err := db.conn.Exec(
		`UPDATE games SET invited_json = json_insert(invited_json, '$[#]', ?) WHERE id = ?`,
		username, gameID,
	)
	if err != nil {
		return fmt.Errorf("invite friend to %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveMeta stores a key-value pair in store metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

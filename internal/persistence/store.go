// Package persistence provides SQLite-backed game snapshot storage. Games
// are stored whole as JSON snapshots keyed by ID; the session layer decides
// when to write and what to restore.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexdice/internal/game"
)

// ErrNotFound is returned for lookups of keys with no stored value.
var ErrNotFound = errors.New("not found")

// Store wraps a SQLite connection for game snapshot persistence.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		players INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveGame upserts the full snapshot of one game.
func (s *Store) SaveGame(g *game.Game) error {
	snapshot, err := g.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot game %s: %w", g.ID, err)
	}

	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO games (id, status, players, snapshot, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		g.ID.String(), int(g.Status), len(g.Players), string(snapshot), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

// LoadUnfinished returns the snapshots of every game that has not finished.
func (s *Store) LoadUnfinished() ([][]byte, error) {
	var rows []string
	err := s.conn.Select(&rows,
		"SELECT snapshot FROM games WHERE status != ? ORDER BY updated_at",
		int(game.StatusFinished),
	)
	if err != nil {
		return nil, fmt.Errorf("load unfinished games: %w", err)
	}

	snapshots := make([][]byte, len(rows))
	for i, row := range rows {
		snapshots[i] = []byte(row)
	}
	return snapshots, nil
}

// DeleteGame removes a stored game.
func (s *Store) DeleteGame(id uuid.UUID) error {
	_, err := s.conn.Exec("DELETE FROM games WHERE id = ?", id.String())
	return err
}

// GameCount returns how many games are stored.
func (s *Store) GameCount() (int, error) {
	var n int
	err := s.conn.Get(&n, "SELECT COUNT(*) FROM games")
	return n, err
}

// SaveMeta stores a key-value pair in server metadata.
func (s *Store) SaveMeta(key, value string) error {
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Package history records saved lyric files in sqlite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// logger follows the global logger configured at startup.
func logger() *zerolog.Logger {
	l := log.With().Str("component", "history").Logger()
	return &l
}

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS saved_lrc (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		song TEXT NOT NULL,
		destination TEXT NOT NULL,
		lines INTEGER NOT NULL,
		timed INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_saved_lrc_saved_at ON saved_lrc(saved_at);
	`

// Entry is one saved lyric file.
type Entry struct {
	ID          string
	SessionID   string
	Song        string
	Destination string
	Lines       int
	Timed       int
	SavedAt     time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create saved_lrc table: %w", err)
	}
	logger().Info().Str("path", path).Msg("History database opened")
	return &Store{db: db}, nil
}

// Record stores e. Missing ID and SavedAt are filled in.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_lrc (id, session_id, song, destination, lines, timed, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Song, e.Destination, e.Lines, e.Timed, e.SavedAt.UnixNano())
	if err != nil {
		return e, fmt.Errorf("failed to record save of %s: %w", e.Song, err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, song, destination, lines, timed, saved_at
		FROM saved_lrc ORDER BY saved_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var savedAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Song, &e.Destination, &e.Lines, &e.Timed, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.SavedAt = time.Unix(0, savedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

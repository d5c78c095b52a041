// Package storage persists matches, commentary, teams and players in
// SQLite. Matches are kept as a JSON document plus indexed columns so
// the scoring engine state round-trips without a column per field.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thunderavi/scoreboard/internal/engine"
)

const timeFormat = time.RFC3339Nano

// ErrNotFound is returned when a row does not exist or is not visible
// to the caller.
var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	status     TEXT NOT NULL,
	doc        TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_owner ON matches(owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS commentary (
	id             TEXT PRIMARY KEY,
	match_id       TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
	event_type     TEXT NOT NULL,
	priority       TEXT NOT NULL,
	text           TEXT NOT NULL,
	ai_generated   INTEGER NOT NULL DEFAULT 0,
	audio_url      TEXT NOT NULL DEFAULT '',
	audio_duration REAL NOT NULL DEFAULT 0,
	innings        INTEGER NOT NULL DEFAULT 0,
	over_number    TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_commentary_match ON commentary(match_id, created_at DESC);

CREATE TABLE IF NOT EXISTS teams (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_teams_owner ON teams(owner_id);

CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	team_id    TEXT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id);
`

// CreateMatch inserts a new match document.
func (s *Store) CreateMatch(ctx context.Context, m *engine.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil || m.ID == "" {
		return fmt.Errorf("match with id is required")
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match doc: %w", err)
	}
	now := time.Now().UTC().Format(timeFormat)
	_, err = s.db.ExecContext(ctx, `INSERT INTO matches (id, owner_id, status, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.OwnerID, string(m.Status), string(doc), m.CreatedAt.UTC().Format(timeFormat), now)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// GetMatch loads a match scoped to its owner. A match owned by someone
// else reads as ErrNotFound.
func (s *Store) GetMatch(ctx context.Context, id, ownerID string) (*engine.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("match id is required")
	}

	var doc, owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc, owner_id FROM matches WHERE id = ? AND owner_id = ?`, id, ownerID).
		Scan(&doc, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query match: %w", err)
	}
	return decodeMatch(doc, owner)
}

// GetMatchAny loads a match regardless of owner. The live feed is
// public; ownership only gates mutations.
func (s *Store) GetMatchAny(ctx context.Context, id string) (*engine.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("match id is required")
	}

	var doc, owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc, owner_id FROM matches WHERE id = ?`, id).
		Scan(&doc, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query match: %w", err)
	}
	return decodeMatch(doc, owner)
}

// ListMatches returns the caller's matches, newest first, optionally
// filtered by status.
func (s *Store) ListMatches(ctx context.Context, ownerID string, status engine.Status, limit int) ([]*engine.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT doc, owner_id FROM matches WHERE owner_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []*engine.Match
	for rows.Next() {
		var doc, owner string
		if err := rows.Scan(&doc, &owner); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m, err := decodeMatch(doc, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveMatch overwrites the match document and its indexed columns,
// owner-scoped.
func (s *Store) SaveMatch(ctx context.Context, m *engine.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil || m.ID == "" {
		return fmt.Errorf("match with id is required")
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match doc: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE matches SET status = ?, doc = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		string(m.Status), string(doc), time.Now().UTC().Format(timeFormat), m.ID, m.OwnerID)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeMatch(doc, ownerID string) (*engine.Match, error) {
	var m engine.Match
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, fmt.Errorf("decode match doc: %w", err)
	}
	// OwnerID never serializes into the document; restore it from the
	// indexed column.
	m.OwnerID = ownerID
	return &m, nil
}

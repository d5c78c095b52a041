package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Team is a named roster container scoped to its creator.
type Team struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// Player is one roster entry.
type Player struct {
	ID        string
	TeamID    string
	Name      string
	Role      string
	CreatedAt time.Time
}

// CreateTeam inserts a team.
func (s *Store) CreateTeam(ctx context.Context, t Team) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.ID == "" || t.Name == "" {
		return fmt.Errorf("team id and name are required")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Name, t.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

// GetTeam loads a team by id.
func (s *Store) GetTeam(ctx context.Context, id string) (Team, error) {
	if err := ctx.Err(); err != nil {
		return Team{}, err
	}
	if id == "" {
		return Team{}, fmt.Errorf("team id is required")
	}

	var t Team
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.OwnerID, &t.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Team{}, ErrNotFound
	}
	if err != nil {
		return Team{}, fmt.Errorf("query team: %w", err)
	}
	if ts, err := time.Parse(timeFormat, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

// ListTeams returns the caller's teams.
func (s *Store) ListTeams(ctx context.Context, ownerID string) ([]Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at FROM teams WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	var out []Team
	for rows.Next() {
		var t Team
		var createdAt string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		if ts, err := time.Parse(timeFormat, createdAt); err == nil {
			t.CreatedAt = ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AddPlayer appends a player to a team roster.
func (s *Store) AddPlayer(ctx context.Context, p Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" || p.TeamID == "" || p.Name == "" {
		return fmt.Errorf("player id, team id and name are required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, team_id, name, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.TeamID, p.Name, p.Role, p.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

// ListPlayers returns a team's roster in insertion order.
func (s *Store) ListPlayers(ctx context.Context, teamID string) ([]Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if teamID == "" {
		return nil, fmt.Errorf("team id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, team_id, name, role, created_at FROM players WHERE team_id = ? ORDER BY created_at ASC, id ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		var createdAt string
		if err := rows.Scan(&p.ID, &p.TeamID, &p.Name, &p.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		if ts, err := time.Parse(timeFormat, createdAt); err == nil {
			p.CreatedAt = ts
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPlayer loads a single roster entry.
func (s *Store) GetPlayer(ctx context.Context, id string) (Player, error) {
	if err := ctx.Err(); err != nil {
		return Player{}, err
	}
	if id == "" {
		return Player{}, fmt.Errorf("player id is required")
	}

	var p Player
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, team_id, name, role, created_at FROM players WHERE id = ?`, id).
		Scan(&p.ID, &p.TeamID, &p.Name, &p.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, fmt.Errorf("query player: %w", err)
	}
	if ts, err := time.Parse(timeFormat, createdAt); err == nil {
		p.CreatedAt = ts
	}
	return p, nil
}

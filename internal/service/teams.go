package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thunderavi/scoreboard/internal/engine"
	"github.com/thunderavi/scoreboard/internal/storage"
)

// CreateTeam persists a roster container for the acting user.
func (s *Service) CreateTeam(ctx context.Context, team storage.Team) error {
	if team.OwnerID == "" {
		return fmt.Errorf("%w: acting user is required", engine.ErrValidation)
	}
	if team.Name == "" {
		return fmt.Errorf("%w: team name is required", engine.ErrValidation)
	}
	return s.store.CreateTeam(ctx, team)
}

// ListTeams returns the caller's teams.
func (s *Service) ListTeams(ctx context.Context, actorID string) ([]storage.Team, error) {
	return s.store.ListTeams(ctx, actorID)
}

// AddPlayer appends to a roster the caller owns. A foreign team reads
// as not found.
func (s *Service) AddPlayer(ctx context.Context, actorID string, p storage.Player) error {
	team, err := s.store.GetTeam(ctx, p.TeamID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if team.OwnerID != actorID {
		return ErrNotFound
	}
	return s.store.AddPlayer(ctx, p)
}

// ListPlayers returns a team roster. Rosters are public like the feed.
func (s *Service) ListPlayers(ctx context.Context, teamID string) ([]storage.Player, error) {
	return s.store.ListPlayers(ctx, teamID)
}

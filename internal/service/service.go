// Package service orchestrates scoring: it serializes mutations per
// match, persists engine state, and fans results out to subscribers
// with commentary generated off the request path.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thunderavi/scoreboard/api/feed"
	"github.com/thunderavi/scoreboard/internal/commentary"
	"github.com/thunderavi/scoreboard/internal/engine"
	"github.com/thunderavi/scoreboard/internal/hub"
	"github.com/thunderavi/scoreboard/internal/storage"
)

// ErrNotFound covers both a missing record and one owned by someone
// else; callers cannot tell the two apart.
var ErrNotFound = errors.New("not found")

const backgroundTimeout = 30 * time.Second

// Service is the scoring orchestrator.
type Service struct {
	store  *storage.Store
	hub    *hub.Hub
	gen    *commentary.Generator
	synth  commentary.AudioSynthesizer
	logger *slog.Logger
	now    func() time.Time

	// Per-match mutexes serialize read-mutate-persist so concurrent
	// scorers cannot drop each other's deliveries.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	wg sync.WaitGroup
}

// Option customizes a Service.
type Option func(*Service)

// WithSynthesizer attaches optional audio synthesis.
func WithSynthesizer(synth commentary.AudioSynthesizer) Option {
	return func(s *Service) { s.synth = synth }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires the orchestrator.
func New(store *storage.Store, h *hub.Hub, gen *commentary.Generator, logger *slog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if h == nil {
		return nil, fmt.Errorf("hub is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		hub:    h,
		gen:    gen,
		logger: logger,
		now:    time.Now,
		locks:  map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Wait blocks until every background pipeline task finishes. Called on
// shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) lockMatch(matchID string) func() {
	s.lockMu.Lock()
	l, ok := s.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[matchID] = l
	}
	s.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}

// spawn runs a pipeline task detached from the request, with panic
// containment and its own deadline.
func (s *Service) spawn(task string, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("background task panicked", "task", task, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// CreateMatchParams carries the match-creation request.
type CreateMatchParams struct {
	Team1ID    string
	Team2ID    string
	TossWinner string
	TossCall   string
	TossChoice string
	TotalOvers int
}

// CreateMatch validates the toss, derives who bats first, and persists
// a fresh match owned by the caller.
func (s *Service) CreateMatch(ctx context.Context, ownerID string, p CreateMatchParams) (*engine.Match, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: acting user is required", engine.ErrValidation)
	}
	if p.TossWinner != p.Team1ID && p.TossWinner != p.Team2ID {
		return nil, fmt.Errorf("%w: toss winner must be one of the two teams", engine.ErrValidation)
	}
	choice := strings.ToLower(p.TossChoice)
	if choice != "batting" && choice != "bowling" {
		return nil, fmt.Errorf("%w: toss choice must be batting or bowling", engine.ErrValidation)
	}

	battingFirst := p.TossWinner
	if choice == "bowling" {
		battingFirst = p.Team1ID
		if p.TossWinner == p.Team1ID {
			battingFirst = p.Team2ID
		}
	}
	fieldingFirst := p.Team1ID
	if battingFirst == p.Team1ID {
		fieldingFirst = p.Team2ID
	}

	toss := engine.Toss{WinnerID: p.TossWinner, Call: p.TossCall, Choice: choice}
	m, err := engine.NewMatch(uuid.NewString(), p.Team1ID, p.Team2ID, toss,
		battingFirst, fieldingFirst, p.TotalOvers, ownerID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}

	s.logger.Info("match created", "match_id", m.ID, "team1", p.Team1ID, "team2", p.Team2ID,
		"batting_first", battingFirst, "total_overs", m.TotalOvers)
	return m, nil
}

// GetMatch loads a match for its owner.
func (s *Service) GetMatch(ctx context.Context, actorID, matchID string) (*engine.Match, error) {
	m, err := s.store.GetMatch(ctx, matchID, actorID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return m, err
}

// GetMatchPublic loads a match for the read-only feed surfaces.
func (s *Service) GetMatchPublic(ctx context.Context, matchID string) (*engine.Match, error) {
	m, err := s.store.GetMatchAny(ctx, matchID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return m, err
}

// ListMatches returns the caller's matches.
func (s *Service) ListMatches(ctx context.Context, actorID string, status engine.Status, limit int) ([]*engine.Match, error) {
	return s.store.ListMatches(ctx, actorID, status, limit)
}

// Commentary returns a match's commentary history, newest first.
func (s *Service) Commentary(ctx context.Context, matchID string, eventType feed.EventType, limit int) ([]storage.CommentaryRecord, error) {
	if _, err := s.GetMatchPublic(ctx, matchID); err != nil {
		return nil, err
	}
	return s.store.ListCommentary(ctx, matchID, eventType, limit)
}

// teamNames resolves display names for both teams, falling back to the
// raw identifiers when no roster record exists.
func (s *Service) teamNames(ctx context.Context, m *engine.Match) (team1, team2 string) {
	team1, team2 = m.Team1ID, m.Team2ID
	if t, err := s.store.GetTeam(ctx, m.Team1ID); err == nil {
		team1 = t.Name
	}
	if t, err := s.store.GetTeam(ctx, m.Team2ID); err == nil {
		team2 = t.Name
	}
	return team1, team2
}

func (s *Service) battingTeamName(ctx context.Context, m *engine.Match) (batting, bowling string) {
	team1, team2 := s.teamNames(ctx, m)
	if m.BattingTeamID() == m.Team1ID {
		return team1, team2
	}
	return team2, team1
}

// rosterSize counts the batting side's roster; zero disables the
// roster-exhausted advisory.
func (s *Service) rosterSize(ctx context.Context, m *engine.Match) int {
	players, err := s.store.ListPlayers(ctx, m.BattingTeamID())
	if err != nil {
		return 0
	}
	return len(players)
}

// Package engine owns the match scoring state machine: innings records,
// scoring mutations, derived statistics, and end-of-innings decisions.
// It has no knowledge of transports, storage, or the acting user.
package engine

import (
	"fmt"
	"math"
	"time"
)

// Status is the match lifecycle state. Transitions are forward-only.
type Status string

const (
	StatusSetup     Status = "setup"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

// ExtraKind enumerates deliveries not scored off the bat.
type ExtraKind string

const (
	ExtraWide   ExtraKind = "wide"
	ExtraNoBall ExtraKind = "noball"
	ExtraBye    ExtraKind = "bye"
	ExtraLegBye ExtraKind = "legbye"
)

// Validate rejects unknown extra kinds.
func (k ExtraKind) Validate() error {
	switch k {
	case ExtraWide, ExtraNoBall, ExtraBye, ExtraLegBye:
		return nil
	default:
		return fmt.Errorf("%w: extra type %q", ErrValidation, k)
	}
}

// WicketMarker is the delivery-window entry recorded for a dismissal.
const WicketMarker = "W"

// currentOverWindow caps the trailing delivery display list. The window
// slides over the last six deliveries and is not reset at true over
// boundaries, so after extras it can straddle two overs.
const currentOverWindow = 6

// BatterStats is one batter's live tally for an innings.
type BatterStats struct {
	Runs  int `json:"runs"`
	Balls int `json:"balls"`
	Fours int `json:"fours"`
	Sixes int `json:"sixes"`
}

// Batter is the striker currently at the crease.
type Batter struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Stats BatterStats `json:"stats"`
}

// CompletedBatter is a dismissed batter with final stats.
type CompletedBatter struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Stats     BatterStats `json:"stats"`
	Dismissal string      `json:"dismissal"`
	Fielder   string      `json:"fielder,omitempty"`
}

// Extras is the per-innings extras breakdown.
type Extras struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"noBalls"`
	Byes    int `json:"byes"`
	LegByes int `json:"legByes"`
	Total   int `json:"total"`
}

// Score is one innings record. Overs and RunRate are derived from Balls
// and Runs and recomputed on every mutation, never stored independently.
type Score struct {
	Innings       int    `json:"innings"`
	BattingTeamID string `json:"battingTeamId"`

	Runs    int `json:"runs"`
	Wickets int `json:"wickets"`
	Balls   int `json:"balls"`
	Fours   int `json:"fours"`
	Sixes   int `json:"sixes"`

	Overs   string  `json:"overs"`
	RunRate float64 `json:"runRate"`

	CurrentOver []string `json:"currentOver"`
	Extras      Extras   `json:"extras"`

	// Chase fields, innings 2 only. Target is set exactly once when the
	// second innings begins; zero means not chasing.
	Target         int `json:"target,omitempty"`
	RunsNeeded     int `json:"runsNeeded,omitempty"`
	BallsRemaining int `json:"ballsRemaining,omitempty"`

	CurrentBatter    *Batter           `json:"currentBatter,omitempty"`
	CompletedBatters []CompletedBatter `json:"completedBatters"`
}

// Toss records the pre-match coin toss outcome.
type Toss struct {
	WinnerID string `json:"winnerId"`
	Call     string `json:"call"`
	Choice   string `json:"choice"`
}

// Match is one two-innings limited-overs match. Scores always holds
// exactly two records: index 0 is innings 1, index 1 is innings 2.
type Match struct {
	ID string `json:"id"`

	Team1ID string `json:"team1Id"`
	Team2ID string `json:"team2Id"`

	Toss            Toss   `json:"toss"`
	BattingFirstID  string `json:"battingFirstId"`
	FieldingFirstID string `json:"fieldingFirstId"`

	OwnerID string `json:"-"`

	Status         Status `json:"status"`
	CurrentInnings int    `json:"currentInnings"`
	TotalOvers     int    `json:"totalOvers"`

	ResultText string `json:"resultText,omitempty"`
	WinnerID   string `json:"winnerId,omitempty"`

	Scores [2]Score `json:"scores"`

	CreatedAt   time.Time `json:"createdAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// NewMatch builds a match in setup state with two zeroed innings records.
func NewMatch(id string, team1ID, team2ID string, toss Toss, battingFirstID, fieldingFirstID string, totalOvers int, ownerID string, now time.Time) (*Match, error) {
	if id == "" || team1ID == "" || team2ID == "" {
		return nil, fmt.Errorf("%w: match, team1, and team2 ids are required", ErrValidation)
	}
	if battingFirstID == "" || fieldingFirstID == "" {
		return nil, fmt.Errorf("%w: batting-first and fielding-first ids are required", ErrValidation)
	}
	if battingFirstID != team1ID && battingFirstID != team2ID {
		return nil, fmt.Errorf("%w: batting-first team is not playing this match", ErrValidation)
	}
	if totalOvers <= 0 {
		totalOvers = 20
	}
	return &Match{
		ID:              id,
		Team1ID:         team1ID,
		Team2ID:         team2ID,
		Toss:            toss,
		BattingFirstID:  battingFirstID,
		FieldingFirstID: fieldingFirstID,
		OwnerID:         ownerID,
		Status:          StatusSetup,
		CurrentInnings:  1,
		TotalOvers:      totalOvers,
		Scores: [2]Score{
			newScore(1, battingFirstID),
			newScore(2, fieldingFirstID),
		},
		CreatedAt: now.UTC(),
	}, nil
}

func newScore(innings int, battingTeamID string) Score {
	return Score{
		Innings:          innings,
		BattingTeamID:    battingTeamID,
		Overs:            "0.0",
		CurrentOver:      []string{},
		CompletedBatters: []CompletedBatter{},
	}
}

// OversString renders balls bowled as "completedOvers.ballsInOver".
func OversString(balls int) string {
	return fmt.Sprintf("%d.%d", balls/6, balls%6)
}

// RunRateFor computes runs per over to two decimals; zero before the
// first legal delivery.
func RunRateFor(runs, balls int) float64 {
	if balls == 0 {
		return 0
	}
	return math.Round(float64(runs)/float64(balls)*6*100) / 100
}

// BallsLimit is the legal-delivery cap for one innings.
func (m *Match) BallsLimit() int {
	return m.TotalOvers * 6
}

// ActiveScore returns the innings record currently being batted.
func (m *Match) ActiveScore() (*Score, error) {
	switch m.CurrentInnings {
	case 1:
		return &m.Scores[0], nil
	case 2:
		return &m.Scores[1], nil
	default:
		return nil, fmt.Errorf("%w: current innings %d out of range", ErrInvariant, m.CurrentInnings)
	}
}

// BattingTeamID returns the side batting in the active innings.
func (m *Match) BattingTeamID() string {
	if m.CurrentInnings == 2 {
		return m.FieldingFirstID
	}
	return m.BattingFirstID
}

// BowlingTeamID returns the side fielding in the active innings.
func (m *Match) BowlingTeamID() string {
	if m.CurrentInnings == 2 {
		return m.BattingFirstID
	}
	return m.FieldingFirstID
}

func (s *Score) recompute(m *Match) {
	s.Overs = OversString(s.Balls)
	s.RunRate = RunRateFor(s.Runs, s.Balls)
	if s.Innings == 2 && s.Target > 0 {
		s.RunsNeeded = s.Target - s.Runs
		s.BallsRemaining = m.BallsLimit() - s.Balls
	}
}

func (s *Score) pushDelivery(entry string) {
	s.CurrentOver = append(s.CurrentOver, entry)
	if len(s.CurrentOver) > currentOverWindow {
		s.CurrentOver = s.CurrentOver[len(s.CurrentOver)-currentOverWindow:]
	}
}

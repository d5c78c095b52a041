package engine

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for the scoring state machine. ErrValidation wraps
// bad action input; ErrInvariant marks a corrupt innings record.
var (
	ErrValidation      = errors.New("invalid scoring action")
	ErrInvariant       = errors.New("innings record invariant violated")
	ErrMatchCompleted  = errors.New("match already completed")
	ErrNoCurrentBatter = errors.New("no batter selected")
	ErrBatterCompleted = errors.New("batter already batted this innings")
)

// Advice is the end-of-innings recommendation surfaced after a mutation.
// It never ends the innings by itself; the caller decides.
type Advice struct {
	EndInnings       bool
	Reason           string
	RemainingBatters int
}

// InningsTransition describes the switch from innings 1 to innings 2.
type InningsTransition struct {
	NewInnings      int
	Target          int
	Innings1Summary string
	Message         string
}

// MatchResult is the completed-match outcome. WinnerID is empty on a tie.
type MatchResult struct {
	Text       string
	WinnerID   string
	WinnerName string
}

func (m *Match) mutableScore() (*Score, error) {
	if m.Status == StatusCompleted {
		return nil, ErrMatchCompleted
	}
	return m.ActiveScore()
}

// SelectBatter puts a batter at the crease with zeroed stats. A batter
// who already completed this innings cannot return.
func (m *Match) SelectBatter(batterID, name string) error {
	if batterID == "" {
		return fmt.Errorf("%w: batter id is required", ErrValidation)
	}
	score, err := m.mutableScore()
	if err != nil {
		return err
	}
	if score.Wickets >= 10 {
		return fmt.Errorf("%w: innings is all out", ErrValidation)
	}
	for _, done := range score.CompletedBatters {
		if done.ID == batterID {
			return ErrBatterCompleted
		}
	}
	score.CurrentBatter = &Batter{ID: batterID, Name: name}
	return nil
}

// RecordRuns scores runs off the bat for the current batter.
func (m *Match) RecordRuns(runs int) error {
	if runs < 0 || runs > 6 {
		return fmt.Errorf("%w: runs must be between 0 and 6, got %d", ErrValidation, runs)
	}
	score, err := m.mutableScore()
	if err != nil {
		return err
	}
	if score.CurrentBatter == nil {
		return ErrNoCurrentBatter
	}

	score.CurrentBatter.Stats.Runs += runs
	score.CurrentBatter.Stats.Balls++
	score.Runs += runs
	score.Balls++
	if runs == 4 {
		score.CurrentBatter.Stats.Fours++
		score.Fours++
	}
	if runs == 6 {
		score.CurrentBatter.Stats.Sixes++
		score.Sixes++
	}

	score.pushDelivery(strconv.Itoa(runs))
	score.recompute(m)
	return nil
}

// RecordExtra credits an extra to the batting side. Wides and no-balls do
// not consume a legal delivery; byes and leg-byes do.
func (m *Match) RecordExtra(kind ExtraKind, runs int) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if runs <= 0 {
		runs = 1
	}
	score, err := m.mutableScore()
	if err != nil {
		return err
	}

	score.Runs += runs
	switch kind {
	case ExtraWide:
		score.Extras.Wides += runs
	case ExtraNoBall:
		score.Extras.NoBalls += runs
	case ExtraBye:
		score.Extras.Byes += runs
		score.Balls++
	case ExtraLegBye:
		score.Extras.LegByes += runs
		score.Balls++
	}
	score.Extras.Total += runs

	score.recompute(m)
	return nil
}

// RecordWicket dismisses the current batter, moving them to the
// completed list with final stats.
func (m *Match) RecordWicket(dismissal, fielder string) error {
	if dismissal == "" {
		return fmt.Errorf("%w: dismissal type is required", ErrValidation)
	}
	score, err := m.mutableScore()
	if err != nil {
		return err
	}
	if score.Wickets >= 10 {
		return fmt.Errorf("%w: innings is all out", ErrValidation)
	}
	if score.CurrentBatter == nil {
		return ErrNoCurrentBatter
	}

	out := score.CurrentBatter
	score.CompletedBatters = append(score.CompletedBatters, CompletedBatter{
		ID:        out.ID,
		Name:      out.Name,
		Stats:     out.Stats,
		Dismissal: dismissal,
		Fielder:   fielder,
	})
	score.CurrentBatter = nil
	score.Wickets++
	score.Balls++

	score.pushDelivery(WicketMarker)
	score.recompute(m)
	return nil
}

// EndAdvice reports whether the active innings should end, given the
// batting side's roster size. Evaluated after every scoring mutation.
func (m *Match) EndAdvice(rosterSize int) Advice {
	score, err := m.ActiveScore()
	if err != nil {
		return Advice{}
	}
	remaining := rosterSize - len(score.CompletedBatters)

	switch {
	case score.Wickets >= 10:
		return Advice{EndInnings: true, Reason: "All out - 10 wickets fallen", RemainingBatters: remaining}
	case m.CurrentInnings == 2 && score.Runs > m.Scores[0].Runs:
		return Advice{EndInnings: true, Reason: "Target achieved", RemainingBatters: remaining}
	case rosterSize > 0 && remaining <= 0:
		return Advice{EndInnings: true, Reason: "No more players available", RemainingBatters: remaining}
	case score.Balls >= m.BallsLimit():
		return Advice{EndInnings: true, Reason: "Overs limit reached", RemainingBatters: remaining}
	default:
		return Advice{RemainingBatters: remaining}
	}
}

// EndInnings closes the active innings. On innings 1 it opens the chase:
// status goes live, the target is seeded, and the second innings record
// is reset to a clean zero state. On innings 2 it completes the match.
// Team names feed the result text; the winner is resolved by actual
// batting order, not team position.
func (m *Match) EndInnings(team1Name, team2Name string) (*InningsTransition, *MatchResult, error) {
	if m.Status == StatusCompleted {
		return nil, nil, ErrMatchCompleted
	}

	if m.CurrentInnings == 1 {
		first := m.Scores[0]
		target := first.Runs + 1

		second := newScore(2, m.FieldingFirstID)
		second.Target = target
		second.RunsNeeded = target
		second.BallsRemaining = m.BallsLimit()
		m.Scores[1] = second

		m.Status = StatusLive
		m.CurrentInnings = 2

		return &InningsTransition{
			NewInnings:      2,
			Target:          target,
			Innings1Summary: fmt.Sprintf("%d/%d (%s)", first.Runs, first.Wickets, first.Overs),
			Message:         "1st Innings Complete! Starting 2nd Innings...",
		}, nil, nil
	}

	result := m.computeResult(team1Name, team2Name)
	m.Status = StatusCompleted
	m.ResultText = result.Text
	m.WinnerID = result.WinnerID
	return nil, &result, nil
}

func (m *Match) computeResult(team1Name, team2Name string) MatchResult {
	firstInnings := m.Scores[0]
	secondInnings := m.Scores[1]

	team1BattedFirst := m.BattingFirstID == m.Team1ID

	firstBatID, firstBatName := m.Team1ID, team1Name
	secondBatID, secondBatName := m.Team2ID, team2Name
	if !team1BattedFirst {
		firstBatID, firstBatName = m.Team2ID, team2Name
		secondBatID, secondBatName = m.Team1ID, team1Name
	}

	switch {
	case firstInnings.Runs > secondInnings.Runs:
		margin := firstInnings.Runs - secondInnings.Runs
		return MatchResult{
			Text:       fmt.Sprintf("%s wins by %d runs", firstBatName, margin),
			WinnerID:   firstBatID,
			WinnerName: firstBatName,
		}
	case secondInnings.Runs > firstInnings.Runs:
		wicketsLeft := 10 - secondInnings.Wickets
		return MatchResult{
			Text:       fmt.Sprintf("%s wins by %d wickets", secondBatName, wicketsLeft),
			WinnerID:   secondBatID,
			WinnerName: secondBatName,
		}
	default:
		return MatchResult{Text: "Match Tied!"}
	}
}

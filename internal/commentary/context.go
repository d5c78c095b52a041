// Package commentary turns scoring transitions into narrative: it
// classifies events, assembles match context, and produces commentary
// text with a templated fallback when the generative provider fails.
package commentary

import (
	"fmt"
	"math"

	"github.com/thunderavi/scoreboard/api/feed"
	"github.com/thunderavi/scoreboard/internal/engine"
)

// Phase is the match stage by over-progress ratio.
type Phase string

const (
	PhasePowerplay Phase = "powerplay"
	PhaseMiddle    Phase = "middle"
	PhaseDeath     Phase = "death"
	PhaseFinal     Phase = "final"
)

// Situation tags the chase state for prompt and template selection.
type Situation string

const (
	SituationSettingTarget  Situation = "setting_target"
	SituationChasing        Situation = "chasing"
	SituationWon            Situation = "won"
	SituationLost           Situation = "lost"
	SituationTightFinish    Situation = "tight_finish"
	SituationCloseChase     Situation = "close_chase"
	SituationDifficultChase Situation = "difficult_chase"
)

// Context is the narrative snapshot assembled for one event.
type Context struct {
	BattingTeam  string
	BowlingTeam  string
	CurrentScore string
	Runs         int
	Wickets      int
	Overs        string
	OversFloat   float64
	RunRate      float64
	Innings      int
	TotalOvers   int

	// Chase fields; Target zero means not chasing.
	Target          int
	RunsNeeded      int
	BallsRemaining  int
	RequiredRunRate float64
	WicketsLeft     int

	Phase     Phase
	Situation Situation
}

// Chasing reports whether the context carries an active target.
func (c Context) Chasing() bool {
	return c.Target > 0
}

// ClassifyRuns maps runs off the bat to an event type.
func ClassifyRuns(runs int) feed.EventType {
	switch runs {
	case 6:
		return feed.EventSix
	case 4:
		return feed.EventFour
	case 0:
		return feed.EventDotBall
	default:
		return feed.EventRunsScored
	}
}

// ClassifyExtra maps an extra delivery to an event type. Byes and
// leg-byes read as ordinary scoring on the feed.
func ClassifyExtra(kind engine.ExtraKind) feed.EventType {
	switch kind {
	case engine.ExtraWide:
		return feed.EventWide
	case engine.ExtraNoBall:
		return feed.EventNoBall
	default:
		return feed.EventRunsScored
	}
}

// BuildContext assembles the narrative context from the active innings.
func BuildContext(m *engine.Match, battingTeam, bowlingTeam string) Context {
	score, err := m.ActiveScore()
	if err != nil {
		return Context{BattingTeam: battingTeam, BowlingTeam: bowlingTeam, Overs: "0.0"}
	}

	// Overs-as-decimal quirk kept from the scoring lineage: "15.4" reads
	// as 15.4 overs for phase and required-rate math.
	oversFloat := float64(score.Balls/6) + float64(score.Balls%6)/10

	c := Context{
		BattingTeam:  battingTeam,
		BowlingTeam:  bowlingTeam,
		CurrentScore: scoreString(score.Runs, score.Wickets),
		Runs:         score.Runs,
		Wickets:      score.Wickets,
		Overs:        score.Overs,
		OversFloat:   oversFloat,
		RunRate:      score.RunRate,
		Innings:      m.CurrentInnings,
		TotalOvers:   m.TotalOvers,
	}

	if score.Innings == 2 && score.Target > 0 {
		c.Target = score.Target
		c.RunsNeeded = score.RunsNeeded
		c.BallsRemaining = score.BallsRemaining
		c.WicketsLeft = 10 - score.Wickets
		if remaining := float64(m.TotalOvers) - oversFloat; remaining > 0 && score.RunsNeeded > 0 {
			c.RequiredRunRate = math.Round(float64(score.RunsNeeded)/remaining*100) / 100
		}
	}

	c.Phase = phaseFor(oversFloat, m.TotalOvers)
	c.Situation = situationFor(c)
	return c
}

func scoreString(runs, wickets int) string {
	return fmt.Sprintf("%d/%d", runs, wickets)
}

func phaseFor(overs float64, totalOvers int) Phase {
	if totalOvers <= 0 {
		totalOvers = 20
	}
	progress := overs / float64(totalOvers) * 100
	switch {
	case progress < 20:
		return PhasePowerplay
	case progress < 50:
		return PhaseMiddle
	case progress < 80:
		return PhaseDeath
	default:
		return PhaseFinal
	}
}

func situationFor(c Context) Situation {
	if c.Innings == 1 {
		return SituationSettingTarget
	}
	if !c.Chasing() {
		return SituationChasing
	}
	switch {
	case c.RunsNeeded <= 0:
		return SituationWon
	case c.Wickets >= 10:
		return SituationLost
	case c.RunsNeeded < 20:
		return SituationTightFinish
	case c.RunsNeeded < 50:
		return SituationCloseChase
	case c.RunsNeeded > 100:
		return SituationDifficultChase
	default:
		return SituationChasing
	}
}

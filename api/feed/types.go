// Package feed defines the wire contracts shared by the broadcast hub,
// the subscriber transports, and the commentary pipeline.
package feed

import "fmt"

// EventType classifies one scoring action for commentary and display.
type EventType string

const (
	EventSix        EventType = "SIX"
	EventFour       EventType = "FOUR"
	EventWicket     EventType = "WICKET"
	EventWide       EventType = "WIDE"
	EventNoBall     EventType = "NO_BALL"
	EventDotBall    EventType = "DOT_BALL"
	EventRunsScored EventType = "RUNS_SCORED"
	EventInningsEnd EventType = "INNINGS_END"
	EventMatchEnd   EventType = "MATCH_END"
)

// Validate rejects event types outside the closed set.
func (e EventType) Validate() error {
	switch e {
	case EventSix, EventFour, EventWicket, EventWide, EventNoBall,
		EventDotBall, EventRunsScored, EventInningsEnd, EventMatchEnd:
		return nil
	default:
		return fmt.Errorf("invalid event type: %q", e)
	}
}

// Priority orders commentary by match impact.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// PriorityFor maps an event type to its delivery priority.
func PriorityFor(e EventType) Priority {
	switch e {
	case EventWicket, EventInningsEnd, EventMatchEnd:
		return PriorityCritical
	case EventSix, EventFour:
		return PriorityHigh
	case EventRunsScored, EventNoBall:
		return PriorityMedium
	case EventDotBall, EventWide:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// FrameType identifies one live-feed frame shape.
type FrameType string

const (
	FrameConnected   FrameType = "connected"
	FrameScoreUpdate FrameType = "score_update"
	FrameExtraScored FrameType = "extra_scored"
	FrameWicket      FrameType = "wicket"
	FrameInningsEnd  FrameType = "innings_end"
	FrameMatchEnd    FrameType = "match_end"
	FrameCommentary  FrameType = "commentary"
	FrameError       FrameType = "error"
)

func isFrameType(t FrameType) bool {
	switch t {
	case FrameConnected, FrameScoreUpdate, FrameExtraScored, FrameWicket,
		FrameInningsEnd, FrameMatchEnd, FrameCommentary, FrameError:
		return true
	default:
		return false
	}
}

// ScoreSnapshot is the compact score carried on scoring frames.
type ScoreSnapshot struct {
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Overs   string  `json:"overs"`
	RunRate float64 `json:"runRate,omitempty"`
}

// CommentaryPayload is the persisted commentary record as broadcast.
type CommentaryPayload struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	AudioURL      string    `json:"audioUrl,omitempty"`
	AudioDuration float64   `json:"audioDuration,omitempty"`
	EventType     EventType `json:"eventType"`
	IsAIGenerated bool      `json:"isAIGenerated"`
	CreatedAt     string    `json:"createdAt"`
}

// EventData is the per-event context attached to scoring and commentary
// frames. Zero-valued fields are omitted on the wire.
type EventData struct {
	Innings       int    `json:"innings,omitempty"`
	OverNumber    string `json:"overNumber,omitempty"`
	Runs          int    `json:"runs,omitempty"`
	ExtraType     string `json:"extraType,omitempty"`
	BatterName    string `json:"batterName,omitempty"`
	BowlerName    string `json:"bowlerName,omitempty"`
	DismissalType string `json:"dismissalType,omitempty"`
	FielderName   string `json:"fielderName,omitempty"`
	BattingTeam   string `json:"battingTeam,omitempty"`
	BowlingTeam   string `json:"bowlingTeam,omitempty"`
	TeamScore     string `json:"teamScore,omitempty"`
}

// Frame is the single envelope written to live subscribers. Exactly the
// fields relevant to its Type are populated; the rest stay omitted.
type Frame struct {
	Type     FrameType `json:"type"`
	MatchID  string    `json:"matchId,omitempty"`
	ClientID string    `json:"clientId,omitempty"`

	EventType EventType      `json:"eventType,omitempty"`
	Score     *ScoreSnapshot `json:"score,omitempty"`
	EventData *EventData     `json:"eventData,omitempty"`

	// innings_end
	NewInnings      int    `json:"newInnings,omitempty"`
	Target          int    `json:"target,omitempty"`
	Innings1Summary string `json:"innings1Summary,omitempty"`
	Message         string `json:"message,omitempty"`

	// match_end
	Result   string         `json:"result,omitempty"`
	Winner   string         `json:"winner,omitempty"`
	Innings1 *ScoreSnapshot `json:"innings1,omitempty"`
	Innings2 *ScoreSnapshot `json:"innings2,omitempty"`

	Commentary *CommentaryPayload `json:"commentary,omitempty"`

	// error
	ErrorCode string `json:"errorCode,omitempty"`
	Severity  string `json:"severity,omitempty"`
}

// Validate enforces the per-type required fields.
func (f Frame) Validate() error {
	if !isFrameType(f.Type) {
		return fmt.Errorf("invalid frame type: %q", f.Type)
	}
	switch f.Type {
	case FrameConnected:
		if f.MatchID == "" || f.ClientID == "" {
			return fmt.Errorf("connected frame requires matchId and clientId")
		}
	case FrameScoreUpdate, FrameExtraScored, FrameWicket:
		if f.MatchID == "" {
			return fmt.Errorf("%s frame requires matchId", f.Type)
		}
		if err := f.EventType.Validate(); err != nil {
			return err
		}
		if f.Score == nil {
			return fmt.Errorf("%s frame requires a score snapshot", f.Type)
		}
	case FrameInningsEnd:
		if f.MatchID == "" || f.NewInnings != 2 {
			return fmt.Errorf("innings_end frame requires matchId and newInnings=2")
		}
	case FrameMatchEnd:
		if f.MatchID == "" || f.Result == "" {
			return fmt.Errorf("match_end frame requires matchId and result")
		}
	case FrameCommentary:
		if f.MatchID == "" || f.Commentary == nil || f.Commentary.Text == "" {
			return fmt.Errorf("commentary frame requires matchId and commentary text")
		}
	case FrameError:
		if f.Message == "" || f.ErrorCode == "" {
			return fmt.Errorf("error frame requires message and errorCode")
		}
	}
	return nil
}

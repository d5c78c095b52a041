package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/thunderavi/scoreboard/api/feed"
	"github.com/thunderavi/scoreboard/internal/commentary"
	"github.com/thunderavi/scoreboard/internal/engine"
	"github.com/thunderavi/scoreboard/internal/storage"
)

// ScoreOutcome is the synchronous reply to a scoring action. Broadcast
// and commentary continue in the background after it returns.
type ScoreOutcome struct {
	Match  *engine.Match
	Advice engine.Advice
}

// EndInningsOutcome reports either an innings transition or the final
// result, never both.
type EndInningsOutcome struct {
	Match      *engine.Match
	Transition *engine.InningsTransition
	Result     *engine.MatchResult
}

// SelectBatter puts a roster player at the crease. When the request
// carries no name, the roster record supplies it.
func (s *Service) SelectBatter(ctx context.Context, actorID, matchID, batterID, name string) (*engine.Match, error) {
	unlock := s.lockMatch(matchID)
	defer unlock()

	m, err := s.GetMatch(ctx, actorID, matchID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		if p, err := s.store.GetPlayer(ctx, batterID); err == nil {
			name = p.Name
		}
	}
	if name == "" {
		name = batterID
	}
	if err := m.SelectBatter(batterID, name); err != nil {
		return nil, err
	}
	if err := s.store.SaveMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}
	return m, nil
}

// ScoreRuns records runs off the bat and kicks off the broadcast
// pipeline.
func (s *Service) ScoreRuns(ctx context.Context, actorID, matchID string, runs int) (*ScoreOutcome, error) {
	unlock := s.lockMatch(matchID)
	defer unlock()

	m, err := s.GetMatch(ctx, actorID, matchID)
	if err != nil {
		return nil, err
	}

	data := s.eventData(m)
	data.Runs = runs
	if err := m.RecordRuns(runs); err != nil {
		return nil, err
	}
	if err := s.store.SaveMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}
	advice := m.EndAdvice(s.rosterSize(ctx, m))

	s.broadcastScoring(m, feed.FrameScoreUpdate, commentary.ClassifyRuns(runs), data)
	return &ScoreOutcome{Match: m, Advice: advice}, nil
}

// ScoreExtra records a wide, no-ball, bye or leg-bye.
func (s *Service) ScoreExtra(ctx context.Context, actorID, matchID string, kind engine.ExtraKind, runs int) (*ScoreOutcome, error) {
	unlock := s.lockMatch(matchID)
	defer unlock()

	m, err := s.GetMatch(ctx, actorID, matchID)
	if err != nil {
		return nil, err
	}

	data := s.eventData(m)
	data.ExtraType = string(kind)
	if runs > 0 {
		data.Runs = runs
	} else {
		data.Runs = 1
	}
	if err := m.RecordExtra(kind, runs); err != nil {
		return nil, err
	}
	if err := s.store.SaveMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}
	advice := m.EndAdvice(s.rosterSize(ctx, m))

	s.broadcastScoring(m, feed.FrameExtraScored, commentary.ClassifyExtra(kind), data)
	return &ScoreOutcome{Match: m, Advice: advice}, nil
}

// RecordWicket dismisses the current batter.
func (s *Service) RecordWicket(ctx context.Context, actorID, matchID, dismissal, fielder string) (*ScoreOutcome, error) {
	unlock := s.lockMatch(matchID)
	defer unlock()

	m, err := s.GetMatch(ctx, actorID, matchID)
	if err != nil {
		return nil, err
	}

	data := s.eventData(m)
	data.DismissalType = dismissal
	data.FielderName = fielder
	if err := m.RecordWicket(dismissal, fielder); err != nil {
		return nil, err
	}
	if err := s.store.SaveMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}
	advice := m.EndAdvice(s.rosterSize(ctx, m))

	s.broadcastScoring(m, feed.FrameWicket, feed.EventWicket, data)
	return &ScoreOutcome{Match: m, Advice: advice}, nil
}

// EndInnings closes the active innings: innings 1 opens the chase,
// innings 2 completes the match.
func (s *Service) EndInnings(ctx context.Context, actorID, matchID string) (*EndInningsOutcome, error) {
	unlock := s.lockMatch(matchID)
	defer unlock()

	m, err := s.GetMatch(ctx, actorID, matchID)
	if err != nil {
		return nil, err
	}

	team1, team2 := s.teamNames(ctx, m)
	batting, bowling := s.battingTeamName(ctx, m)
	// Commentary describes the innings that just closed, so the context
	// is captured before the transition zeroes the next innings.
	closingCtx := commentary.BuildContext(m, batting, bowling)
	closingData := s.eventData(m)

	transition, result, err := m.EndInnings(team1, team2)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}

	if transition != nil {
		s.logger.Info("innings complete", "match_id", m.ID, "target", transition.Target)
		tr := *transition
		s.spawn("innings-end", func(ctx context.Context) {
			s.hub.Publish(m.ID, feed.Frame{
				Type:            feed.FrameInningsEnd,
				MatchID:         m.ID,
				NewInnings:      tr.NewInnings,
				Target:          tr.Target,
				Innings1Summary: tr.Innings1Summary,
				Message:         tr.Message,
			})
			s.runCommentary(ctx, m, feed.EventInningsEnd, closingCtx, closingData)
		})
	}
	if result != nil {
		s.logger.Info("match complete", "match_id", m.ID, "result", result.Text)
		res := *result
		s.spawn("match-end", func(ctx context.Context) {
			s.hub.Publish(m.ID, feed.Frame{
				Type:     feed.FrameMatchEnd,
				MatchID:  m.ID,
				Result:   res.Text,
				Winner:   res.WinnerName,
				Innings1: snapshotOf(m.Scores[0]),
				Innings2: snapshotOf(m.Scores[1]),
			})
			s.runCommentary(ctx, m, feed.EventMatchEnd, closingCtx, closingData)
		})
	}

	return &EndInningsOutcome{Match: m, Transition: transition, Result: result}, nil
}

// eventData captures the pre-mutation narrative fields: who is at the
// crease, the innings, and the over in progress.
func (s *Service) eventData(m *engine.Match) feed.EventData {
	data := feed.EventData{Innings: m.CurrentInnings}
	score, err := m.ActiveScore()
	if err != nil {
		return data
	}
	data.OverNumber = score.Overs
	data.TeamScore = fmt.Sprintf("%d/%d", score.Runs, score.Wickets)
	if score.CurrentBatter != nil {
		data.BatterName = score.CurrentBatter.Name
	}
	return data
}

func snapshotOf(score engine.Score) *feed.ScoreSnapshot {
	return &feed.ScoreSnapshot{
		Runs:    score.Runs,
		Wickets: score.Wickets,
		Overs:   score.Overs,
		RunRate: score.RunRate,
	}
}

// broadcastScoring publishes the scoring frame and runs the commentary
// pipeline, both detached from the request.
func (s *Service) broadcastScoring(m *engine.Match, frameType feed.FrameType, event feed.EventType, data feed.EventData) {
	score, err := m.ActiveScore()
	if err != nil {
		return
	}
	snap := snapshotOf(*score)
	data.BattingTeam = m.BattingTeamID()
	data.BowlingTeam = m.BowlingTeamID()

	s.spawn("scoring-event", func(ctx context.Context) {
		batting, bowling := s.battingTeamName(ctx, m)
		data.BattingTeam = batting
		data.BowlingTeam = bowling

		s.hub.Publish(m.ID, feed.Frame{
			Type:      frameType,
			MatchID:   m.ID,
			EventType: event,
			Score:     snap,
			EventData: &data,
		})
		s.runCommentary(ctx, m, event, commentary.BuildContext(m, batting, bowling), data)
	})
}

// runCommentary generates, persists, optionally voices, and broadcasts
// one commentary line. Failures degrade; they never reach the scorer.
func (s *Service) runCommentary(ctx context.Context, m *engine.Match, event feed.EventType, c commentary.Context, data feed.EventData) {
	res := s.gen.Generate(ctx, event, c, data)
	if s.gen.HasProvider() && !res.AIGenerated {
		s.logger.Warn("commentary provider degraded to templates", "match_id", m.ID, "event", event)
		s.hub.Publish(m.ID, feed.Frame{
			Type:      feed.FrameError,
			MatchID:   m.ID,
			Message:   "AI commentary temporarily unavailable, using fallback",
			ErrorCode: "commentary_degraded",
			Severity:  "degraded",
		})
	}

	rec := storage.CommentaryRecord{
		ID:          uuid.NewString(),
		MatchID:     m.ID,
		EventType:   event,
		Priority:    res.Priority,
		Text:        res.Text,
		AIGenerated: res.AIGenerated,
		Innings:     c.Innings,
		OverNumber:  c.Overs,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.AppendCommentary(ctx, rec); err != nil {
		s.logger.Error("persist commentary failed", "match_id", m.ID, "error", err)
		return
	}

	payload := feed.CommentaryPayload{
		ID:            rec.ID,
		Text:          rec.Text,
		EventType:     rec.EventType,
		IsAIGenerated: rec.AIGenerated,
		CreatedAt:     rec.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}

	if s.synth != nil {
		clip, err := s.synth.Synthesize(ctx, rec.ID, rec.Text)
		if err != nil {
			s.logger.Warn("audio synthesis failed", "match_id", m.ID, "commentary_id", rec.ID, "error", err)
		} else {
			if err := s.store.AttachAudio(ctx, rec.ID, clip.URL, clip.Duration); err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.logger.Error("attach audio failed", "commentary_id", rec.ID, "error", err)
			}
			payload.AudioURL = clip.URL
			payload.AudioDuration = clip.Duration
		}
	}

	s.hub.Publish(m.ID, feed.Frame{
		Type:       feed.FrameCommentary,
		MatchID:    m.ID,
		EventType:  event,
		EventData:  &data,
		Commentary: &payload,
	})
}

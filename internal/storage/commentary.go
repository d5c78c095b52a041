package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/thunderavi/scoreboard/api/feed"
)

// CommentaryRecord is one persisted commentary line. AudioURL stays
// empty until synthesis attaches it.
type CommentaryRecord struct {
	ID            string
	MatchID       string
	EventType     feed.EventType
	Priority      feed.Priority
	Text          string
	AIGenerated   bool
	AudioURL      string
	AudioDuration float64
	Innings       int
	OverNumber    string
	CreatedAt     time.Time
}

// AppendCommentary inserts a commentary line.
func (s *Store) AppendCommentary(ctx context.Context, rec CommentaryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" || rec.MatchID == "" {
		return fmt.Errorf("commentary id and match id are required")
	}
	if rec.Text == "" {
		return fmt.Errorf("commentary text is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO commentary
		(id, match_id, event_type, priority, text, ai_generated, audio_url, audio_duration, innings, over_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.MatchID, string(rec.EventType), string(rec.Priority), rec.Text,
		rec.AIGenerated, rec.AudioURL, rec.AudioDuration, rec.Innings, rec.OverNumber,
		rec.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert commentary: %w", err)
	}
	return nil
}

// AttachAudio records the synthesized audio location on an existing
// commentary line.
func (s *Store) AttachAudio(ctx context.Context, id, audioURL string, duration float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("commentary id is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE commentary SET audio_url = ?, audio_duration = ? WHERE id = ?`,
		audioURL, duration, id)
	if err != nil {
		return fmt.Errorf("update commentary audio: %w", err)
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

// ListCommentary returns a match's commentary newest first, optionally
// filtered by event type.
func (s *Store) ListCommentary(ctx context.Context, matchID string, eventType feed.EventType, limit int) ([]CommentaryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if matchID == "" {
		return nil, fmt.Errorf("match id is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT id, match_id, event_type, priority, text, ai_generated, audio_url, audio_duration, innings, over_number, created_at
		FROM commentary WHERE match_id = ?`
	args := []any{matchID}
	if eventType != "" {
		query += ` AND event_type = ?`
		args = append(args, string(eventType))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query commentary: %w", err)
	}
	defer rows.Close()

	var out []CommentaryRecord
	for rows.Next() {
		var rec CommentaryRecord
		var eventType, priority, createdAt string
		if err := rows.Scan(&rec.ID, &rec.MatchID, &eventType, &priority, &rec.Text,
			&rec.AIGenerated, &rec.AudioURL, &rec.AudioDuration, &rec.Innings, &rec.OverNumber, &createdAt); err != nil {
			return nil, fmt.Errorf("scan commentary: %w", err)
		}
		rec.EventType = feed.EventType(eventType)
		rec.Priority = feed.Priority(priority)
		if ts, err := time.Parse(timeFormat, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Package hub fans scoreboard frames out to every live subscriber of a
// match. Delivery is best-effort and at-most-once: a subscriber that
// misses frames catches up through the commentary history endpoint.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/thunderavi/scoreboard/api/feed"
)

const (
	defaultHeartbeatEvery = 15 * time.Second
	defaultSweepEvery     = 30 * time.Second
)

// Conn is one attached stream. Implementations must make WriteFrame and
// WriteHeartbeat safe for concurrent use and report Closed after the
// peer goes away.
type Conn interface {
	WriteFrame(frame feed.Frame) error
	WriteHeartbeat() error
	Closed() bool
	Close() error
}

type subscription struct {
	id      string
	matchID string
	conn    Conn

	// Unix nanos of the last successful write, updated from publish and
	// heartbeat goroutines.
	lastActivity atomic.Int64
}

func (s *subscription) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Hub is the broadcast registry, keyed by match.
type Hub struct {
	logger *slog.Logger

	heartbeatEvery time.Duration
	sweepEvery     time.Duration

	mu   sync.Mutex
	subs map[string][]*subscription
}

// Option customizes a Hub.
type Option func(*Hub)

// WithHeartbeatInterval overrides the keep-alive cadence.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(h *Hub) { h.heartbeatEvery = d }
}

// WithSweepInterval overrides the dead-connection sweep cadence.
func WithSweepInterval(d time.Duration) Option {
	return func(h *Hub) { h.sweepEvery = d }
}

// New constructs an empty hub.
func New(logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		logger:         logger,
		heartbeatEvery: defaultHeartbeatEvery,
		sweepEvery:     defaultSweepEvery,
		subs:           map[string][]*subscription{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a connection under a match and sends the
// connected frame. The returned id is the handle for Unsubscribe.
func (h *Hub) Subscribe(matchID string, conn Conn) (string, error) {
	if matchID == "" {
		return "", fmt.Errorf("match_id is required")
	}
	if conn == nil {
		return "", fmt.Errorf("conn is required")
	}

	sub := &subscription{
		id:      uuid.NewString(),
		matchID: matchID,
		conn:    conn,
	}
	sub.touch()

	h.mu.Lock()
	h.subs[matchID] = append(h.subs[matchID], sub)
	count := len(h.subs[matchID])
	h.mu.Unlock()

	frame := feed.Frame{
		Type:     feed.FrameConnected,
		MatchID:  matchID,
		ClientID: sub.id,
		Message:  "Connected to live score feed",
	}
	if err := conn.WriteFrame(frame); err != nil {
		h.Unsubscribe(matchID, sub.id)
		return "", fmt.Errorf("write connected frame: %w", err)
	}

	h.logger.Debug("subscriber attached", "match_id", matchID, "client_id", sub.id, "subscribers", count)
	return sub.id, nil
}

// Unsubscribe detaches a connection and closes it. Unknown ids are a
// no-op.
func (h *Hub) Unsubscribe(matchID, id string) {
	h.mu.Lock()
	entries := h.subs[matchID]
	for i, sub := range entries {
		if sub.id != id {
			continue
		}
		h.subs[matchID] = append(entries[:i], entries[i+1:]...)
		if len(h.subs[matchID]) == 0 {
			delete(h.subs, matchID)
		}
		h.mu.Unlock()
		_ = sub.conn.Close()
		h.logger.Debug("subscriber detached", "match_id", matchID, "client_id", id)
		return
	}
	h.mu.Unlock()
}

// Publish writes a frame to every live subscriber of the match and
// returns the delivery count. Subscribers whose write fails are reaped
// inline.
func (h *Hub) Publish(matchID string, frame feed.Frame) int {
	h.mu.Lock()
	entries := append([]*subscription(nil), h.subs[matchID]...)
	h.mu.Unlock()

	delivered := 0
	var dead []string
	for _, sub := range entries {
		if sub.conn.Closed() {
			dead = append(dead, sub.id)
			continue
		}
		if err := sub.conn.WriteFrame(frame); err != nil {
			h.logger.Debug("frame write failed, reaping subscriber",
				"match_id", matchID, "client_id", sub.id, "error", err)
			dead = append(dead, sub.id)
			continue
		}
		sub.touch()
		delivered++
	}
	for _, id := range dead {
		h.Unsubscribe(matchID, id)
	}
	return delivered
}

// Subscribers reports the live count for a match.
func (h *Hub) Subscribers(matchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[matchID])
}

// Run drives the heartbeat and sweep loops until the context ends.
func (h *Hub) Run(ctx context.Context) {
	heartbeat := time.NewTicker(h.heartbeatEvery)
	defer heartbeat.Stop()
	sweep := time.NewTicker(h.sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-heartbeat.C:
			h.heartbeatAll()
		case <-sweep.C:
			h.Sweep()
		}
	}
}

// heartbeatAll writes a keep-alive to every subscriber; failures are
// left for the sweep.
func (h *Hub) heartbeatAll() {
	h.mu.Lock()
	var all []*subscription
	for _, entries := range h.subs {
		all = append(all, entries...)
	}
	h.mu.Unlock()

	for _, sub := range all {
		if sub.conn.Closed() {
			continue
		}
		if err := sub.conn.WriteHeartbeat(); err == nil {
			sub.touch()
		}
	}
}

// Sweep removes subscriptions whose transport reports closed and drops
// empty match entries.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	type stale struct{ matchID, id string }
	var dead []stale
	for matchID, entries := range h.subs {
		for _, sub := range entries {
			if sub.conn.Closed() {
				dead = append(dead, stale{matchID, sub.id})
			}
		}
	}
	h.mu.Unlock()

	for _, s := range dead {
		h.Unsubscribe(s.matchID, s.id)
	}
	if len(dead) > 0 {
		h.logger.Debug("swept dead subscribers", "count", len(dead))
	}
	return len(dead)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	var all []*subscription
	for _, entries := range h.subs {
		all = append(all, entries...)
	}
	h.subs = map[string][]*subscription{}
	h.mu.Unlock()

	for _, sub := range all {
		_ = sub.conn.Close()
	}
}

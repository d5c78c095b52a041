package commentary

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/thunderavi/scoreboard/api/feed"
)

// TextProvider is the generative-text service contract. It may fail; it
// must respect its own timeout and never block indefinitely.
type TextProvider interface {
	GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// Result is one generated commentary line.
type Result struct {
	Text        string
	AIGenerated bool
	Priority    feed.Priority
}

// Generator produces commentary text, preferring the provider and
// degrading to templates. The zero provider is allowed: generation then
// always takes the fallback path.
type Generator struct {
	provider TextProvider
	pick     func(n int) int
}

// Option customizes a Generator.
type Option func(*Generator)

// WithSelector injects the template selector, for deterministic tests.
func WithSelector(pick func(n int) int) Option {
	return func(g *Generator) { g.pick = pick }
}

// NewGenerator builds a Generator around an optional text provider.
func NewGenerator(provider TextProvider, opts ...Option) *Generator {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g := &Generator{provider: provider, pick: rng.Intn}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HasProvider reports whether a generative provider is wired in. The
// pipeline uses it to distinguish configured-but-degraded from
// template-only operation.
func (g *Generator) HasProvider() bool {
	return g.provider != nil
}

// Generate returns commentary for one event. It never returns an error:
// any provider failure falls back to the template path.
func (g *Generator) Generate(ctx context.Context, event feed.EventType, c Context, data feed.EventData) Result {
	if g.provider != nil {
		text, err := g.provider.GenerateText(ctx, SystemInstruction, BuildPrompt(event, c, data))
		if err == nil {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return Result{Text: trimmed, AIGenerated: true, Priority: feed.PriorityFor(event)}
			}
		}
	}
	return Result{
		Text:     g.fallback(event, c, data),
		Priority: feed.PriorityFor(event),
	}
}

// fallback picks a template for the event and substitutes placeholders.
// Pure given the injected selector.
func (g *Generator) fallback(event feed.EventType, c Context, data feed.EventData) string {
	templates, ok := fallbackTemplates[event]
	if !ok || len(templates) == 0 {
		templates = defaultTemplates
	}
	line := templates[g.pick(len(templates))]

	batter := data.BatterName
	if batter == "" {
		batter = "The batsman"
	}
	bowler := data.BowlerName
	if bowler == "" {
		bowler = "The bowler"
	}
	team := c.BattingTeam
	if team == "" {
		team = "The team"
	}
	runs := data.Runs
	if runs == 0 {
		runs = 1
	}

	replacer := strings.NewReplacer(
		"{batter}", batter,
		"{bowler}", bowler,
		"{team}", team,
		"{score}", c.CurrentScore,
		"{runs}", strconv.Itoa(runs),
		"{dismissalType}", data.DismissalType,
	)
	line = replacer.Replace(line)

	switch event {
	case feed.EventSix, feed.EventFour, feed.EventWicket:
		line += fmt.Sprintf(" Score: %s after %s overs.", c.CurrentScore, c.Overs)
	}
	if c.Chasing() {
		line += fmt.Sprintf(" %d needed from %d balls.", c.RunsNeeded, c.BallsRemaining)
	}
	return line
}

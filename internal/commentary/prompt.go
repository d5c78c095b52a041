package commentary

import (
	"fmt"
	"strings"

	"github.com/thunderavi/scoreboard/api/feed"
)

// SystemInstruction constrains the generative provider to commentary
// style and length.
const SystemInstruction = `You are a passionate cricket commentator with deep knowledge of the game. Generate exciting, contextual commentary that:
- Varies based on match situation (score, run rate, pressure, wickets remaining)
- References the specific phase of the match (powerplay, middle overs, death overs)
- Mentions player names naturally
- Uses cricket terminology appropriately
- Keeps commentary under 50 words but makes every word count
- Changes tone based on context (desperate chase, comfortable position, nail-biter)
- Adds strategic insights when relevant
- Never repeats the same phrases - be creative and varied`

// BuildPrompt assembles the per-event generation prompt.
func BuildPrompt(event feed.EventType, c Context, data feed.EventData) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Match Context:
- Batting Team: %s
- Score: %s in %s overs
- Current Run Rate: %.2f
- Match Phase: %s
- Situation: %s`, c.BattingTeam, c.CurrentScore, c.Overs, c.RunRate, c.Phase, c.Situation)

	if c.Chasing() {
		fmt.Fprintf(&b, `
- Target: %d
- Runs Needed: %d
- Required Run Rate: %.2f
- Wickets Left: %d`, c.Target, c.RunsNeeded, c.RequiredRunRate, c.WicketsLeft)
	}

	b.WriteString("\n\n")

	switch event {
	case feed.EventSix:
		fmt.Fprintf(&b, `%s just launched a MASSIVE SIX!

Consider:
- If chasing, how does this impact the required run rate?
- Is this a pressure release or momentum shift?
- What does this mean for the match situation?
- Is the bowler under pressure now?

Generate thrilling, situational commentary that captures the moment's significance.`, data.BatterName)
	case feed.EventFour:
		fmt.Fprintf(&b, `%s finds the boundary with a beautiful FOUR!

Consider:
- Quality of the shot (timing, placement, power)
- Impact on the match situation
- Is this good running between wickets or pure class?
- How does this affect the bowler's confidence?

Generate elegant commentary highlighting the stroke's significance.`, data.BatterName)
	case feed.EventWicket:
		fmt.Fprintf(&b, `WICKET! %s is OUT - %s!
%s gets the breakthrough!

Consider:
- Is this a crucial wicket or a tail-ender?
- Impact on team's chances
- Turning point in the match?
- How many wickets remain?
- If chasing, does this make the target harder?

Generate dramatic, impactful commentary about this key moment.`, data.BatterName, data.DismissalType, data.BowlerName)
	case feed.EventRunsScored:
		runs := data.Runs
		if runs == 0 {
			runs = 1
		}
		fmt.Fprintf(&b, `%s works it for %d run(s). %s bowling.

Consider:
- Is this good strike rotation or desperate singles?
- Match pressure - building or releasing?
- Run rate implications
- Strategic importance of keeping scoreboard ticking

Generate concise, smart commentary about the game's flow.`, data.BatterName, runs, data.BowlerName)
	case feed.EventDotBall:
		fmt.Fprintf(&b, `Dot ball! %s to %s.

Consider:
- Pressure building on batsman?
- Good bowling or defensive play?
- Impact of dot balls in this match phase
- Run rate pressure increasing?

Generate sharp commentary about the building tension.`, data.BowlerName, data.BatterName)
	case feed.EventWide:
		fmt.Fprintf(&b, `WIDE BALL! %s strays. Extra run!

Consider:
- Pressure on bowler?
- Gift to batting team?
- Impact on required run rate if chasing
- Loss of line and length?

Generate commentary about this mistake and its consequences.`, data.BowlerName)
	case feed.EventNoBall:
		fmt.Fprintf(&b, `NO BALL! %s oversteps! FREE HIT next!

Consider:
- Costly mistake at this stage?
- Opportunity for big runs
- Pressure on the fielding side
- How critical is this free hit?

Generate exciting commentary about this massive opportunity.`, data.BowlerName)
	case feed.EventInningsEnd:
		fmt.Fprintf(&b, `INNINGS OVER! %s finish at %s in %s overs.
Run Rate: %.2f

Evaluate:
- Was this a good score for this pitch?
- Defendable/Chaseable total?
- Key moments in the innings
- What's required in the chase?

Generate comprehensive innings summary with insights.`, c.BattingTeam, c.CurrentScore, c.Overs, c.RunRate)
	default:
		fmt.Fprintf(&b, `Event: %s

Generate appropriate, contextual commentary for this moment considering the overall match situation.`, event)
	}

	return b.String()
}

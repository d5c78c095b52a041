package commentary

import "github.com/thunderavi/scoreboard/api/feed"

// fallbackTemplates is the curated template set used whenever the
// generative provider is unavailable. Placeholders: {batter}, {bowler},
// {team}, {score}, {runs}, {dismissalType}.
var fallbackTemplates = map[feed.EventType][]string{
	feed.EventSix: {
		"Massive! {batter} sends it sailing into the stands!",
		"What a hit! {batter} absolutely crunches that for six!",
		"Gone! That's disappeared over the boundary for a maximum!",
		"{batter} connects perfectly! That's gone miles for six runs!",
		"Unbelievable power! {batter} launches it for a huge six!",
	},
	feed.EventFour: {
		"Glorious stroke! {batter} finds the gap perfectly for four!",
		"Beautiful timing! That races to the boundary for four runs!",
		"{batter} threads the needle! Four runs added!",
		"Delightful shot! {batter} caresses it to the fence!",
		"Precision at its best! {batter} picks up four valuable runs!",
	},
	feed.EventWicket: {
		"Gone! {batter} departs, that's a massive blow!",
		"Breakthrough! {bowler} strikes! {batter} has to walk back!",
		"What a delivery! {batter} is out, {dismissalType}!",
		"Drama! {batter} falls, that's a crucial wicket!",
		"{bowler} does the trick! {batter} is dismissed!",
	},
	feed.EventRunsScored: {
		"Smart cricket! {batter} rotates the strike",
		"Good running! They scamper through for {runs}",
		"{batter} keeps the scoreboard ticking with {runs} run(s)",
		"Sensible batting! {runs} run(s) added to the total",
		"{batter} works it into the gap for {runs}",
	},
	feed.EventDotBall: {
		"Tight bowling! {bowler} builds the pressure with another dot",
		"Well defended! {batter} keeps it out",
		"Excellent line and length from {bowler}",
		"{bowler} maintains control, no run there",
		"Solid defense from {batter}, dot ball",
	},
	feed.EventWide: {
		"That's wayward! Wide called, extra run conceded",
		"Pressure showing! That's gone down the leg side for a wide",
		"Poor delivery! The umpire signals wide",
		"Straying down leg! That's a wide ball",
		"Bonus run! Wide ball called by the umpire",
	},
	feed.EventNoBall: {
		"Overstepped! No ball, free hit coming up!",
		"That's a big no ball! Free hit next delivery!",
		"Extra run! {bowler} has overstepped the crease",
		"No ball! This is a gift for the batting side",
		"{bowler} oversteps! Free hit opportunity now!",
	},
	feed.EventInningsEnd: {
		"That's the end of a fascinating innings! Final score: {score}",
		"Innings concluded! {team} finish at {score}",
		"And that brings the innings to a close at {score}",
		"The innings wraps up! {team} post {score}",
		"That's it! {team} manage {score} from their innings",
	},
	feed.EventMatchEnd: {
		"What a contest that was! The match is decided at {score}",
		"It's all over! A match to remember finishes at {score}",
		"The final act is played out! {team} end on {score}",
	},
}

// defaultTemplates covers any event type without a dedicated set.
var defaultTemplates = []string{
	"Play continues in this exciting contest",
	"Another delivery bowled, the game moves forward",
	"The match progresses, tension building",
}

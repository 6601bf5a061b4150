package main

import (
	"math/rand"
	"time"

	"github.com/TheRealTwizzy/notification_ninja/game"
)

const botStep = 100 * time.Millisecond

type strategy struct {
	name     string
	reaction time.Duration
	// missRate is the chance a step is skipped entirely.
	missRate  float64
	avoidSpam bool
}

var strategies = map[string]strategy{
	"careful": {name: "careful", reaction: 600 * time.Millisecond, missRate: 0.1, avoidSpam: true},
	"greedy":  {name: "greedy", reaction: 300 * time.Millisecond},
	"sloppy":  {name: "sloppy", reaction: 900 * time.Millisecond, missRate: 0.4},
}

func strategyFor(name string) strategy {
	if s, ok := strategies[name]; ok {
		return s
	}
	return strategies["careful"]
}

// playRound simulates one full round on a simulated clock and returns the
// result the session reported. The same seed replays the same round.
func playRound(cfg game.Config, strat strategy, seed int64) game.Result {
	sched := game.NewManualScheduler(time.Unix(0, 0).UTC())
	var result game.Result
	finished := false
	session := game.NewSession(cfg, sched, rand.New(rand.NewSource(seed)), game.Hooks{
		OnGameOver: func(r game.Result) {
			result = r
			finished = true
		},
	})
	if err := session.Start(); err != nil {
		return result
	}

	decide := rand.New(rand.NewSource(seed + 1))
	for !finished {
		sched.Advance(botStep)
		if session.Phase() != game.PhasePlaying {
			continue
		}
		if decide.Float64() < strat.missRate {
			continue
		}
		swipe(session, strat, sched.Now())
	}
	return result
}

// swipe taps every eligible block once, aiming for a point that does not
// also touch a live spam block when the strategy avoids spam.
func swipe(session *game.Session, strat strategy, now time.Time) {
	blocks := session.Blocks()
	for _, b := range blocks {
		if !b.Live() || now.Sub(b.SpawnedAt) < strat.reaction {
			continue
		}
		if strat.avoidSpam && b.Category == game.CategorySpam {
			continue
		}
		target, ok := aimPoint(b, blocks, strat.avoidSpam)
		if !ok {
			continue
		}
		session.PointerDown(target)
		session.PointerUp()
	}
}

func aimPoint(b game.Block, blocks []game.Block, avoidSpam bool) (game.Point, bool) {
	cx, cy := b.X+b.Size, b.Y+b.Size/2
	candidates := []game.Point{
		{X: cx, Y: cy},
		{X: b.X + b.Size*0.2, Y: cy},
		{X: b.X + b.Size*1.8, Y: cy},
		{X: cx, Y: b.Y + b.Size*0.1},
		{X: cx, Y: b.Y + b.Size*0.9},
	}
	if !avoidSpam {
		return candidates[0], true
	}
	for _, p := range candidates {
		if !touchesSpam(p, blocks) {
			return p, true
		}
	}
	return game.Point{}, false
}

func touchesSpam(p game.Point, blocks []game.Block) bool {
	for _, other := range blocks {
		if other.Live() && other.Category == game.CategorySpam && other.Contains(p) {
			return true
		}
	}
	return false
}

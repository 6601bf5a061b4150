package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/TheRealTwizzy/notification_ninja/game"
	"github.com/TheRealTwizzy/notification_ninja/scoreclient"
	"github.com/TheRealTwizzy/notification_ninja/scorekeeper"
)

const (
	maxNameRunes    = 32
	requestTimeout  = 15 * time.Second
	leaderboardSize = 10
)

type boardFetcher interface {
	Leaderboard(ctx context.Context, page, limit int) (*scoreclient.LeaderboardPage, error)
}

type bestReader interface {
	Best(ctx context.Context) (int, error)
}

// app routes terminal events into the session. Every method runs on the
// loop goroutine; work runs slow jobs elsewhere and post brings their
// results back.
type app struct {
	screen   tcell.Screen
	session  *game.Session
	recorder *scorekeeper.Recorder
	best     bestReader
	board    boardFetcher
	sounds   *sounds

	post func(func())
	work func(func())

	overlay   overlay
	result    *game.Result
	outcome   scorekeeper.Outcome
	nameInput []rune
	boardRows []scoreclient.ScoreRow
	bestScore int
	status    string
	mouseDown bool
}

func newApp(screen tcell.Screen, sched game.Scheduler, cfg game.Config, recorder *scorekeeper.Recorder, best bestReader, board boardFetcher, snd *sounds) *app {
	a := &app{
		screen:   screen,
		recorder: recorder,
		best:     best,
		board:    board,
		sounds:   snd,
		post:     func(fn func()) { fn() },
		work:     func(fn func()) { fn() },
	}
	cols, rows := screen.Size()
	cfg.Viewport = viewportFor(cols, rows)
	a.session = game.NewSession(cfg, sched, nil, game.Hooks{
		OnSlice:    a.onSlice,
		OnGameOver: a.onGameOver,
	})
	a.refreshBest()
	return a
}

func (a *app) frame() frame {
	return frame{
		View:      a.session.View(),
		Best:      a.bestScore,
		Overlay:   a.overlay,
		Result:    a.result,
		Outcome:   a.outcome,
		NameInput: string(a.nameInput),
		Board:     a.boardRows,
		Status:    a.status,
	}
}

func (a *app) draw() {
	render(a.screen, a.frame())
	a.screen.Show()
}

/* ======================
   Session hooks
   ====================== */

func (a *app) onSlice(b game.Block) {
	a.sounds.slice(b.Category)
}

func (a *app) onGameOver(r game.Result) {
	a.result = &r
	a.outcome = scorekeeper.Outcome{}
	a.mouseDown = false
	if !r.Submit || a.recorder == nil {
		return
	}
	a.work(func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		outcome, err := a.recorder.Record(ctx, r)
		best := a.readBest(ctx)
		a.post(func() {
			a.outcome = outcome
			a.bestScore = best
			if err != nil {
				a.status = "Could not save local high score"
			}
			if outcome.NeedsName {
				a.overlay = overlayNamePrompt
				a.nameInput = a.nameInput[:0]
			}
		})
	})
}

func (a *app) refreshBest() {
	a.bestScore = a.readBest(context.Background())
}

func (a *app) readBest(ctx context.Context) int {
	if a.best == nil {
		return 0
	}
	best, err := a.best.Best(ctx)
	if err != nil {
		log.Println("Failed to read local best:", err)
		return 0
	}
	return best
}

/* ======================
   Input
   ====================== */

// handleEvent returns false when the player quits.
func (a *app) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		cols, rows := a.screen.Size()
		a.session.Resize(viewportFor(cols, rows))
		a.screen.Sync()
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if a.overlay == overlayNamePrompt {
			a.handleNameKey(ev)
			return true
		}
		return a.handleKey(ev)
	}
	return true
}

func (a *app) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p := pointAt(x, y)
	if ev.Buttons()&tcell.Button1 != 0 {
		if !a.mouseDown {
			a.mouseDown = true
			a.session.PointerDown(p)
			return
		}
		a.session.PointerMove(p)
		return
	}
	if a.mouseDown {
		a.mouseDown = false
		a.session.PointerUp()
	}
	a.session.PointerMove(p)
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		if a.overlay == overlayLeaderboard {
			a.overlay = overlayNone
			return true
		}
		return false
	case tcell.KeyEnter:
		a.start()
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case 'q':
		return false
	case 's':
		a.start()
	case 'p', '?':
		a.togglePause()
	case 'x':
		a.session.Stop()
		a.result = nil
		a.status = "Round abandoned"
	case 'b':
		if err := a.session.SpawnNow(); err != nil {
			a.status = "Start a round to spawn test blocks"
		}
	case 'l':
		a.toggleLeaderboard()
	}
	return true
}

func (a *app) start() {
	phase := a.session.Phase()
	if phase != game.PhaseWaiting && phase != game.PhaseGameOver {
		return
	}
	if err := a.session.Start(); err != nil {
		log.Println("Failed to start round:", err)
		return
	}
	a.overlay = overlayNone
	a.result = nil
	a.outcome = scorekeeper.Outcome{}
	a.status = ""
}

func (a *app) togglePause() {
	switch a.session.Phase() {
	case game.PhasePlaying:
		_ = a.session.Pause()
		a.mouseDown = false
	case game.PhasePaused:
		_ = a.session.Resume()
		a.overlay = overlayNone
	}
}

func (a *app) toggleLeaderboard() {
	if a.overlay == overlayLeaderboard {
		a.overlay = overlayNone
		return
	}
	if a.session.Phase() == game.PhasePlaying {
		_ = a.session.Pause()
		a.mouseDown = false
	}
	a.overlay = overlayLeaderboard
	if a.board == nil {
		a.status = "Leaderboard unavailable: SLICER_API_URL is not set"
		return
	}
	a.status = "Loading leaderboard..."
	a.work(func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := a.board.Leaderboard(ctx, 0, leaderboardSize)
		a.post(func() {
			if err != nil {
				log.Println("Failed to fetch leaderboard:", err)
				a.status = "Leaderboard unavailable"
				return
			}
			a.boardRows = page.Data
			a.status = fmt.Sprintf("%d scores on the board", page.Count)
		})
	})
}

func (a *app) handleNameKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.overlay = overlayNone
		a.work(a.recorder.DiscardPending)
	case tcell.KeyEnter:
		name := strings.TrimSpace(string(a.nameInput))
		if name == "" {
			a.status = "Enter a name or press Esc to skip"
			return
		}
		a.overlay = overlayNone
		a.status = "Submitting score..."
		a.work(func() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			ok, err := a.recorder.SubmitPending(ctx, name)
			a.post(func() {
				switch {
				case err != nil:
					a.status = err.Error()
				case ok:
					a.outcome.Submitted = true
					a.status = "Score sent to the leaderboard"
				default:
					a.status = "Leaderboard unavailable, score kept locally"
				}
			})
		})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if n := len(a.nameInput); n > 0 {
			a.nameInput = a.nameInput[:n-1]
		}
	case tcell.KeyRune:
		if len(a.nameInput) < maxNameRunes {
			a.nameInput = append(a.nameInput, ev.Rune())
		}
	}
}

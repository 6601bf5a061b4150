// Package scorekeeper records finished rounds: the local list first, then a
// best-effort submission to the leaderboard server.
package scorekeeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/TheRealTwizzy/notification_ninja/game"
	"github.com/TheRealTwizzy/notification_ninja/highscores"
)

type LocalStore interface {
	Add(ctx context.Context, score int) (highscores.AddResult, error)
	PlayerName(ctx context.Context) (string, error)
	SetPlayerName(ctx context.Context, name string) error
}

type Submitter interface {
	Submit(ctx context.Context, score int, name string) error
}

// Outcome tells the client what to show after a round.
type Outcome struct {
	Rank        int
	NewTopThree bool
	NeedsName   bool
	Submitted   bool
}

// Recorder is not safe for concurrent use; the client calls it from its
// event loop.
type Recorder struct {
	local   LocalStore
	remote  Submitter
	pending int
}

// NewRecorder accepts a nil local store or submitter; the missing side is
// skipped.
func NewRecorder(local LocalStore, remote Submitter) *Recorder {
	return &Recorder{local: local, remote: remote}
}

// Record stores a finished round. Failures are logged and never returned
// for the remote side; local errors come back wrapped so the caller can show
// them, but the remote submission still runs.
func (r *Recorder) Record(ctx context.Context, result game.Result) (Outcome, error) {
	var outcome Outcome
	if !result.Submit || result.Score <= 0 {
		return outcome, nil
	}

	var localErr error
	if r.local != nil {
		added, err := r.local.Add(ctx, result.Score)
		if err != nil {
			log.Println("Failed to save local high score:", err)
			localErr = fmt.Errorf("save local high score: %w", err)
		} else {
			outcome.Rank = added.Rank
			outcome.NewTopThree = added.NewTopThree
		}
	}

	if r.remote == nil {
		return outcome, localErr
	}

	name := ""
	if r.local != nil {
		cached, err := r.local.PlayerName(ctx)
		if err != nil && !errors.Is(err, highscores.ErrNotFound) {
			log.Println("Failed to read player name:", err)
		}
		name = cached
	}
	if name == "" {
		r.pending = result.Score
		outcome.NeedsName = true
		return outcome, localErr
	}

	outcome.Submitted = r.submit(ctx, result.Score, name)
	return outcome, localErr
}

// Pending returns the score waiting for a player name, or 0.
func (r *Recorder) Pending() int {
	return r.pending
}

// SubmitPending caches name and submits the held score. It reports whether
// the server accepted it.
func (r *Recorder) SubmitPending(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("player name is required")
	}
	if r.local != nil {
		if err := r.local.SetPlayerName(ctx, name); err != nil {
			log.Println("Failed to save player name:", err)
		}
	}
	score := r.pending
	r.pending = 0
	if score <= 0 || r.remote == nil {
		return false, nil
	}
	return r.submit(ctx, score, name), nil
}

// DiscardPending drops a held score when the player skips the name prompt.
func (r *Recorder) DiscardPending() {
	r.pending = 0
}

func (r *Recorder) submit(ctx context.Context, score int, name string) bool {
	if err := r.remote.Submit(ctx, score, name); err != nil {
		log.Println("Failed to save score to leaderboard:", err)
		return false
	}
	return true
}

package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type leaderboardSnapshot struct {
	ServerTime string     `json:"serverTime"`
	Top        []ScoreRow `json:"top"`
	Count      int        `json:"count"`
}

// scoreStreamHandler pushes the current top 10 as server-sent events.
func scoreStreamHandler(store ScoreStore, interval time.Duration) http.HandlerFunc {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if store == nil {
			writeError(w, http.StatusInternalServerError, "Server configuration error")
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ctx := r.Context()
		sendSnapshot := func() bool {
			top, total, err := store.ListScores(ctx, scoreQuery{Limit: defaultLeaderboardLimit})
			if err != nil {
				log.Println("Leaderboard stream query failed:", err)
				return false
			}
			payload, err := json.Marshal(leaderboardSnapshot{
				ServerTime: time.Now().UTC().Format(time.RFC3339),
				Top:        top,
				Count:      total,
			})
			if err != nil {
				return false
			}
			if _, err := w.Write([]byte("event: leaderboard\n")); err != nil {
				return false
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return false
			}
			if _, err := w.Write(payload); err != nil {
				return false
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		if !sendSnapshot() {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !sendSnapshot() {
					return
				}
			}
		}
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxSubmitBodyBytes = 4 << 10

type SubmitScoreResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

/* ======================
   Static page
   ====================== */

func indexHandler(static fs.FS, streamEnabled bool) http.HandlerFunc {
	files := http.FileServer(http.FS(static))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			files.ServeHTTP(w, r)
			return
		}

		data, err := fs.ReadFile(static, "index.html")
		if err != nil {
			http.Error(w, "Failed to load index.html", http.StatusInternalServerError)
			return
		}

		injection := `<script>window.__SCORE_STREAM__ = ` + strconv.FormatBool(streamEnabled) + `;</script>`
		html := strings.Replace(string(data), "<head>", "<head>\n"+injection, 1)

		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}
}

/* ======================
   Health
   ====================== */

func healthHandler(store ScoreStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				log.Println("Health check ping failed:", err)
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

/* ======================
   Scores
   ====================== */

func scoresHandler(store ScoreStore, cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			submitScore(w, r, store, cfg)
		case http.MethodGet:
			listScores(w, r, store, cfg.LeaderboardMaxLimit)
		default:
			w.Header().Set("Allow", "GET, POST")
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func submitScore(w http.ResponseWriter, r *http.Request, store ScoreStore, cfg ServerConfig) {
	if store == nil {
		log.Println("Score submission rejected: DATABASE_URL is not configured")
		writeError(w, http.StatusInternalServerError, "Server configuration error")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSubmitBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var payload map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	score, message := parseScore(payload["score"])
	if message != "" {
		writeError(w, http.StatusBadRequest, message)
		return
	}

	rawName, _ := payload["name"].(string)
	name := normalizePlayerName(rawName)
	if name == "" {
		name = placeholderName()
	}

	if cfg.Flags.RateLimit {
		window := time.Duration(cfg.ScoreRateWindowSeconds) * time.Second
		allowed, retryAfter, err := store.AllowSubmission(r.Context(), clientIP(r), cfg.ScoreRateLimit, window)
		if err != nil {
			log.Println("Rate limit check failed:", err)
		} else if !allowed {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Too many submissions", RetryAfter: retryAfter})
			return
		}
	}

	if err := store.InsertScore(r.Context(), name, score); err != nil {
		log.Println("Error saving score:", err)
		writeError(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SubmitScoreResponse{Success: true})
}

// parseScore accepts JSON numbers with an integral value that fits the
// column. The string result is the client-facing error, empty on success.
func parseScore(raw interface{}) (int, string) {
	number, ok := raw.(json.Number)
	if !ok {
		return 0, "Invalid score: must be a number"
	}
	if n, err := number.Int64(); err == nil {
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, "Invalid score: out of range"
		}
		return int(n), ""
	}
	f, err := number.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "Invalid score: must be a number"
	}
	if f != math.Trunc(f) {
		return 0, "Invalid score: must be an integer"
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, "Invalid score: out of range"
	}
	return int(f), ""
}

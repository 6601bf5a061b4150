package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

type insertedScore struct {
	name  string
	score int
}

type fakeStore struct {
	mu        sync.Mutex
	inserted  []insertedScore
	rows      []ScoreRow
	queries   []scoreQuery
	insertErr error
	listErr   error
	pingErr   error
	allow     bool
	retry     int
	limitIPs  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{allow: true}
}

func (f *fakeStore) InsertScore(ctx context.Context, name string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, insertedScore{name, score})
	return nil
}

func (f *fakeStore) ListScores(ctx context.Context, q scoreQuery) ([]ScoreRow, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	matched := []ScoreRow{}
	for _, row := range f.rows {
		if q.Name == "" || row.Name == q.Name {
			matched = append(matched, row)
		}
	}
	total := len(matched)
	if q.Offset >= len(matched) {
		return []ScoreRow{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end], total, nil
}

func (f *fakeStore) AllowSubmission(ctx context.Context, ip string, limit int, window time.Duration) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limitIPs = append(f.limitIPs, ip)
	return f.allow, f.retry, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func newTestMux(store ScoreStore, cfg ServerConfig) *http.ServeMux {
	mux := http.NewServeMux()
	registerRoutes(mux, store, cfg)
	return mux
}

func postScore(t *testing.T, mux http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSubmitScoreGeneratesPlaceholderName(t *testing.T) {
	store := newFakeStore()
	mux := newTestMux(store, defaultServerConfig())

	rec := postScore(t, mux, `{"score": 120}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true}` {
		t.Fatalf("unexpected body %s", got)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected one row, got %d", len(store.inserted))
	}
	row := store.inserted[0]
	if row.score != 120 {
		t.Fatalf("expected score 120, got %d", row.score)
	}
	if !regexp.MustCompile(`^Player_\d{1,4}$`).MatchString(row.name) {
		t.Fatalf("expected generated name, got %q", row.name)
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string score", `{"score": "abc"}`, `{"error":"Invalid score: must be a number"}`},
		{"missing score", `{"name": "Ace"}`, `{"error":"Invalid score: must be a number"}`},
		{"null score", `{"score": null}`, `{"error":"Invalid score: must be a number"}`},
		{"fractional score", `{"score": 12.5}`, `{"error":"Invalid score: must be an integer"}`},
		{"huge score", `{"score": 99999999999}`, `{"error":"Invalid score: out of range"}`},
		{"not json", `score=5`, `{"error":"Invalid request body"}`},
		{"array body", `[1,2]`, `{"error":"Invalid request body"}`},
		{"null body", `null`, `{"error":"Invalid request body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			rec := postScore(t, newTestMux(store, defaultServerConfig()), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Fatalf("body = %s, want %s", got, tt.want)
			}
			if len(store.inserted) != 0 {
				t.Fatal("invalid submission must not be stored")
			}
		})
	}
}

func TestSubmitScoreKeepsNormalizedName(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"score": 50, "name": "  Ace  "}`, "Ace"},
		{`{"score": 50.0, "name": "Blade"}`, "Blade"},
		{`{"score": -25, "name": "Neg"}`, "Neg"},
		{`{"score": 1, "name": "` + strings.Repeat("x", 40) + `"}`, strings.Repeat("x", 32)},
	}
	for _, tt := range tests {
		store := newFakeStore()
		rec := postScore(t, newTestMux(store, defaultServerConfig()), tt.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.body, rec.Code)
		}
		if store.inserted[0].name != tt.want {
			t.Fatalf("%s: name = %q, want %q", tt.body, store.inserted[0].name, tt.want)
		}
	}
}

func TestSubmitScoreNonStringNameGetsPlaceholder(t *testing.T) {
	store := newFakeStore()
	rec := postScore(t, newTestMux(store, defaultServerConfig()), `{"score": 10, "name": 42}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(store.inserted[0].name, "Player_") {
		t.Fatalf("expected placeholder, got %q", store.inserted[0].name)
	}
}

func TestSubmitScoreWithoutDatabase(t *testing.T) {
	rec := postScore(t, newTestMux(nil, defaultServerConfig()), `{"score": 10}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Server configuration error"}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestSubmitScoreWithoutDatabaseChecksConfigFirst(t *testing.T) {
	mux := newTestMux(nil, defaultServerConfig())
	for _, body := range []string{`not json`, `{"score": "abc"}`} {
		rec := postScore(t, mux, body)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", body, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Server configuration error"}` {
			t.Fatalf("%s: unexpected body %s", body, got)
		}
	}
}

func TestSubmitScoreDatabaseError(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("relation \"scores\" does not exist")
	rec := postScore(t, newTestMux(store, defaultServerConfig()), `{"score": 10}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != `Database error: relation "scores" does not exist` {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestSubmitScoreRateLimited(t *testing.T) {
	store := newFakeStore()
	store.allow = false
	store.retry = 17
	cfg := defaultServerConfig()
	cfg.Flags.RateLimit = true

	req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader(`{"score": 10}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	newTestMux(store, cfg).ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Too many submissions","retryAfter":17}` {
		t.Fatalf("unexpected body %s", got)
	}
	if len(store.limitIPs) != 1 || store.limitIPs[0] != "203.0.113.9" {
		t.Fatalf("expected forwarded ip, got %v", store.limitIPs)
	}
	if len(store.inserted) != 0 {
		t.Fatal("limited submission must not be stored")
	}
}

func TestRateLimitDisabledByDefault(t *testing.T) {
	store := newFakeStore()
	store.allow = false
	rec := postScore(t, newTestMux(store, defaultServerConfig()), `{"score": 10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with rate limit off, got %d", rec.Code)
	}
	if len(store.limitIPs) != 0 {
		t.Fatal("rate limiter should not be consulted")
	}
}

func seededStore() *fakeStore {
	store := newFakeStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		name := "Bot"
		if i%5 == 0 {
			name = "Ace"
		}
		store.rows = append(store.rows, ScoreRow{
			ID:        int64(i + 1),
			Name:      name,
			Score:     1000 - i*10,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return store
}

func getScores(t *testing.T, mux http.Handler, query string) (int, LeaderboardResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/scores"+query, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var body LeaderboardResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rec.Code, body
}

func TestLeaderboardPagination(t *testing.T) {
	store := seededStore()
	mux := newTestMux(store, defaultServerConfig())

	code, body := getScores(t, mux, "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body.Page != 0 || body.Limit != 10 || body.Count != 25 || len(body.Data) != 10 {
		t.Fatalf("unexpected default page %+v", body)
	}
	if body.Data[0].Score != 1000 {
		t.Fatalf("expected best score first, got %d", body.Data[0].Score)
	}

	_, body = getScores(t, mux, "?page=2&limit=10")
	if len(body.Data) != 5 || body.Data[0].ID != 21 {
		t.Fatalf("unexpected last page %+v", body)
	}

	_, body = getScores(t, mux, "?page=-1&limit=abc")
	if body.Page != 0 || body.Limit != 10 {
		t.Fatalf("bad params should fall back to defaults, got page=%d limit=%d", body.Page, body.Limit)
	}
}

func TestLeaderboardLimitIsCapped(t *testing.T) {
	store := seededStore()
	cfg := defaultServerConfig()
	cfg.LeaderboardMaxLimit = 20
	_, body := getScores(t, newTestMux(store, cfg), "?limit=500")
	if body.Limit != 20 || len(body.Data) != 20 {
		t.Fatalf("expected limit capped at 20, got %d (%d rows)", body.Limit, len(body.Data))
	}
}

func TestLeaderboardFiltersByName(t *testing.T) {
	store := seededStore()
	_, body := getScores(t, newTestMux(store, defaultServerConfig()), "?name=Ace")
	if body.Count != 5 || len(body.Data) != 5 {
		t.Fatalf("expected 5 Ace rows, got %+v", body)
	}
	for _, row := range body.Data {
		if row.Name != "Ace" {
			t.Fatalf("unexpected row %+v", row)
		}
	}
}

func TestLeaderboardRejectsOversizedPage(t *testing.T) {
	store := seededStore()
	mux := newTestMux(store, defaultServerConfig())

	for _, query := range []string{
		"?page=9223372036854775807&limit=10",
		"?page=214748365&limit=10",
	} {
		req := httptest.NewRequest(http.MethodGet, "/scores"+query, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Invalid page"}` {
			t.Fatalf("%s: unexpected body %s", query, got)
		}
	}
	if len(store.queries) != 0 {
		t.Fatalf("oversized pages must not reach the store, got %+v", store.queries)
	}

	code, body := getScores(t, mux, "?page=214748364&limit=10")
	if code != http.StatusOK || body.Page != 214748364 || len(body.Data) != 0 {
		t.Fatalf("largest valid page should return an empty page, got %d %+v", code, body)
	}
}

func TestLeaderboardErrors(t *testing.T) {
	code, _ := getScores(t, newTestMux(nil, defaultServerConfig()), "")
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without database, got %d", code)
	}

	store := newFakeStore()
	store.listErr = errors.New("timeout")
	code, _ = getScores(t, newTestMux(store, defaultServerConfig()), "")
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on query error, got %d", code)
	}
}

func TestScoresRejectsOtherMethods(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/scores", nil)
	rec := httptest.NewRecorder()
	newTestMux(newFakeStore(), defaultServerConfig()).ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	store := newFakeStore()
	mux := newTestMux(store, defaultServerConfig())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("expected ok, got %d %q", rec.Code, rec.Body.String())
	}

	store.pingErr = errors.New("down")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestIndexInjectsStreamFlag(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(newFakeStore(), defaultServerConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "window.__SCORE_STREAM__ = true;") {
		t.Fatal("expected stream flag injected into the page")
	}
}

func TestScoreStreamSendsLeaderboardEvent(t *testing.T) {
	store := seededStore()
	srv := httptest.NewServer(newTestMux(store, defaultServerConfig()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/scores/stream", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request: %v", err)
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(res.Body)
	event, err := reader.ReadString('\n')
	if err != nil || event != "event: leaderboard\n" {
		t.Fatalf("unexpected event line %q (%v)", event, err)
	}
	data, err := reader.ReadString('\n')
	if err != nil || !strings.HasPrefix(data, "data: ") {
		t.Fatalf("unexpected data line %q (%v)", data, err)
	}
	var snapshot leaderboardSnapshot
	if err := json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot.Top) != 10 || snapshot.Count != 25 {
		t.Fatalf("expected top 10 of 25, got %d of %d", len(snapshot.Top), snapshot.Count)
	}
}

func TestStreamRouteDisabledByFlag(t *testing.T) {
	cfg := defaultServerConfig()
	cfg.Flags.ScoreStream = false
	rec := httptest.NewRecorder()
	newTestMux(newFakeStore(), cfg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scores/stream", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with stream disabled, got %d", rec.Code)
	}
}

func TestNormalizePlayerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Ace ", "Ace"},
		{"", ""},
		{"   ", ""},
		{"Bad\x00Name\n", "BadName"},
		{"日本語の名前", "日本語の名前"},
	}
	for _, tt := range tests {
		if got := normalizePlayerName(tt.in); got != tt.want {
			t.Errorf("normalizePlayerName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	if got := retryAfterSeconds(10*time.Minute, 9*time.Minute+30*time.Second); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := retryAfterSeconds(time.Minute, 2*time.Minute); got != 0 {
		t.Fatalf("expected 0 after the window, got %d", got)
	}
}

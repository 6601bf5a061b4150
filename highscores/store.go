// Package highscores keeps the local top-10 list and the cached player name
// in a small SQLite key/value table. Values are JSON documents.
package highscores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	KeyHighScores = "highScores"
	KeyPlayerName = "playerName"

	// MaxEntries caps the local list.
	MaxEntries = 10
	topThree   = 3
)

var ErrNotFound = errors.New("highscores: key not found")

// HighScore is one local list entry. Timestamp is unix milliseconds.
type HighScore struct {
	Score     int    `json:"score"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"`
}

// AddResult reports where a new score landed. Rank is 1-based and 0 when the
// score did not make the list.
type AddResult struct {
	Entries     []HighScore
	Rank        int
	NewTopThree bool
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and creates if needed) the store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

/* ======================
   Raw key/value access
   ====================== */

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

/* ======================
   High scores
   ====================== */

// HighScores returns the stored list. A corrupted value is logged and read
// as an empty list.
func (s *Store) HighScores(ctx context.Context) ([]HighScore, error) {
	raw, err := s.get(ctx, KeyHighScores)
	if errors.Is(err, ErrNotFound) {
		return []HighScore{}, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []HighScore
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Println("Failed to parse high scores, resetting:", err)
		return []HighScore{}, nil
	}
	if entries == nil {
		entries = []HighScore{}
	}
	return entries, nil
}

// Add records score, keeps the list sorted by score descending and trims it
// to MaxEntries. Equal scores keep insertion order.
func (s *Store) Add(ctx context.Context, score int) (AddResult, error) {
	entries, err := s.HighScores(ctx)
	if err != nil {
		return AddResult{}, err
	}

	now := s.now()
	entry := HighScore{
		Score:     score,
		Date:      now.Format("1/2/2006"),
		Timestamp: now.UnixMilli(),
	}
	entries = append(entries, entry)
	newIndex := len(entries) - 1

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return entries[order[a]].Score > entries[order[b]].Score
	})

	sorted := make([]HighScore, 0, MaxEntries)
	rank := 0
	for pos, idx := range order {
		if pos >= MaxEntries {
			break
		}
		sorted = append(sorted, entries[idx])
		if idx == newIndex {
			rank = pos + 1
		}
	}

	data, err := json.Marshal(sorted)
	if err != nil {
		return AddResult{}, fmt.Errorf("encode high scores: %w", err)
	}
	if err := s.put(ctx, KeyHighScores, string(data)); err != nil {
		return AddResult{}, err
	}

	return AddResult{
		Entries:     sorted,
		Rank:        rank,
		NewTopThree: rank > 0 && rank <= topThree,
	}, nil
}

// Best returns the top local score, or 0 for an empty list.
func (s *Store) Best(ctx context.Context) (int, error) {
	entries, err := s.HighScores(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	return entries[0].Score, nil
}

/* ======================
   Player name
   ====================== */

// PlayerName returns the cached display name or ErrNotFound.
func (s *Store) PlayerName(ctx context.Context) (string, error) {
	raw, err := s.get(ctx, KeyPlayerName)
	if err != nil {
		return "", err
	}
	var name string
	if err := json.Unmarshal([]byte(raw), &name); err != nil || strings.TrimSpace(name) == "" {
		return "", ErrNotFound
	}
	return name, nil
}

func (s *Store) SetPlayerName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("player name is required")
	}
	data, err := json.Marshal(name)
	if err != nil {
		return fmt.Errorf("encode player name: %w", err)
	}
	return s.put(ctx, KeyPlayerName, string(data))
}

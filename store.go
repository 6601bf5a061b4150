package main

import (
	"context"
	"database/sql"
	"time"
)

type ScoreRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type scoreQuery struct {
	Name   string
	Limit  int
	Offset int
}

// ScoreStore is the persistence the handlers need. The Postgres store is the
// only production implementation.
type ScoreStore interface {
	InsertScore(ctx context.Context, name string, score int) error
	ListScores(ctx context.Context, q scoreQuery) ([]ScoreRow, int, error)
	AllowSubmission(ctx context.Context, ip string, limit int, window time.Duration) (bool, int, error)
	Ping(ctx context.Context) error
}

type pgStore struct {
	db *sql.DB
}

func newPGStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) InsertScore(ctx context.Context, name string, score int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (name, score, created_at)
		VALUES ($1, $2, NOW())
	`, name, score)
	return err
}

func (s *pgStore) AllowSubmission(ctx context.Context, ip string, limit int, window time.Duration) (bool, int, error) {
	return checkScoreRateLimit(ctx, s.db, ip, limit, window)
}

package main

import (
	"context"
	"database/sql"
	"log"
)

const startupAdvisoryLockID int64 = 824173921

// acquireStartupLock pins one connection and blocks until it holds the
// migration lock. Release it with releaseStartupLock.
func acquireStartupLock(ctx context.Context, db *sql.DB) (*sql.Conn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, startupAdvisoryLockID); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func releaseStartupLock(ctx context.Context, conn *sql.Conn) {
	if conn == nil {
		return
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, startupAdvisoryLockID); err != nil {
		log.Println("Failed to release startup lock:", err)
	}
	_ = conn.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scores (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		score INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS scores_score_idx ON scores (score DESC, created_at ASC)`,
	`CREATE INDEX IF NOT EXISTS scores_name_idx ON scores (name, score DESC)`,
	`CREATE TABLE IF NOT EXISTS score_rate_limits (
		ip TEXT PRIMARY KEY,
		window_start TIMESTAMPTZ NOT NULL,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// ensureSchema creates the tables under the startup lock so concurrent
// instances do not race on DDL.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	conn, err := acquireStartupLock(ctx, db)
	if err != nil {
		return err
	}
	defer releaseStartupLock(ctx, conn)

	for _, stmt := range schemaStatements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	log.Println("Schema ready")
	return nil
}

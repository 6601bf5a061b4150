package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// checkScoreRateLimit counts submissions per IP in a fixed window. It returns
// whether the submission is allowed and, when not, the seconds until the
// window resets.
func checkScoreRateLimit(ctx context.Context, db *sql.DB, ip string, limit int, window time.Duration) (bool, int, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" || limit <= 0 || window <= 0 {
		return true, 0, nil
	}

	now := time.Now().UTC()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	var windowStart time.Time
	var attempts int
	err = tx.QueryRowContext(ctx, `
		SELECT window_start, attempt_count
		FROM score_rate_limits
		WHERE ip = $1
		FOR UPDATE
	`, ip).Scan(&windowStart, &attempts)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO score_rate_limits (ip, window_start, attempt_count, updated_at)
			VALUES ($1, $2, 1, $2)
			ON CONFLICT (ip) DO UPDATE
			SET attempt_count = score_rate_limits.attempt_count + 1, updated_at = $2
		`, ip, now)
		if err != nil {
			return false, 0, err
		}
		return true, 0, tx.Commit()
	}
	if err != nil {
		return false, 0, err
	}

	elapsed := now.Sub(windowStart)
	if elapsed >= window {
		_, err = tx.ExecContext(ctx, `
			UPDATE score_rate_limits
			SET window_start = $2,
				attempt_count = 1,
				updated_at = $2
			WHERE ip = $1
		`, ip, now)
		if err != nil {
			return false, 0, err
		}
		return true, 0, tx.Commit()
	}

	if attempts >= limit {
		return false, retryAfterSeconds(window, elapsed), tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE score_rate_limits
		SET attempt_count = attempt_count + 1,
			updated_at = $2
		WHERE ip = $1
	`, ip, now)
	if err != nil {
		return false, 0, err
	}
	return true, 0, tx.Commit()
}

func retryAfterSeconds(window, elapsed time.Duration) int {
	retryAfter := int((window - elapsed + time.Second - 1) / time.Second)
	if retryAfter < 0 {
		return 0
	}
	return retryAfter
}

// startRateLimitPruner drops rate-limit rows whose window ended long ago.
func startRateLimitPruner(db *sql.DB, window time.Duration) {
	if window <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			cutoff := time.Now().UTC().Add(-2 * window)
			result, err := db.Exec(`DELETE FROM score_rate_limits WHERE updated_at < $1`, cutoff)
			if err != nil {
				log.Println("Rate limit prune failed:", err)
				continue
			}
			if n, err := result.RowsAffected(); err == nil && n > 0 {
				log.Println("Pruned rate limit rows:", n)
			}
		}
	}()
}

// clientIP prefers the first X-Forwarded-For hop, then the connection address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

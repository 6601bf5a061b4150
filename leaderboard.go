package main

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const defaultLeaderboardLimit = 10

type leaderboardFilters struct {
	Name  string
	Page  int
	Limit int
}

type LeaderboardResponse struct {
	Data  []ScoreRow `json:"data"`
	Count int        `json:"count"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

func (s *pgStore) ListScores(ctx context.Context, q scoreQuery) ([]ScoreRow, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM scores
		WHERE ($1 = '' OR name = $1)
	`, q.Name).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, score, created_at
		FROM scores
		WHERE ($1 = '' OR name = $1)
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, q.Name, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := []ScoreRow{}
	for rows.Next() {
		var row ScoreRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Score, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		row.CreatedAt = row.CreatedAt.UTC()
		results = append(results, row)
	}
	return results, total, rows.Err()
}

func listScores(w http.ResponseWriter, r *http.Request, store ScoreStore, maxLimit int) {
	if store == nil {
		log.Println("Leaderboard requested but no database is configured")
		writeError(w, http.StatusInternalServerError, "Server configuration error")
		return
	}

	filters, ok := parseLeaderboardFilters(r, maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid page")
		return
	}
	results, total, err := store.ListScores(r.Context(), scoreQuery{
		Name:   filters.Name,
		Limit:  filters.Limit,
		Offset: filters.Page * filters.Limit,
	})
	if err != nil {
		log.Println("Leaderboard query failed:", err)
		writeError(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Data:  results,
		Count: total,
		Page:  filters.Page,
		Limit: filters.Limit,
	})
}

// parseLeaderboardFilters reads a zero-based page and a limit clamped to
// [1, maxLimit]. It reports false when page*limit would not fit an int32
// offset.
func parseLeaderboardFilters(r *http.Request, maxLimit int) (leaderboardFilters, bool) {
	query := r.URL.Query()
	page := parseNonNegativeInt(query.Get("page"), 0)
	limit := parseNonNegativeInt(query.Get("limit"), defaultLeaderboardLimit)
	if limit < 1 {
		limit = defaultLeaderboardLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if page > math.MaxInt32/limit {
		return leaderboardFilters{}, false
	}
	return leaderboardFilters{
		Name:  normalizePlayerName(query.Get("name")),
		Page:  page,
		Limit: limit,
	}, true
}

func parseNonNegativeInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

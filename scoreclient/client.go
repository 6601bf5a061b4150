// Package scoreclient talks to the leaderboard server.
package scoreclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type ScoreRow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type LeaderboardPage struct {
	Data  []ScoreRow `json:"data"`
	Count int        `json:"count"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

type submitRequest struct {
	Score int    `json:"score"`
	Name  string `json:"name,omitempty"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status     int
	Message    string
	RetryAfter int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("leaderboard server returned %d", e.Status)
	}
	return fmt.Sprintf("leaderboard server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Submit posts one score. An empty name lets the server pick a placeholder.
func (c *Client) Submit(ctx context.Context, score int, name string) error {
	body, err := json.Marshal(submitRequest{Score: score, Name: strings.TrimSpace(name)})
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scores", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit score: %w", err)
	}
	defer res.Body.Close()

	if err := checkStatus(res); err != nil {
		return err
	}
	var response submitResponse
	if err := decodeJSON(res.Body, &response); err != nil {
		return fmt.Errorf("decode submit response: %w", err)
	}
	if !response.Success {
		if response.Error == "" {
			return errors.New("score not accepted")
		}
		return errors.New(response.Error)
	}
	return nil
}

// Leaderboard fetches one zero-based page of the global board.
func (c *Client) Leaderboard(ctx context.Context, page, limit int) (*LeaderboardPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	return c.fetch(ctx, query)
}

// PlayerScores fetches the best scores recorded under name.
func (c *Client) PlayerScores(ctx context.Context, name string, limit int) ([]ScoreRow, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("page", "0")
	query.Set("limit", strconv.Itoa(limit))
	page, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) fetch(ctx context.Context, query url.Values) (*LeaderboardPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/scores?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer res.Body.Close()

	if err := checkStatus(res); err != nil {
		return nil, err
	}
	var page LeaderboardPage
	if err := decodeJSON(res.Body, &page); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return &page, nil
}

func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	statusErr := &StatusError{Status: res.StatusCode}
	var payload errorResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err == nil {
		statusErr.Message = payload.Error
		statusErr.RetryAfter = payload.RetryAfter
	}
	return statusErr
}

func decodeJSON(reader io.Reader, target interface{}) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

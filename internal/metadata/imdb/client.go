// Package imdb implements the IMDb suggestion client used as the
// secondary search source.
package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/config"
)

// Suggestion is a normalized IMDb suggestion hit.
type Suggestion struct {
	ID        string
	Title     string
	Year      *int
	Kind      string // "movie" or "series"
	TypeLabel string
	PosterURL string
}

type suggestionItem struct {
	ID    string `json:"id"`
	Label string `json:"l"`
	Year  int    `json:"y"`
	Type  string `json:"q"`
	Image struct {
		ImageURL string `json:"imageUrl"`
	} `json:"i"`
}

type suggestionResponse struct {
	Items []suggestionItem `json:"d"`
}

// Client is an IMDb suggestion API client. When disabled it returns
// empty results instead of errors, so the primary search path is never
// blocked on it.
type Client struct {
	httpClient *http.Client
	config     config.IMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new IMDb suggestion client.
func NewClient(cfg config.IMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "imdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "imdb"
}

// SearchSuggestions queries the IMDb suggestion endpoint. A disabled
// client or a blank query yields an empty result, not an error.
func (c *Client) SearchSuggestions(ctx context.Context, query string) ([]Suggestion, error) {
	if !c.config.Enabled {
		return nil, nil
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/%s/%s.json",
		strings.TrimRight(c.config.BaseURL, "/"),
		shardChar(trimmed),
		url.PathEscape(trimmed),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("IMDb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 250))
		return nil, fmt.Errorf("IMDb request failed (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response suggestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode IMDb response: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(response.Items))
	for _, item := range response.Items {
		if item.ID == "" || item.Label == "" {
			continue
		}

		typeLabel := strings.ToLower(item.Type)
		kind := "movie"
		if strings.Contains(typeLabel, "tv") {
			kind = "series"
		}

		s := Suggestion{
			ID:        item.ID,
			Title:     item.Label,
			Kind:      kind,
			TypeLabel: typeLabel,
			PosterURL: item.Image.ImageURL,
		}
		if item.Year > 0 {
			year := item.Year
			s.Year = &year
		}
		suggestions = append(suggestions, s)
	}

	c.logger.Debug().
		Str("query", trimmed).
		Int("results", len(suggestions)).
		Msg("Suggestion search completed")

	return suggestions, nil
}

// shardChar picks the single-character path segment the suggestion API
// shards on: the first alphanumeric character of the query, lowercased,
// falling back to "a" when the query has none.
func shardChar(query string) string {
	for _, r := range query {
		switch {
		case r >= 'a' && r <= 'z':
			return string(r)
		case r >= 'A' && r <= 'Z':
			return string(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			return string(r)
		}
	}
	return "a"
}

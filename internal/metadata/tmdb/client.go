// Package tmdb implements the TMDB API client used as the primary
// catalog provider.
package tmdb

import (
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

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrInvalidKind   = errors.New("invalid TMDB media type")
	ErrNoMatch       = errors.New("no TMDB match found")
	ErrAPIError      = errors.New("TMDB API error")
)

const posterSize = "w342"

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// SearchMulti searches movies and TV in one call (first page only).
func (c *Client) SearchMulti(ctx context.Context, query string, page int) ([]MultiResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if page < 1 {
		page = 1
	}

	endpoint := fmt.Sprintf("%s/search/multi", strings.TrimRight(c.config.BaseURL, "/"))
	params := c.baseParams()
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var response searchResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(response.Results)).
		Msg("Multi search completed")

	return response.Results, nil
}

// SearchByKind searches a single media type by title, optionally filtered
// by year, and returns the first hit.
func (c *Client) SearchByKind(ctx context.Context, kind Kind, title string, year int) (*MultiResult, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/search/%s", strings.TrimRight(c.config.BaseURL, "/"), kind)
	params := c.baseParams()
	params.Set("query", title)
	params.Set("page", "1")
	if year > 0 {
		if kind == KindMovie {
			params.Set("year", strconv.Itoa(year))
		} else {
			params.Set("first_air_date_year", strconv.Itoa(year))
		}
	}

	var response searchResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	if len(response.Results) == 0 {
		return nil, ErrNoMatch
	}

	first := response.Results[0]
	if first.MediaType == "" {
		first.MediaType = string(kind)
	}
	return &first, nil
}

// GetDetails fetches full details for a movie or TV item, including the
// externally-linked id block.
func (c *Client) GetDetails(ctx context.Context, kind Kind, id int) (*Details, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/%s/%d", strings.TrimRight(c.config.BaseURL, "/"), kind, id)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("language", "en-US")
	params.Set("append_to_response", "external_ids")

	var details Details
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		return nil, fmt.Errorf("%w: empty details response", ErrAPIError)
	}

	c.logger.Debug().
		Int("id", id).
		Str("kind", string(kind)).
		Str("title", details.DisplayTitle()).
		Msg("Got details")

	return &details, nil
}

// FindByIMDbID resolves an IMDb id to a TMDB id and media type.
// Movie matches win over TV matches, as in the upstream API ordering.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (*FindResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/find/%s", strings.TrimRight(c.config.BaseURL, "/"), url.PathEscape(imdbID))
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("external_source", "imdb_id")

	var response findResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	if len(response.MovieResults) > 0 {
		return &FindResult{ID: response.MovieResults[0].ID, Kind: KindMovie}, nil
	}
	if len(response.TVResults) > 0 {
		return &FindResult{ID: response.TVResults[0].ID, Kind: KindTV}, nil
	}

	return nil, ErrNoMatch
}

// PosterURL builds a full poster URL from a TMDB poster path.
// Returns an empty string for an empty path.
func (c *Client) PosterURL(posterPath string) string {
	if strings.TrimSpace(posterPath) == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimRight(c.config.ImageBaseURL, "/"), posterSize, posterPath)
}

func (c *Client) baseParams() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("include_adult", "false")
	params.Set("language", "en-US")
	return params
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("TMDB request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 250))
		return fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode TMDB response: %w", err)
	}

	return nil
}

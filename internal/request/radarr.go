package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/config"
)

// ErrNotConfigured marks an acquisition gateway whose connection
// settings are incomplete.
var ErrNotConfigured = errors.New("gateway is not configured")

const gatewayBodyLimit = 280

// RadarrClient submits movie acquisition commands to a Radarr instance.
type RadarrClient struct {
	httpClient *http.Client
	config     config.ArrConfig
	logger     zerolog.Logger
}

// NewRadarrClient creates a new Radarr client.
func NewRadarrClient(cfg config.ArrConfig, logger zerolog.Logger) *RadarrClient {
	return &RadarrClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "radarr").Logger(),
	}
}

// IsConfigured returns true when URL, API key, and root folder are set.
func (c *RadarrClient) IsConfigured() bool {
	return c.config.URL != "" && c.config.APIKey != "" && c.config.RootFolder != ""
}

type radarrAddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

type radarrMoviePayload struct {
	Title               string           `json:"title"`
	QualityProfileID    int              `json:"qualityProfileId"`
	TMDBID              int              `json:"tmdbId"`
	RootFolderPath      string           `json:"rootFolderPath"`
	Monitored           bool             `json:"monitored"`
	MinimumAvailability string           `json:"minimumAvailability"`
	AddOptions          radarrAddOptions `json:"addOptions"`
	Year                int              `json:"year,omitempty"`
	IMDBID              string           `json:"imdbId,omitempty"`
}

// RequestMovie adds a monitored movie and kicks off a search. The raw
// response body is returned even on failure for audit logging.
func (c *RadarrClient) RequestMovie(ctx context.Context, req MovieRequest) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("%w: check radarr url, api key, and root folder", ErrNotConfigured)
	}

	payload := radarrMoviePayload{
		Title:               req.Title,
		QualityProfileID:    qualityProfileID(c.config, req.Quality),
		TMDBID:              req.TMDBID,
		RootFolderPath:      c.config.RootFolder,
		Monitored:           true,
		MinimumAvailability: "released",
		AddOptions:          radarrAddOptions{SearchForMovie: true},
		IMDBID:              req.IMDBID,
	}
	if req.Year != nil && *req.Year > 0 {
		payload.Year = *req.Year
	}

	endpoint := strings.TrimRight(c.config.URL, "/") + "/api/v3/movie"
	body, err := postArrJSON(ctx, c.httpClient, endpoint, c.config.APIKey, payload, "Radarr")
	if err != nil {
		c.logger.Error().Err(err).Str("title", req.Title).Int("tmdbId", req.TMDBID).Msg("Movie request failed")
		return body, err
	}

	c.logger.Info().Str("title", req.Title).Int("tmdbId", req.TMDBID).Msg("Movie request queued")
	return body, nil
}

// qualityProfileID maps a quality tier to the configured profile id.
// Anything other than ultra falls back to the standard profile.
func qualityProfileID(cfg config.ArrConfig, quality Quality) int {
	if quality == QualityUltra {
		return cfg.QualityProfileUltra
	}
	return cfg.QualityProfileStandard
}

// postArrJSON posts a JSON payload with Radarr/Sonarr-style API key
// auth and returns the raw response body. Non-2xx responses yield the
// body alongside the error.
func postArrJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, payload any, service string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", service, err)
	}
	body := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("%s request failed (HTTP %d): %s", service, resp.StatusCode, truncateBody(body))
	}

	return body, nil
}

func truncateBody(body string) string {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) > gatewayBodyLimit {
		return trimmed[:gatewayBodyLimit] + "..."
	}
	return trimmed
}

package request

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/config"
)

// SonarrClient submits series acquisition commands to a Sonarr instance.
type SonarrClient struct {
	httpClient *http.Client
	config     config.SonarrConfig
	logger     zerolog.Logger
}

// NewSonarrClient creates a new Sonarr client.
func NewSonarrClient(cfg config.SonarrConfig, logger zerolog.Logger) *SonarrClient {
	return &SonarrClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "sonarr").Logger(),
	}
}

// IsConfigured returns true when URL, API key, and root folder are set.
func (c *SonarrClient) IsConfigured() bool {
	return c.config.URL != "" && c.config.APIKey != "" && c.config.RootFolder != ""
}

type sonarrAddOptions struct {
	SearchForMissingEpisodes bool `json:"searchForMissingEpisodes"`
}

type sonarrSeriesPayload struct {
	Title             string           `json:"title"`
	TVDBID            int              `json:"tvdbId"`
	QualityProfileID  int              `json:"qualityProfileId"`
	LanguageProfileID int              `json:"languageProfileId"`
	RootFolderPath    string           `json:"rootFolderPath"`
	SeasonFolder      bool             `json:"seasonFolder"`
	Monitored         bool             `json:"monitored"`
	Seasons           []SeasonMonitor  `json:"seasons"`
	AddOptions        sonarrAddOptions `json:"addOptions"`
}

// RequestSeries adds a monitored series with per-season monitoring and
// kicks off a search for missing episodes.
func (c *SonarrClient) RequestSeries(ctx context.Context, req SeriesRequest) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("%w: check sonarr url, api key, and root folder", ErrNotConfigured)
	}

	payload := sonarrSeriesPayload{
		Title:             req.Title,
		TVDBID:            req.TVDBID,
		QualityProfileID:  qualityProfileID(c.config.ArrConfig, req.Quality),
		LanguageProfileID: c.config.LanguageProfileID,
		RootFolderPath:    c.config.RootFolder,
		SeasonFolder:      true,
		Monitored:         true,
		Seasons:           req.Seasons,
		AddOptions:        sonarrAddOptions{SearchForMissingEpisodes: true},
	}

	endpoint := strings.TrimRight(c.config.URL, "/") + "/api/v3/series"
	body, err := postArrJSON(ctx, c.httpClient, endpoint, c.config.APIKey, payload, "Sonarr")
	if err != nil {
		c.logger.Error().Err(err).Str("title", req.Title).Int("tvdbId", req.TVDBID).Msg("Series request failed")
		return body, err
	}

	c.logger.Info().
		Str("title", req.Title).
		Int("tvdbId", req.TVDBID).
		Int("seasons", len(req.Seasons)).
		Msg("Series request queued")
	return body, nil
}

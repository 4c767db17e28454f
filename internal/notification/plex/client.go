// Package plex implements the Plex library refresh client.
package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/config"
)

var ErrNotConfigured = errors.New("Plex is not fully configured")

// Client triggers section rescans on a Plex server.
type Client struct {
	httpClient *http.Client
	config     config.PlexConfig
	logger     zerolog.Logger
}

// NewClient creates a new Plex client.
func NewClient(cfg config.PlexConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "plex").Logger(),
	}
}

// IsConfigured returns true when URL, token, and at least one section
// id are set.
func (c *Client) IsConfigured() bool {
	return c.config.URL != "" && c.config.Token != "" && len(c.config.SectionIDs) > 0
}

// Refresh asks every configured library section to rescan and returns
// how many accepted. The call fails only when no section could be
// refreshed at all.
func (c *Client) Refresh(ctx context.Context) (int, error) {
	if !c.IsConfigured() {
		return 0, fmt.Errorf("%w: set the url, token, and library section ids", ErrNotConfigured)
	}

	refreshed := 0
	for _, sectionID := range c.config.SectionIDs {
		if err := c.refreshSection(ctx, sectionID); err != nil {
			c.logger.Warn().Err(err).Str("section", sectionID).Msg("Section refresh failed")
			continue
		}
		refreshed++
	}

	if refreshed == 0 {
		return 0, errors.New("failed to refresh any Plex library section")
	}

	c.logger.Info().Int("refreshed", refreshed).Msg("Triggered library refresh")
	return refreshed, nil
}

func (c *Client) refreshSection(ctx context.Context, sectionID string) error {
	endpoint := fmt.Sprintf("%s/library/sections/%s/refresh?X-Plex-Token=%s",
		strings.TrimRight(c.config.URL, "/"),
		url.PathEscape(sectionID),
		url.QueryEscape(c.config.Token),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Plex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Plex request failed (HTTP %d)", resp.StatusCode)
	}

	return nil
}

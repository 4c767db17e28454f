// Package downloads implements the download queue client and the
// idempotent completion pipeline over it.
package downloads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/requesterrr/requesterrr/internal/config"
)

var (
	ErrNotConfigured = errors.New("qBittorrent credentials are not configured")
	ErrLoginFailed   = errors.New("qBittorrent login failed")
)

// Torrent is one entry of the remote download queue.
type Torrent struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Progress float64 `json:"progress"`
	State    string  `json:"state"`
}

// QBittorrentClient talks to the qBittorrent WebUI API. Session cookies
// from the login endpoint are held in the client's cookie jar; each
// operation re-authenticates so an expired session never fails a run.
type QBittorrentClient struct {
	httpClient *http.Client
	config     config.QBittorrentConfig
	logger     zerolog.Logger
}

// NewQBittorrentClient creates a new qBittorrent WebUI client.
func NewQBittorrentClient(cfg config.QBittorrentConfig, logger zerolog.Logger) *QBittorrentClient {
	jar, _ := cookiejar.New(nil)
	return &QBittorrentClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
			Jar:     jar,
		},
		config: cfg,
		logger: logger.With().Str("component", "qbittorrent").Logger(),
	}
}

// IsConfigured returns true when URL and credentials are set.
func (c *QBittorrentClient) IsConfigured() bool {
	return c.config.URL != "" && c.config.Username != "" && c.config.Password != ""
}

func (c *QBittorrentClient) login(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("username", c.config.Username)
	form.Set("password", c.config.Password)

	endpoint := strings.TrimRight(c.config.URL, "/") + "/api/v2/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qBittorrent login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 280))
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrLoginFailed, resp.StatusCode)
	}
	// The WebUI answers 200 with "Fails." on bad credentials.
	if !strings.Contains(strings.ToLower(strings.TrimSpace(string(body))), "ok") {
		return fmt.Errorf("%w: unexpected response body", ErrLoginFailed)
	}

	return nil
}

// ListCompleted returns every queue item the WebUI reports under the
// "completed" filter.
func (c *QBittorrentClient) ListCompleted(ctx context.Context) ([]Torrent, error) {
	if err := c.login(ctx); err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.config.URL, "/") + "/api/v2/torrents/info?filter=completed"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qBittorrent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 280))
		return nil, fmt.Errorf("qBittorrent request failed (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var torrents []Torrent
	if err := json.NewDecoder(resp.Body).Decode(&torrents); err != nil {
		return nil, fmt.Errorf("failed to decode torrent list: %w", err)
	}

	c.logger.Debug().Int("count", len(torrents)).Msg("Listed completed torrents")
	return torrents, nil
}

// Pause pauses the given torrents in one WebUI call. Blank and
// duplicate hashes are dropped; an effectively empty list is a no-op.
func (c *QBittorrentClient) Pause(ctx context.Context, hashes []string) error {
	unique := dedupeHashes(hashes)
	if len(unique) == 0 {
		return nil
	}

	if err := c.login(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("hashes", strings.Join(unique, "|"))

	endpoint := strings.TrimRight(c.config.URL, "/") + "/api/v2/torrents/pause"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qBittorrent pause request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 280))
		return fmt.Errorf("qBittorrent pause failed (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.logger.Info().Int("count", len(unique)).Msg("Paused torrents")
	return nil
}

func dedupeHashes(hashes []string) []string {
	seen := make(map[string]bool, len(hashes))
	unique := make([]string, 0, len(hashes))
	for _, h := range hashes {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		unique = append(unique, h)
	}
	return unique
}

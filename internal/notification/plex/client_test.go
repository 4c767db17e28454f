package plex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/requesterrr/requesterrr/internal/config"
	"github.com/requesterrr/requesterrr/internal/testutil"
)

func plexConfig(serverURL string, sections ...string) config.PlexConfig {
	return config.PlexConfig{
		URL:        serverURL,
		Token:      "plex-token",
		SectionIDs: sections,
		Timeout:    5,
	}
}

func TestClient_Refresh(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Query().Get("X-Plex-Token") != "plex-token" {
			t.Error("missing X-Plex-Token")
		}
	}))
	defer server.Close()

	client := NewClient(plexConfig(server.URL, "1", "2"), testutil.NopLogger())

	refreshed, err := client.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if refreshed != 2 {
		t.Errorf("refreshed = %d, want 2", refreshed)
	}
	if len(paths) != 2 || paths[0] != "/library/sections/1/refresh" {
		t.Errorf("paths = %v", paths)
	}
}

func TestClient_Refresh_PartialFailureStillSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/library/sections/2/refresh" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	client := NewClient(plexConfig(server.URL, "1", "2"), testutil.NopLogger())

	refreshed, err := client.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v, want success with partial count", err)
	}
	if refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", refreshed)
	}
}

func TestClient_Refresh_AllSectionsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(plexConfig(server.URL, "1", "2"), testutil.NopLogger())

	if _, err := client.Refresh(context.Background()); err == nil {
		t.Error("Refresh() error = nil, want failure when no section refreshed")
	}
}

func TestClient_Refresh_NotConfigured(t *testing.T) {
	client := NewClient(config.PlexConfig{Timeout: 5}, testutil.NopLogger())

	_, err := client.Refresh(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Refresh() error = %v, want ErrNotConfigured", err)
	}
}

package downloads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/requesterrr/requesterrr/internal/config"
	"github.com/requesterrr/requesterrr/internal/testutil"
)

func qbitServer(t *testing.T, loginBody string, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("login form parse error = %v", err)
		}
		if r.PostFormValue("username") != "admin" || r.PostFormValue("password") != "secret" {
			t.Error("login credentials not forwarded")
		}
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "abc", Path: "/"})
		w.Write([]byte(loginBody))
	})
	if handler != nil {
		mux.HandleFunc("/api/v2/torrents/", handler)
	}
	return httptest.NewServer(mux)
}

func newQBitClient(serverURL string) *QBittorrentClient {
	return NewQBittorrentClient(config.QBittorrentConfig{
		URL:      serverURL,
		Username: "admin",
		Password: "secret",
		Timeout:  5,
	}, testutil.NopLogger())
}

func TestQBittorrentClient_ListCompleted(t *testing.T) {
	server := qbitServer(t, "Ok.", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/torrents/info" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("filter") != "completed" {
			t.Error("missing filter=completed")
		}
		if c, err := r.Cookie("SID"); err != nil || c.Value != "abc" {
			t.Error("session cookie not carried over from login")
		}
		w.Write([]byte(`[{"hash":"h1","name":"Release.One","category":"movies","progress":1.0,"state":"uploading"}]`))
	})
	defer server.Close()

	client := newQBitClient(server.URL)
	torrents, err := client.ListCompleted(context.Background())
	if err != nil {
		t.Fatalf("ListCompleted() error = %v", err)
	}
	if len(torrents) != 1 {
		t.Fatalf("torrents = %v", torrents)
	}
	if torrents[0].Hash != "h1" || torrents[0].Progress != 1.0 {
		t.Errorf("torrent = %+v", torrents[0])
	}
}

func TestQBittorrentClient_LoginRejected(t *testing.T) {
	server := qbitServer(t, "Fails.", nil)
	defer server.Close()

	client := newQBitClient(server.URL)
	_, err := client.ListCompleted(context.Background())
	if !errors.Is(err, ErrLoginFailed) {
		t.Errorf("ListCompleted() error = %v, want ErrLoginFailed", err)
	}
}

func TestQBittorrentClient_NotConfigured(t *testing.T) {
	client := NewQBittorrentClient(config.QBittorrentConfig{Timeout: 5}, testutil.NopLogger())

	_, err := client.ListCompleted(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("ListCompleted() error = %v, want ErrNotConfigured", err)
	}
}

func TestQBittorrentClient_Pause(t *testing.T) {
	var gotHashes string
	server := qbitServer(t, "Ok.", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/torrents/pause" {
			t.Errorf("path = %s", r.URL.Path)
		}
		r.ParseForm()
		gotHashes = r.PostFormValue("hashes")
	})
	defer server.Close()

	client := newQBitClient(server.URL)
	err := client.Pause(context.Background(), []string{" h1 ", "h2", "h1", ""})
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if gotHashes != "h1|h2" {
		t.Errorf("hashes = %q, want deduped pipe-joined h1|h2", gotHashes)
	}
}

func TestQBittorrentClient_Pause_EmptyListSkipsLogin(t *testing.T) {
	// No server at all: an empty effective list must not hit the network.
	client := newQBitClient("http://127.0.0.1:0")

	if err := client.Pause(context.Background(), []string{"", "  "}); err != nil {
		t.Errorf("Pause(blank hashes) error = %v, want nil no-op", err)
	}
}

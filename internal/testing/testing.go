// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
)

// FakeArtist is an artist credited on a [FakeTrack].
type FakeArtist struct {
	ID   string
	Name string
}

// FakeTrack is a catalog entry served by [FakeSpotify].
type FakeTrack struct {
	ID         string
	Name       string
	ISRC       string
	Popularity int
	ImageURL   string
	Artists    []FakeArtist
}

// FakeSpotify is an in-process stand-in for the Spotify accounts and Web API endpoints.
//
// The token endpoint requires HTTP Basic credentials and grant_type=client_credentials. Search accepts only
// bearer tokens it issued.
type FakeSpotify struct {
	Server       *httptest.Server
	ClientID     string
	ClientSecret string

	mu       sync.Mutex
	tracks   map[string][]FakeTrack
	issued   map[string]bool
	reject   int
	failAuth bool
	status   int

	tokenRequests  atomic.Int32
	searchRequests atomic.Int32
}

// NewFakeSpotify starts a fake catalog and registers its shutdown with t.Cleanup.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		tracks:       make(map[string][]FakeTrack),
		issued:       make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.handleToken)
	mux.HandleFunc("GET /v1/search", f.handleSearch)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// TokenURL is the client-credentials endpoint.
func (f *FakeSpotify) TokenURL() string { return f.Server.URL + "/api/token" }

// APIURL is the Web API base URL.
func (f *FakeSpotify) APIURL() string { return f.Server.URL + "/v1" }

// AddTrack makes track discoverable by its ISRC. Tracks sharing an ISRC are returned in insertion order.
func (f *FakeSpotify) AddTrack(track FakeTrack) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks[track.ISRC] = append(f.tracks[track.ISRC], track)
}

// RejectSearches answers the next n searches with 401 regardless of token.
func (f *FakeSpotify) RejectSearches(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reject = n
}

// FailTokens makes the token endpoint reject every exchange.
func (f *FakeSpotify) FailTokens(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAuth = fail
}

// SearchStatus forces every search to answer with status; 0 restores normal behaviour.
func (f *FakeSpotify) SearchStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// TokenRequests counts calls to the token endpoint.
func (f *FakeSpotify) TokenRequests() int { return int(f.tokenRequests.Load()) }

// SearchRequests counts calls to the search endpoint.
func (f *FakeSpotify) SearchRequests() int { return int(f.searchRequests.Load()) }

func (f *FakeSpotify) handleToken(w http.ResponseWriter, r *http.Request) {
	n := f.tokenRequests.Add(1)

	id, secret, ok := r.BasicAuth()
	if !ok || id != f.ClientID || secret != f.ClientSecret {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	f.mu.Lock()
	if f.failAuth {
		f.mu.Unlock()
		writeFakeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server_error"})
		return
	}
	token := fmt.Sprintf("token-%d", n)
	f.issued[token] = true
	f.mu.Unlock()

	writeFakeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *FakeSpotify) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.searchRequests.Add(1)

	f.mu.Lock()
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	authorized := f.issued[token]
	if f.reject > 0 {
		f.reject--
		authorized = false
	}
	status := f.status
	isrc := strings.TrimPrefix(r.URL.Query().Get("q"), "isrc:")
	tracks := append([]FakeTrack(nil), f.tracks[isrc]...)
	f.mu.Unlock()

	if !authorized {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"status": 401, "message": "The access token expired"},
		})
		return
	}
	if status != 0 {
		writeFakeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": "forced"}})
		return
	}

	items := make([]map[string]any, 0, len(tracks))
	for _, track := range tracks {
		items = append(items, fakeTrackJSON(track))
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"tracks": map[string]any{"items": items, "total": len(items)},
	})
}

func fakeTrackJSON(track FakeTrack) map[string]any {
	artists := make([]map[string]any, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, map[string]any{
			"id":            a.ID,
			"name":          a.Name,
			"uri":           "spotify:artist:" + a.ID,
			"external_urls": map[string]string{"spotify": "https://open.spotify.com/artist/" + a.ID},
		})
	}

	images := []map[string]any{}
	if track.ImageURL != "" {
		images = append(images, map[string]any{"url": track.ImageURL, "height": 640, "width": 640})
	}

	return map[string]any{
		"id":           track.ID,
		"name":         track.Name,
		"popularity":   track.Popularity,
		"uri":          "spotify:track:" + track.ID,
		"artists":      artists,
		"album":        map[string]any{"id": "album-" + track.ID, "name": track.Name, "images": images},
		"external_ids": map[string]string{"isrc": track.ISRC},
	}
}

func writeFakeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/models"
	"github.com/desertthunder/tracklib/internal/shared"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultMaxAttempts bounds search attempts per ISRC lookup, including the first one.
	DefaultMaxAttempts = 3
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
}

// CoverImage returns the first album image, or the zero [models.Image] when the album has none.
func (t SpotifyTrack) CoverImage() models.Image {
	if len(t.Album.Images) == 0 {
		return models.Image{}
	}
	img := t.Album.Images[0]
	return models.Image{URL: img.URL, Height: img.Height, Width: img.Width}
}

// SpotifyArtist represents a (simplified) Spotify artist as embedded in a track.
type SpotifyArtist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// ProfileURL returns the artist's public Spotify page.
func (a SpotifyArtist) ProfileURL() string {
	return a.ExternalURLs.Spotify
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
	URI         string         `json:"uri"`
}

type searchTracks struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}

// SpotifySearchResponse is the body of GET /search?type=track.
type SpotifySearchResponse struct {
	Tracks searchTracks `json:"tracks"`
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// Requests are authorized by a [TokenSession], paced by a rate limiter and guarded by a circuit breaker.
type SpotifyService struct {
	session     *TokenSession
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[*SpotifySearchResponse]
	maxAttempts int
	logger      *log.Logger
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL overrides the Web API base URL.
func WithBaseURL(baseURL string) SpotifyOption {
	return func(s *SpotifyService) {
		if baseURL != "" {
			s.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(client *http.Client) SpotifyOption {
	return func(s *SpotifyService) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithRateLimit paces API requests; a non-positive rate disables limiting.
func WithRateLimit(requestsPerSecond int) SpotifyOption {
	return func(s *SpotifyService) {
		if requestsPerSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithMaxAttempts sets the per-search attempt budget.
func WithMaxAttempts(n int) SpotifyOption {
	return func(s *SpotifyService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) SpotifyOption {
	return func(s *SpotifyService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpotifyService creates a catalog client authorized by session.
func NewSpotifyService(session *TokenSession, opts ...SpotifyOption) (*SpotifyService, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: token session is required", shared.ErrNotAuthenticated)
	}

	s := &SpotifyService{
		session:     session,
		baseURL:     spotifyBaseURL,
		httpClient:  http.DefaultClient,
		maxAttempts: DefaultMaxAttempts,
		logger:      shared.NewLogger(nil),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.breaker = newSearchBreaker(s.logger)
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SearchByISRC returns the catalog tracks whose ISRC equals isrc, in upstream order.
//
// An authorization failure refreshes the session and retries, up to the attempt budget of this call.
// Errors: [shared.ErrTrackNotFound] when nothing matches, [shared.ErrAuthExhausted] when every attempt was rejected.
func (s *SpotifyService) SearchByISRC(ctx context.Context, isrc string) ([]SpotifyTrack, error) {
	if !s.session.Valid() {
		// A failed refresh is logged by the session; the first attempt then spends budget.
		_ = s.session.Refresh(ctx)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := s.search(ctx, isrc)
		if err == nil {
			if len(result.Tracks.Items) == 0 {
				return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, isrc)
			}
			return result.Tracks.Items, nil
		}

		if !errors.Is(err, shared.ErrTokenExpired) {
			return nil, err
		}

		if attempt < s.maxAttempts {
			s.logger.Info("retrying search with refreshed token", "isrc", isrc, "attempt", attempt+1, "max", s.maxAttempts)
			_ = s.session.Refresh(ctx)
		}
	}

	s.logger.Error("spotify authorization retries exhausted", "isrc", isrc, "attempts", s.maxAttempts)
	return nil, fmt.Errorf("%w: %d attempts for %s", shared.ErrAuthExhausted, s.maxAttempts, isrc)
}

// search performs a single search attempt through the limiter and circuit breaker.
func (s *SpotifyService) search(ctx context.Context, isrc string) (*SpotifySearchResponse, error) {
	result, err := s.breaker.Execute(func() (*SpotifySearchResponse, error) {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		params := url.Values{}
		params.Set("q", "isrc:"+isrc)
		params.Set("type", "track")

		var response SpotifySearchResponse
		if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), &response); err != nil {
			return nil, err
		}
		return &response, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: spotify circuit %s: %v", shared.ErrServiceUnavailable, s.breaker.State(), err)
	}
	return result, err
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.session.AccessToken())
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// newSearchBreaker opens after five consecutive upstream failures and probes again after 30s.
// Authorization rejections and cancelled requests are not upstream failures.
func newSearchBreaker(logger *log.Logger) *gobreaker.CircuitBreaker[*SpotifySearchResponse] {
	return gobreaker.NewCircuitBreaker[*SpotifySearchResponse](gobreaker.Settings{
		Name:        "spotify-search",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, shared.ErrTokenExpired) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

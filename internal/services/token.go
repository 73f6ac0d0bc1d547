package services

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSession owns the bearer token used for catalog requests.
//
// Refresh performs a client-credentials exchange; the resulting token is published atomically so
// concurrent ingests always read a whole token. Racing refreshes are allowed and the last one wins.
type TokenSession struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	token      atomic.Pointer[oauth2.Token]
	logger     *log.Logger
}

// SessionOption configures a [TokenSession].
type SessionOption func(*TokenSession)

// WithTokenURL overrides the identity endpoint.
func WithTokenURL(tokenURL string) SessionOption {
	return func(s *TokenSession) {
		if tokenURL != "" {
			s.config.TokenURL = tokenURL
		}
	}
}

// WithSessionHTTPClient sets the HTTP client used for the token exchange.
func WithSessionHTTPClient(client *http.Client) SessionOption {
	return func(s *TokenSession) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithSessionLogger sets the logger used to report refresh failures.
func WithSessionLogger(logger *log.Logger) SessionOption {
	return func(s *TokenSession) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewTokenSession configures a session for the given client credentials.
//
// No token is held until the first successful [TokenSession.Refresh].
func NewTokenSession(clientID, clientSecret string, opts ...SessionOption) (*TokenSession, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	s := &TokenSession{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: http.DefaultClient,
		logger:     shared.NewLogger(nil),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Refresh exchanges the client credentials for a new access token.
//
// The exchange is a form-encoded grant_type=client_credentials POST authenticated with HTTP Basic auth.
// Failures are logged and returned wrapping [shared.ErrRefreshFailed]; the previous token is kept.
func (s *TokenSession) Refresh(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.config.Token(ctx)
	if err != nil {
		s.logger.Error("spotify authorization failed", "token_url", s.config.TokenURL, "error", err)
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	s.token.Store(token)
	s.logger.Debug("spotify token refreshed", "expires", token.Expiry)
	return nil
}

// AccessToken returns the current access token, or "" before the first successful refresh.
func (s *TokenSession) AccessToken() string {
	if token := s.token.Load(); token != nil {
		return token.AccessToken
	}
	return ""
}

// Valid reports whether a token is held and not yet expired.
func (s *TokenSession) Valid() bool {
	return s.token.Load().Valid()
}

package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/tracklib/internal/shared"
	tu "github.com/desertthunder/tracklib/internal/testing"
)

func newTestSession(t *testing.T, fake *tu.FakeSpotify) *TokenSession {
	t.Helper()
	session, err := NewTokenSession(fake.ClientID, fake.ClientSecret,
		WithTokenURL(fake.TokenURL()),
		WithSessionHTTPClient(fake.Server.Client()),
		WithSessionLogger(shared.NewLogger(io.Discard)),
	)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

func TestTokenSession(t *testing.T) {
	t.Run("NewTokenSession", func(t *testing.T) {
		tests := []struct {
			name         string
			clientID     string
			clientSecret string
			wantErr      bool
		}{
			{"valid credentials", "id", "secret", false},
			{"missing client id", "", "secret", true},
			{"missing client secret", "id", "", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				session, err := NewTokenSession(tt.clientID, tt.clientSecret)
				if tt.wantErr {
					if !errors.Is(err, shared.ErrMissingCredentials) {
						t.Errorf("expected ErrMissingCredentials, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if session.Valid() {
					t.Error("expected new session to hold no token")
				}
				if session.AccessToken() != "" {
					t.Errorf("expected empty access token, got %q", session.AccessToken())
				}
			})
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("stores issued token", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			session := newTestSession(t, fake)

			if err := session.Refresh(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !session.Valid() {
				t.Error("expected session to be valid after refresh")
			}
			if session.AccessToken() != "token-1" {
				t.Errorf("expected token-1, got %s", session.AccessToken())
			}
			if fake.TokenRequests() != 1 {
				t.Errorf("expected 1 token request, got %d", fake.TokenRequests())
			}
		})

		t.Run("replaces token on each refresh", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			session := newTestSession(t, fake)

			_ = session.Refresh(context.Background())
			_ = session.Refresh(context.Background())
			if session.AccessToken() != "token-2" {
				t.Errorf("expected token-2, got %s", session.AccessToken())
			}
		})

		t.Run("rejected credentials", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			session, _ := NewTokenSession(fake.ClientID, "wrong",
				WithTokenURL(fake.TokenURL()),
				WithSessionLogger(shared.NewLogger(io.Discard)),
			)

			err := session.Refresh(context.Background())
			if !errors.Is(err, shared.ErrRefreshFailed) {
				t.Fatalf("expected ErrRefreshFailed, got %v", err)
			}
			if session.Valid() {
				t.Error("expected session to remain invalid")
			}
		})

		t.Run("failure keeps previous token", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			session := newTestSession(t, fake)

			if err := session.Refresh(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			fake.FailTokens(true)
			if err := session.Refresh(context.Background()); !errors.Is(err, shared.ErrRefreshFailed) {
				t.Fatalf("expected ErrRefreshFailed, got %v", err)
			}
			if session.AccessToken() != "token-1" {
				t.Errorf("expected token-1 to survive failed refresh, got %s", session.AccessToken())
			}
		})

		t.Run("concurrent refreshes publish whole tokens", func(t *testing.T) {
			fake := tu.NewFakeSpotify(t)
			session := newTestSession(t, fake)

			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := session.Refresh(context.Background()); err != nil {
						t.Errorf("unexpected refresh error: %v", err)
					}
					if tok := session.AccessToken(); !strings.HasPrefix(tok, "token-") {
						t.Errorf("unexpected token %q", tok)
					}
				}()
			}
			wg.Wait()

			if fake.TokenRequests() != 10 {
				t.Errorf("expected 10 token requests, got %d", fake.TokenRequests())
			}
		})
	})
}

// Package services defines the [Catalog] interface for ISRC lookups and implements it for the Spotify Web API.
//
// # Authorization
//
// [TokenSession] holds the app-level bearer token obtained with the OAuth2 client-credentials grant
// ([clientcredentials.Config]). There is no user consent step and no refresh token: an expired or rejected
// token is replaced by running the exchange again.
//
// # Spotify Implementation
//
// [SpotifyService.SearchByISRC] issues GET /search?q=isrc:<code>&type=track. A 401 response refreshes the
// session and retries; the budget (default [DefaultMaxAttempts]) belongs to the single call, so concurrent
// ingests never share or drain one another's attempts.
//
// Requests pass through a [rate.Limiter] and a gobreaker circuit breaker. The breaker only counts upstream
// failures: 401s and cancelled contexts leave it closed.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrRefreshFailed] : client-credentials exchange failed
//   - [shared.ErrTokenExpired] : upstream answered 401
//   - [shared.ErrAuthExhausted] : every attempt in the budget was rejected
//   - [shared.ErrTrackNotFound] : search returned zero items
//   - [shared.ErrAPIRequest] : transport failure or non-2xx response
//   - [shared.ErrServiceUnavailable] : circuit breaker is open
package services

// package services defines interface Catalog for looking up recordings in a streaming catalog
//
// Spotify
package services

import (
	"context"
)

// Catalog finds tracks in a music catalog by International Standard Recording Code.
type Catalog interface {
	// SearchByISRC returns every catalog track carrying isrc, in upstream order.
	// Returns [shared.ErrTrackNotFound] when the catalog has no match.
	SearchByISRC(ctx context.Context, isrc string) ([]SpotifyTrack, error)

	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string
}

var _ Catalog = (*SpotifyService)(nil)

// package repositories provides persistence layer implementations for artists and tracks.
//
// Each store implements [EntityStore], enforcing natural-key uniqueness atomically so concurrent ingests
// never create duplicates.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/models"
	"github.com/desertthunder/tracklib/internal/shared"
)

// EntityStore persists artists and tracks keyed by their natural keys.
type EntityStore interface {
	// ArtistByCatalogID returns the artist with the given Spotify ID or [shared.ErrNotFound].
	ArtistByCatalogID(ctx context.Context, spotifyID string) (*models.Artist, error)

	// CreateArtist stores artist unless one with the same Spotify ID exists.
	// Returns the stored artist and whether this call created it.
	CreateArtist(ctx context.Context, artist *models.Artist) (*models.Artist, bool, error)

	// TrackByISRC returns the track with the given ISRC or [shared.ErrNotFound].
	TrackByISRC(ctx context.Context, isrc string) (*models.Track, error)

	// CreateTrack stores track unless one with the same ISRC exists.
	// Returns the stored track and whether this call created it.
	CreateTrack(ctx context.Context, track *models.Track) (*models.Track, bool, error)

	// TracksByArtistName returns, in creation order, the tracks crediting an artist whose name matches
	// name ignoring case.
	TracksByArtistName(ctx context.Context, name string) ([]*models.Track, error)

	// ArtistsByIDs returns the artists with the given IDs in the order requested, skipping unknown IDs.
	ArtistsByIDs(ctx context.Context, ids []string) ([]*models.Artist, error)

	Close() error
}

// storeErr logs a failed store operation and wraps it in [shared.ErrStore].
// Not-found results pass through unlogged.
func storeErr(logger *log.Logger, op string, err error) error {
	if err == nil || errors.Is(err, shared.ErrNotFound) {
		return err
	}
	logger.Error("store operation failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", shared.ErrStore, op, err)
}

// prepareArtist fills generated fields and validates the artist before insertion.
func prepareArtist(artist *models.Artist) error {
	artist.Name = strings.TrimSpace(artist.Name)
	if artist.ID == "" {
		artist.ID = shared.GenerateID()
	}
	if artist.CreatedAt.IsZero() {
		artist.CreatedAt = time.Now().UTC()
	}
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

// prepareTrack fills generated fields and validates the track before insertion.
func prepareTrack(track *models.Track) error {
	track.ISRC = shared.NormalizeISRC(track.ISRC)
	if track.ID == "" {
		track.ID = shared.GenerateID()
	}
	if track.CreatedAt.IsZero() {
		track.CreatedAt = time.Now().UTC()
	}
	if track.Artists == nil {
		track.Artists = []models.ArtistRef{}
	}
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

// orderArtists arranges found artists in the order of ids.
func orderArtists(ids []string, found []*models.Artist) []*models.Artist {
	byID := make(map[string]*models.Artist, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}

	artists := make([]*models.Artist, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			artists = append(artists, a)
		}
	}
	return artists
}

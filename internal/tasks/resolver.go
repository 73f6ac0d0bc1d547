package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/models"
	"github.com/desertthunder/tracklib/internal/repositories"
	"github.com/desertthunder/tracklib/internal/services"
	"github.com/desertthunder/tracklib/internal/shared"
	"golang.org/x/sync/errgroup"
)

// DefaultResolveWorkers bounds concurrent artist lookups within one track.
const DefaultResolveWorkers = 4

// ArtistResolver maps catalog artist stubs to stored artist references, creating missing artists.
type ArtistResolver struct {
	store   repositories.EntityStore
	workers int
	logger  *log.Logger
}

// NewArtistResolver creates a resolver over store; workers <= 0 uses [DefaultResolveWorkers].
func NewArtistResolver(store repositories.EntityStore, workers int, logger *log.Logger) *ArtistResolver {
	if workers <= 0 {
		workers = DefaultResolveWorkers
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ArtistResolver{store: store, workers: workers, logger: logger}
}

// Resolve returns one reference per stub, in stub order.
//
// Stubs are resolved concurrently; the first failure cancels the rest and is returned.
// Repeated catalog IDs resolve to the same stored artist.
func (r *ArtistResolver) Resolve(ctx context.Context, stubs []services.SpotifyArtist) ([]models.ArtistRef, error) {
	refs := make([]models.ArtistRef, len(stubs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, stub := range stubs {
		g.Go(func() error {
			ref, err := r.resolveOne(ctx, stub)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *ArtistResolver) resolveOne(ctx context.Context, stub services.SpotifyArtist) (models.ArtistRef, error) {
	existing, err := r.store.ArtistByCatalogID(ctx, stub.ID)
	if err == nil {
		return existing.Ref(), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return "", fmt.Errorf("resolve artist %s: %w", stub.ID, err)
	}

	artist, created, err := r.store.CreateArtist(ctx, &models.Artist{
		SpotifyID: stub.ID,
		Name:      stub.Name,
		URL:       stub.ProfileURL(),
	})
	if errors.Is(err, shared.ErrInvalidInput) {
		return "", fmt.Errorf("%w: catalog artist %q: %v", shared.ErrAPIRequest, stub.ID, err)
	}
	if err != nil {
		return "", fmt.Errorf("resolve artist %s: %w", stub.ID, err)
	}

	if created {
		r.logger.Debug("artist created", "spotify_id", artist.SpotifyID, "name", artist.Name)
	}
	return artist.Ref(), nil
}

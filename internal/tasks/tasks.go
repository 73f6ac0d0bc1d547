// package tasks implements ISRC ingestion from a music catalog into an entity store.
//
// The core abstraction is Pipeline, which searches the catalog, resolves artists and stores the track once.
// Operations emit progress updates via channels for non-blocking status reporting to the CLI.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/models"
	"github.com/desertthunder/tracklib/internal/repositories"
	"github.com/desertthunder/tracklib/internal/services"
	"github.com/desertthunder/tracklib/internal/shared"
)

// MaxArtistNameLength bounds artist name queries, in characters.
const MaxArtistNameLength = 128

// IngestResult is the outcome of a single ingest.
type IngestResult struct {
	Track   *models.Track // Stored track
	Created bool          // False when the ISRC was already stored
}

// Pipeline ingests tracks by ISRC and serves lookups over stored tracks.
type Pipeline struct {
	catalog  services.Catalog
	store    repositories.EntityStore
	resolver *ArtistResolver
	logger   *log.Logger
}

// NewPipeline creates a new Pipeline with the provided catalog and store.
func NewPipeline(catalog services.Catalog, store repositories.EntityStore, resolver *ArtistResolver, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if resolver == nil {
		resolver = NewArtistResolver(store, DefaultResolveWorkers, logger)
	}
	return &Pipeline{
		catalog:  catalog,
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Ingest searches the catalog for isrc and stores the most popular match.
//
// The ISRC is normalized first and becomes the stored track's natural key. Its format is checked
// by callers; an unmatched code of any shape is [shared.ErrTrackNotFound]. Catalog errors
// ([shared.ErrTrackNotFound], [shared.ErrAuthExhausted]) are returned unchanged and nothing is written.
// Upstream data the store rejects is reported as [shared.ErrAPIRequest].
func (p *Pipeline) Ingest(ctx context.Context, isrc string) (*IngestResult, error) {
	return p.Run(ctx, isrc, nil)
}

// Run is [Pipeline.Ingest] with progress reporting.
func (p *Pipeline) Run(ctx context.Context, isrc string, progress chan<- ProgressUpdate) (*IngestResult, error) {
	if p.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	isrc = shared.NormalizeISRC(isrc)
	if isrc == "" {
		return nil, fmt.Errorf("%w: ISRC is required", shared.ErrInvalidInput)
	}

	sendProgress(progress, searchCatalogUpdate(isrc))
	candidates, err := p.catalog.SearchByISRC(ctx, isrc)
	if err != nil {
		return nil, err
	}

	canonical := SelectCanonical(candidates)
	sendProgress(progress, selectCandidateUpdate(len(candidates), canonical.Name))

	refs, err := p.resolver.Resolve(ctx, canonical.Artists)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, resolveArtistsUpdate(len(refs)))

	result, err := p.storeTrack(ctx, isrc, canonical, refs)
	if err != nil {
		return nil, err
	}

	if result.Created {
		p.logger.Info("track ingested", "isrc", isrc, "name", result.Track.Name, "artists", len(refs))
	} else {
		p.logger.Debug("track already exists", "isrc", isrc)
	}

	sendProgress(progress, storeTrackUpdate(result))
	return result, nil
}

// storeTrack returns the stored track for isrc, creating it from canonical when absent.
func (p *Pipeline) storeTrack(ctx context.Context, isrc string, canonical services.SpotifyTrack, refs []models.ArtistRef) (*IngestResult, error) {
	existing, err := p.store.TrackByISRC(ctx, isrc)
	if err == nil {
		return &IngestResult{Track: existing, Created: false}, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	track, created, err := p.store.CreateTrack(ctx, &models.Track{
		ISRC:      isrc,
		SpotifyID: canonical.ID,
		Name:      canonical.Name,
		Image:     canonical.CoverImage(),
		Artists:   refs,
	})
	if errors.Is(err, shared.ErrInvalidInput) {
		return nil, fmt.Errorf("%w: catalog track %s: %v", shared.ErrAPIRequest, canonical.ID, err)
	}
	if err != nil {
		return nil, err
	}
	return &IngestResult{Track: track, Created: created}, nil
}

// SelectCanonical returns the most popular candidate. Ties keep catalog order.
// candidates must be non-empty.
func SelectCanonical(candidates []services.SpotifyTrack) services.SpotifyTrack {
	ranked := make([]services.SpotifyTrack, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Popularity > ranked[j].Popularity
	})
	return ranked[0]
}

// LookupByISRC returns the stored track for isrc or [shared.ErrNotFound].
func (p *Pipeline) LookupByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	return p.store.TrackByISRC(ctx, shared.NormalizeISRC(isrc))
}

// LookupByArtist returns the stored tracks crediting an artist named name, ignoring case, oldest first.
func (p *Pipeline) LookupByArtist(ctx context.Context, name string) ([]*models.Track, error) {
	name, err := ValidateArtistName(name)
	if err != nil {
		return nil, err
	}

	tracks, err := p.store.TracksByArtistName(ctx, name)
	if err != nil {
		return nil, err
	}
	if tracks == nil {
		tracks = []*models.Track{}
	}
	return tracks, nil
}

// Artists expands the artist references of track in credit order.
func (p *Pipeline) Artists(ctx context.Context, track *models.Track) ([]*models.Artist, error) {
	return p.store.ArtistsByIDs(ctx, track.ArtistIDs())
}

// ValidateArtistName trims name and checks it is 1 to [MaxArtistNameLength] characters.
func ValidateArtistName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: artist name is required", shared.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxArtistNameLength {
		return "", fmt.Errorf("%w: artist name exceeds %d characters", shared.ErrInvalidInput, MaxArtistNameLength)
	}
	return name, nil
}

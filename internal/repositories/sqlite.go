package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/models"
	"github.com/desertthunder/tracklib/internal/shared"
)

const (
	artistColumns = "id, spotify_id, name, url, created_at"
	trackColumns  = "id, isrc, spotify_id, name, img_url, img_height, img_width, created_at"
)

// SQLStore implements [EntityStore] on SQLite.
//
// Uniqueness of spotify_id and isrc is enforced by the schema; inserts use ON CONFLICT DO NOTHING so the
// loser of a race reads back the winner's row. Track artist references live in the ordered track_artists table.
type SQLStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLStore creates a new SQLStore with the given database connection.
// The schema must already be migrated (see [shared.RunMigrations]).
func NewSQLStore(db *sql.DB, logger *log.Logger) *SQLStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SQLStore{db: db, logger: shared.WithLogger(logger, "store", "sqlite")}
}

func (s *SQLStore) ArtistByCatalogID(ctx context.Context, spotifyID string) (*models.Artist, error) {
	query := "SELECT " + artistColumns + " FROM artists WHERE spotify_id = ?"

	artist, err := scanArtist(s.db.QueryRowContext(ctx, query, spotifyID))
	if err != nil {
		return nil, storeErr(s.logger, "artist by catalog id", err)
	}
	return artist, nil
}

func (s *SQLStore) CreateArtist(ctx context.Context, artist *models.Artist) (*models.Artist, bool, error) {
	if err := prepareArtist(artist); err != nil {
		return nil, false, err
	}

	query := `
		INSERT INTO artists (id, spotify_id, name, url, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, artist.ID, artist.SpotifyID, artist.Name, artist.URL, artist.CreatedAt)
	if err != nil {
		return nil, false, storeErr(s.logger, "create artist", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, storeErr(s.logger, "create artist", err)
	}
	if rows == 1 {
		return artist, true, nil
	}

	existing, err := s.ArtistByCatalogID(ctx, artist.SpotifyID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *SQLStore) TrackByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	query := "SELECT " + trackColumns + " FROM tracks WHERE isrc = ?"

	track, err := scanTrack(s.db.QueryRowContext(ctx, query, shared.NormalizeISRC(isrc)))
	if err != nil {
		return nil, storeErr(s.logger, "track by isrc", err)
	}

	if err := s.loadArtistRefs(ctx, track); err != nil {
		return nil, storeErr(s.logger, "track by isrc", err)
	}
	return track, nil
}

// CreateTrack inserts the track row and its artist references in one transaction.
func (s *SQLStore) CreateTrack(ctx context.Context, track *models.Track) (*models.Track, bool, error) {
	if err := prepareTrack(track); err != nil {
		return nil, false, err
	}

	created, err := s.insertTrack(ctx, track)
	if err != nil {
		return nil, false, storeErr(s.logger, "create track", err)
	}
	if created {
		return track, true, nil
	}

	existing, err := s.TrackByISRC(ctx, track.ISRC)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// insertTrack reports false without writing when the ISRC is already stored.
//
// Only the transaction is used until it ends: the pool may hold a single connection.
func (s *SQLStore) insertTrack(ctx context.Context, track *models.Track) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tracks (id, isrc, spotify_id, name, img_url, img_height, img_width, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(isrc) DO NOTHING
	`

	result, err := tx.ExecContext(ctx, query,
		track.ID,
		track.ISRC,
		track.SpotifyID,
		track.Name,
		track.Image.URL,
		track.Image.Height,
		track.Image.Width,
		track.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	for position, ref := range track.Artists {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO track_artists (track_id, artist_id, position) VALUES (?, ?, ?)",
			track.ID, string(ref), position,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert artist reference: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit track transaction: %w", err)
	}
	return true, nil
}

func (s *SQLStore) TracksByArtistName(ctx context.Context, name string) ([]*models.Track, error) {
	query := `
		SELECT ` + trackColumns + `
		FROM tracks
		WHERE id IN (
			SELECT ta.track_id
			FROM track_artists ta
			JOIN artists a ON a.id = ta.artist_id
			WHERE a.name = ? COLLATE NOCASE
		)
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, strings.TrimSpace(name))
	if err != nil {
		return nil, storeErr(s.logger, "tracks by artist name", fmt.Errorf("failed to query tracks: %w", err))
	}

	var tracks []*models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr(s.logger, "tracks by artist name", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, storeErr(s.logger, "tracks by artist name", fmt.Errorf("row iteration error: %w", err))
	}
	rows.Close()

	for _, track := range tracks {
		if err := s.loadArtistRefs(ctx, track); err != nil {
			return nil, storeErr(s.logger, "tracks by artist name", err)
		}
	}
	return tracks, nil
}

func (s *SQLStore) ArtistsByIDs(ctx context.Context, ids []string) ([]*models.Artist, error) {
	if len(ids) == 0 {
		return []*models.Artist{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := "SELECT " + artistColumns + " FROM artists WHERE id IN (" + placeholders + ")"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(s.logger, "artists by ids", fmt.Errorf("failed to query artists: %w", err))
	}
	defer rows.Close()

	var found []*models.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, storeErr(s.logger, "artists by ids", err)
		}
		found = append(found, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(s.logger, "artists by ids", fmt.Errorf("row iteration error: %w", err))
	}

	return orderArtists(ids, found), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// loadArtistRefs fills track.Artists in credit order.
func (s *SQLStore) loadArtistRefs(ctx context.Context, track *models.Track) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT artist_id FROM track_artists WHERE track_id = ? ORDER BY position ASC", track.ID)
	if err != nil {
		return fmt.Errorf("failed to query artist references: %w", err)
	}
	defer rows.Close()

	track.Artists = []models.ArtistRef{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan artist reference: %w", err)
		}
		track.Artists = append(track.Artists, models.ArtistRef(id))
	}
	return rows.Err()
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func scanArtist(row scanner) (*models.Artist, error) {
	var (
		artist    models.Artist
		createdAt time.Time
	)

	err := row.Scan(&artist.ID, &artist.SpotifyID, &artist.Name, &artist.URL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: artist", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	artist.CreatedAt = createdAt.UTC()
	return &artist, nil
}

func scanTrack(row scanner) (*models.Track, error) {
	var (
		track     models.Track
		createdAt time.Time
	)

	err := row.Scan(
		&track.ID,
		&track.ISRC,
		&track.SpotifyID,
		&track.Name,
		&track.Image.URL,
		&track.Image.Height,
		&track.Image.Width,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: track", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track.CreatedAt = createdAt.UTC()
	return &track, nil
}

var _ EntityStore = (*SQLStore)(nil)

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
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	artistsCollection = "artists"
	tracksCollection  = "tracks"
)

// MongoStore implements [EntityStore] on MongoDB.
//
// Artists and tracks are separate collections; a track holds its artists as an ordered array of artist _id
// references. Create-if-absent is an upsert with $setOnInsert against a unique index on the natural key.
type MongoStore struct {
	client  *mongo.Client
	artists *mongo.Collection
	tracks  *mongo.Collection
	logger  *log.Logger
}

// NewMongoStore connects to uri and uses the named database.
func NewMongoStore(ctx context.Context, uri, database string, logger *log.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "store", "mongo")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storeErr(logger, "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeErr(logger, "ping", err)
	}

	db := client.Database(database)
	return &MongoStore{
		client:  client,
		artists: db.Collection(artistsCollection),
		tracks:  db.Collection(tracksCollection),
		logger:  logger,
	}, nil
}

// EnsureIndexes creates the unique natural-key indexes and the case-insensitive artist name index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.artists.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "spotify_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetCollation(nameCollation())},
	})
	if err != nil {
		return storeErr(s.logger, "ensure artist indexes", err)
	}

	_, err = s.tracks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isrc", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "artists", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return storeErr(s.logger, "ensure track indexes", err)
	}
	return nil
}

func (s *MongoStore) ArtistByCatalogID(ctx context.Context, spotifyID string) (*models.Artist, error) {
	var artist models.Artist
	err := s.artists.FindOne(ctx, bson.M{"spotify_id": spotifyID}).Decode(&artist)
	if err != nil {
		return nil, storeErr(s.logger, "artist by catalog id", notFound(err, "artist"))
	}
	artist.CreatedAt = artist.CreatedAt.UTC()
	return &artist, nil
}

func (s *MongoStore) CreateArtist(ctx context.Context, artist *models.Artist) (*models.Artist, bool, error) {
	if err := prepareArtist(artist); err != nil {
		return nil, false, err
	}

	created, err := s.upsert(ctx, s.artists, bson.M{"spotify_id": artist.SpotifyID}, artist)
	if err != nil {
		return nil, false, storeErr(s.logger, "create artist", err)
	}
	if created {
		return artist, true, nil
	}

	existing, err := s.ArtistByCatalogID(ctx, artist.SpotifyID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *MongoStore) TrackByISRC(ctx context.Context, isrc string) (*models.Track, error) {
	var track models.Track
	err := s.tracks.FindOne(ctx, bson.M{"isrc": shared.NormalizeISRC(isrc)}).Decode(&track)
	if err != nil {
		return nil, storeErr(s.logger, "track by isrc", notFound(err, "track"))
	}
	track.CreatedAt = track.CreatedAt.UTC()
	return &track, nil
}

func (s *MongoStore) CreateTrack(ctx context.Context, track *models.Track) (*models.Track, bool, error) {
	if err := prepareTrack(track); err != nil {
		return nil, false, err
	}

	created, err := s.upsert(ctx, s.tracks, bson.M{"isrc": track.ISRC}, track)
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

// TracksByArtistName resolves matching artists first, then the tracks referencing any of them.
func (s *MongoStore) TracksByArtistName(ctx context.Context, name string) ([]*models.Track, error) {
	cursor, err := s.artists.Find(ctx,
		bson.M{"name": strings.TrimSpace(name)},
		options.Find().SetCollation(nameCollation()).SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, storeErr(s.logger, "tracks by artist name", err)
	}

	var refs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, storeErr(s.logger, "tracks by artist name", err)
	}
	if len(refs) == 0 {
		return []*models.Track{}, nil
	}

	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}

	cursor, err = s.tracks.Find(ctx,
		bson.M{"artists": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, storeErr(s.logger, "tracks by artist name", err)
	}

	tracks := []*models.Track{}
	if err := cursor.All(ctx, &tracks); err != nil {
		return nil, storeErr(s.logger, "tracks by artist name", err)
	}
	for _, t := range tracks {
		t.CreatedAt = t.CreatedAt.UTC()
	}
	return tracks, nil
}

func (s *MongoStore) ArtistsByIDs(ctx context.Context, ids []string) ([]*models.Artist, error) {
	if len(ids) == 0 {
		return []*models.Artist{}, nil
	}

	cursor, err := s.artists.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeErr(s.logger, "artists by ids", err)
	}

	var found []*models.Artist
	if err := cursor.All(ctx, &found); err != nil {
		return nil, storeErr(s.logger, "artists by ids", err)
	}
	return orderArtists(ids, found), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// upsert inserts doc when no document matches filter and reports whether it did.
//
// Two concurrent upserts on a unique key can both miss the filter; the loser fails with a duplicate key
// error and is treated as not created.
func (s *MongoStore) upsert(ctx context.Context, coll *mongo.Collection, filter bson.M, doc any) (bool, error) {
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.UpsertedID != nil, nil
}

// nameCollation compares strings ignoring case; strength 2 keeps diacritics significant.
func nameCollation() *options.Collation {
	return &options.Collation{Locale: "en", Strength: 2}
}

func notFound(err error, entity string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, entity)
	}
	return err
}

var _ EntityStore = (*MongoStore)(nil)

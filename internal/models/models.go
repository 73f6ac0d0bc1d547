// package models defines the data model for the track ingestion service
package models

import (
	"fmt"
	"time"
)

// ArtistRef is an opaque handle to a stored [Artist] (its ID).
type ArtistRef string

// Artist is a stored artist document.
type Artist struct {
	ID        string    `json:"id" bson:"_id"`
	SpotifyID string    `json:"spotify_id" bson:"spotify_id"`
	Name      string    `json:"name" bson:"name"`
	URL       string    `json:"url" bson:"url"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Ref returns the reference other documents use to point at this artist.
func (a *Artist) Ref() ArtistRef {
	return ArtistRef(a.ID)
}

// Validate checks the natural key and display fields of the artist.
func (a *Artist) Validate() error {
	if a.SpotifyID == "" {
		return fmt.Errorf("artist spotify id is required")
	}
	if a.Name == "" {
		return fmt.Errorf("artist name is required")
	}
	return nil
}

// Image describes a cover image.
type Image struct {
	URL    string `json:"url" bson:"url"`
	Height int    `json:"height" bson:"height"`
	Width  int    `json:"width" bson:"width"`
}

// Track is a stored track document.
type Track struct {
	ID        string      `json:"id" bson:"_id"`
	ISRC      string      `json:"isrc" bson:"isrc"`
	SpotifyID string      `json:"spotify_id" bson:"spotify_id"`
	Name      string      `json:"name" bson:"name"`
	Image     Image       `json:"img" bson:"img"`
	Artists   []ArtistRef `json:"artists" bson:"artists"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}

// Validate checks the natural key and required fields of the track.
func (t *Track) Validate() error {
	if t.ISRC == "" {
		return fmt.Errorf("track isrc is required")
	}
	if t.SpotifyID == "" {
		return fmt.Errorf("track spotify id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("track name is required")
	}
	return nil
}

// ArtistIDs returns the referenced artist IDs in credit order.
func (t *Track) ArtistIDs() []string {
	ids := make([]string, len(t.Artists))
	for i, ref := range t.Artists {
		ids[i] = string(ref)
	}
	return ids
}

// Package models defines the stored catalog entities for the tracklib ingestion service.
//
// Two entities are persisted, each with a natural key used to detect whether it already exists:
//   - [Artist] : keyed by its Spotify artist ID, created the first time an ingested track credits it
//   - [Track] : keyed by ISRC, created exactly once and never updated afterwards
//
// A [Track] links to its artists through [ArtistRef] values, the stored artist's ID.
// References are ordered by credit order ("featuring" order) and never embed a copy of the artist.
//
// Models are plain structs so the same values can flow through the SQLite and MongoDB stores,
// the JSON HTTP surface and the CLI formatters.
package models

// Package tasks ingests tracks by ISRC and serves lookups over what was ingested.
//
// # Ingest
//
// [Pipeline.Ingest] runs four steps and writes nothing until the last:
//
//  1. Search the [services.Catalog] for the normalized ISRC
//     - [shared.ErrTrackNotFound] and [shared.ErrAuthExhausted] are returned unchanged
//  2. [SelectCanonical] picks the most popular candidate; ties keep catalog order
//  3. [ArtistResolver] maps the candidate's artists to stored references, creating missing artists
//  4. The track is stored under the ISRC unless it already exists
//
// Re-ingesting an ISRC returns the stored track with Created=false. Two concurrent ingests of the same ISRC
// produce one track: the store's create-if-absent decides the winner.
//
// # Progress Reporting
//
// [Pipeline.Run] and [Pipeline.BulkIngest] send [ProgressUpdate] values on an optional channel.
// Updates use select with default to prevent blocking.
//
// # Bulk Ingest
//
// [Pipeline.BulkIngest] runs a fixed worker pool over a list of ISRCs and keeps going past failures.
// Results come back in request order.
package tasks

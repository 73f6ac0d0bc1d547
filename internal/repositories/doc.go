// Package repositories implements persistence for artists and tracks.
//
// Both implementations satisfy [EntityStore] and enforce the natural keys (artist Spotify ID, track ISRC)
// atomically in the database, so a create that loses a race returns the stored record with created=false.
//
// Key Implementations:
//   - [SQLStore] : SQLite via mattn/go-sqlite3; schema from the goose migrations in shared/sql
//   - [MongoStore] : MongoDB collections artists and tracks with unique indexes from [MongoStore.EnsureIndexes]
//
// Failures other than not-found are logged and wrapped in [shared.ErrStore]; missing records return
// [shared.ErrNotFound] without logging.
package repositories

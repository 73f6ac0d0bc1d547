// Package server provides HTTP routing, middleware, and the track ingestion endpoints.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order so the first one added runs outermost.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Track Endpoints
//
// [TrackHandler] serves:
//   - POST /addTrack : ingest {"isrc": "..."}; 201 when created, 200 when the ISRC was already stored
//   - GET /track/{isrc}.json : stored track or 404
//   - GET /tracks?artist=<name> : stored tracks crediting the artist, oldest first
//
// Input is validated with go-playground/validator (a custom isrc tag). Validation failures answer 400 with
// {"errors": ["location[field]: message"]}.
//
// # Error Mapping
//
//   - [shared.ErrTrackNotFound], [shared.ErrNotFound] : 404
//   - [shared.ErrAuthExhausted], [shared.ErrAPIRequest] : 502
//   - [shared.ErrServiceUnavailable] : 503
//   - [shared.ErrStore] and anything else : 500
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

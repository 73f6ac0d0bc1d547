package tasks

import (
	"fmt"

	"github.com/desertthunder/tracklib/internal/models"
)

// ProgressUpdate represents a progress event during an ingest.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	SearchCatalog Phase = iota
	SelectCandidate
	ResolveArtists
	StoreTrack
	IngestISRC
)

func (p Phase) String() string {
	switch p {
	case SearchCatalog:
		return "search_catalog"
	case SelectCandidate:
		return "select_candidate"
	case ResolveArtists:
		return "resolve_artists"
	case StoreTrack:
		return "store_track"
	case IngestISRC:
		return "ingest_isrc"
	default:
		return ""
	}
}

func searchCatalogUpdate(isrc string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching Spotify for %s...", isrc),
	}
}

func selectCandidateUpdate(count int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectCandidate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected %q from %d candidate(s)", name, count),
	}
}

func resolveArtistsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveArtists,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Resolved %d artist(s)", total),
	}
}

func storeTrackUpdate(result *IngestResult) ProgressUpdate {
	msg := fmt.Sprintf("Stored track: %s (%s)", result.Track.Name, result.Track.ISRC)
	if !result.Created {
		msg = fmt.Sprintf("Track already exists: %s (%s)", result.Track.Name, result.Track.ISRC)
	}
	return ProgressUpdate{
		Phase:   StoreTrack,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    result.Track,
	}
}

func ingestCompletedUpdate(step, total int, track *models.Track, created bool) ProgressUpdate {
	state := "exists"
	if created {
		state = "created"
	}
	return ProgressUpdate{
		Phase:   IngestISRC,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s %s (%s)", step, total, track.ISRC, track.Name, state),
		Data:    track,
	}
}

func ingestFailedUpdate(step, total int, isrc string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   IngestISRC,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, isrc, err),
	}
}

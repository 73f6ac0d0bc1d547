package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklib/internal/models"
	"github.com/desertthunder/tracklib/internal/shared"
	"github.com/desertthunder/tracklib/internal/tasks"
	"github.com/goccy/go-json"
)

// maxBodyBytes bounds request bodies; an ISRC payload is a few dozen bytes.
const maxBodyBytes = 1 << 16

// TrackService is the ingestion surface the HTTP handlers depend on.
type TrackService interface {
	Ingest(ctx context.Context, isrc string) (*tasks.IngestResult, error)
	LookupByISRC(ctx context.Context, isrc string) (*models.Track, error)
	LookupByArtist(ctx context.Context, name string) ([]*models.Track, error)
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorsResponse struct {
	Errors []string `json:"errors"`
}

type existingTrackResponse struct {
	Message string        `json:"message"`
	Track   *models.Track `json:"track"`
}

// TrackHandler serves track ingestion and lookup endpoints.
//
// Implements the [Handler] interface for registration with a [Router].
type TrackHandler struct {
	tracks TrackService
	logger *log.Logger
	mux    *http.ServeMux
}

// NewTrackHandler creates a handler backed by tracks.
func NewTrackHandler(tracks TrackService, logger *log.Logger) *TrackHandler {
	h := &TrackHandler{tracks: tracks, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("POST /addTrack", h.addTrack)
	h.mux.HandleFunc("GET /track/{file}", h.getTrack)
	h.mux.HandleFunc("GET /tracks", h.getTracks)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *TrackHandler) Routes() []string {
	return []string{"/addTrack", "/track/", "/tracks"}
}

func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// addTrack ingests the ISRC in the request body.
//
// 201 with the new track, or 200 with a message and the stored track when it already existed.
func (h *TrackHandler) addTrack(w http.ResponseWriter, r *http.Request) {
	var req addTrackRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || (len(body) > 0 && json.Unmarshal(body, &req) != nil) {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: []string{"body: Malformed JSON body."}})
		return
	}

	req.ISRC = shared.NormalizeISRC(req.ISRC)
	if errs := validateRequest(&req, "body"); errs != nil {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: errs})
		return
	}

	result, err := h.tracks.Ingest(r.Context(), req.ISRC)
	if err != nil {
		h.writeError(w, req.ISRC, err)
		return
	}

	if !result.Created {
		writeJSON(w, http.StatusOK, existingTrackResponse{Message: "Track for ISRC already exists.", Track: result.Track})
		return
	}
	writeJSON(w, http.StatusCreated, result.Track)
}

// getTrack serves /track/{isrc}.json.
func (h *TrackHandler) getTrack(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	raw, ok := strings.CutSuffix(file, ".json")
	if !ok {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found."})
		return
	}

	param := isrcParam{ISRC: shared.NormalizeISRC(raw)}
	if errs := validateRequest(&param, "params"); errs != nil {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: errs})
		return
	}

	track, err := h.tracks.LookupByISRC(r.Context(), param.ISRC)
	if err != nil {
		h.writeError(w, param.ISRC, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// getTracks serves /tracks?artist=<name>.
func (h *TrackHandler) getTracks(w http.ResponseWriter, r *http.Request) {
	query := artistQuery{Artist: strings.TrimSpace(r.URL.Query().Get("artist"))}
	if errs := validateRequest(&query, "query"); errs != nil {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: errs})
		return
	}

	tracks, err := h.tracks.LookupByArtist(r.Context(), query.Artist)
	if err != nil {
		h.writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// writeError maps pipeline errors to status codes. Only unexpected failures are logged here;
// lower layers have already logged store and authorization failures.
func (h *TrackHandler) writeError(w http.ResponseWriter, isrc string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: []string{err.Error()}})
	case errors.Is(err, shared.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: fmt.Sprintf("Track %s not found.", isrc)})
	case errors.Is(err, shared.ErrTrackNotFound):
		writeJSON(w, http.StatusNotFound, messageResponse{Message: fmt.Sprintf("No Spotify track found for ISRC %s.", isrc)})
	case errors.Is(err, shared.ErrAuthExhausted):
		writeJSON(w, http.StatusBadGateway, messageResponse{Message: "Spotify authorization failed."})
	case errors.Is(err, shared.ErrServiceUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, messageResponse{Message: "Spotify is unavailable, try again later."})
	case errors.Is(err, shared.ErrAPIRequest):
		h.logger.Warn("catalog request failed", "isrc", isrc, "error", err)
		writeJSON(w, http.StatusBadGateway, messageResponse{Message: "Spotify request failed."})
	case errors.Is(err, shared.ErrStore):
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal server error."})
	default:
		h.logger.Error("request failed", "isrc", isrc, "error", err)
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal server error."})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

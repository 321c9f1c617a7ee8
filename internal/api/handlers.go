package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skyward/flighttrack/internal/flight"
	"github.com/skyward/flighttrack/internal/render"
	"github.com/skyward/flighttrack/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	flightService *flight.Service
	renderer      *render.Renderer
	logger        *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(flightService *flight.Service, renderer *render.Renderer, log *logger.Logger) *Handler {
	return &Handler{
		flightService: flightService,
		renderer:      renderer,
		logger:        log.Named("api-handler"),
	}
}

// GetRoot returns a welcome message
func (h *Handler) GetRoot(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the flighttrack API",
	})
}

// GetHealth returns a basic health response
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// CreateFlight registers a new scheduled flight
func (h *Handler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req flight.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &flight.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	created, err := h.flightService.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, created)
}

// IngestPosition applies a single position report to a flight's track
func (h *Handler) IngestPosition(w http.ResponseWriter, r *http.Request) {
	var req flight.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, &flight.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	updated, err := h.flightService.Ingest(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}

// GetTrack returns the full record for a flight, live or archived
func (h *Handler) GetTrack(w http.ResponseWriter, r *http.Request) {
	flightID := chi.URLParam(r, "flight_id")

	f, err := h.flightService.Resolve(r.Context(), flightID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, f)
}

// CompleteFlight marks a flight as landed and archives it
func (h *Handler) CompleteFlight(w http.ResponseWriter, r *http.Request) {
	flightID := chi.URLParam(r, "flight_id")

	archived, err := h.flightService.Archive(r.Context(), flightID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, archived)
}

// GetTrackMap returns an HTML map of the flight's path
func (h *Handler) GetTrackMap(w http.ResponseWriter, r *http.Request) {
	flightID := chi.URLParam(r, "flight_id")

	f, err := h.flightService.Resolve(r.Context(), flightID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	html, err := h.renderer.Render(f)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		h.logger.Error("Failed to write map response", logger.Error(err))
	}
}

// writeError maps domain errors to HTTP responses
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var vErr *flight.ValidationError
	switch {
	case errors.As(err, &vErr):
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Error()})
	case errors.Is(err, flight.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Flight not found."})
	case errors.Is(err, flight.ErrStoreUnavailable):
		h.logger.Error("Storage failure", logger.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Storage unavailable."})
	default:
		h.logger.Error("Unhandled error", logger.Error(err))
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error."})
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

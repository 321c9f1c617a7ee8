package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/skyward/flighttrack/internal/flight"
	"github.com/skyward/flighttrack/internal/render"
	"github.com/skyward/flighttrack/pkg/logger"
)

// Router wires the API handlers into a chi router
type Router struct {
	handler *Handler
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(flightService *flight.Service, renderer *render.Renderer, log *logger.Logger) *Router {
	return &Router{
		handler: NewHandler(flightService, renderer, log),
		logger:  log.Named("router"),
	}
}

// Routes returns the configured HTTP handler
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/", r.handler.GetRoot)
	router.Get("/health", r.handler.GetHealth)

	router.Post("/flights", r.handler.CreateFlight)
	router.Post("/flights/{flight_id}/complete", r.handler.CompleteFlight)
	router.Post("/ingest", r.handler.IngestPosition)
	router.Get("/track/{flight_id}", r.handler.GetTrack)
	router.Get("/track/{flight_id}/map", r.handler.GetTrackMap)

	return router
}

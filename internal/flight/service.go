// Package flight implements the flight lifecycle and track-ingestion core:
// the state machine, the atomic append-and-update ingestion path, and the
// hot/cold storage migration protocol.
package flight

import (
	"context"
	"time"

	"github.com/skyward/flighttrack/pkg/logger"
)

// Service coordinates flight lifecycle operations against the store. It
// holds no mutable state of its own; any number of calls may run in
// parallel, with per-document atomicity delegated to the store.
type Service struct {
	store  Store
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new flight service backed by the given store.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log.Named("flight"),
		now:    time.Now,
	}
}

// Create registers a new flight in hot storage with status SCHEDULED and an
// empty track. Duplicate flight_ids are not guarded against; callers are
// expected to create each flight once.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Flight, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f := &Flight{
		FlightID:    req.FlightID,
		Airline:     req.Airline,
		Origin:      req.Origin,
		Destination: req.Destination,
		Status:      Initial(),
		LastUpdate:  s.now().UTC(),
		Track:       []LocationPoint{},
	}

	created, err := s.store.Insert(ctx, Hot, f)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Flight created",
		logger.String("flight_id", created.FlightID),
		logger.String("origin", created.Origin),
		logger.String("destination", created.Destination))

	return created, nil
}

// Ingest applies a single position report to the flight's track. Appending
// the point, setting last_update to the report's timestamp and advancing
// the status happen as one atomic document mutation in hot storage. A
// flight absent from hot storage (never created, or already archived)
// yields ErrNotFound.
func (s *Service) Ingest(ctx context.Context, req *IngestRequest) (*Flight, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	point := req.Point()
	updated, err := s.store.FindOneAndUpdate(ctx, Hot, req.FlightID, Mutation{
		PushPoint:     &point,
		AdvanceIngest: true,
		SetLastUpdate: &point.Timestamp,
	}, true)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	s.logger.Debug("Position ingested",
		logger.String("flight_id", updated.FlightID),
		logger.Int("track_len", len(updated.Track)),
		logger.Float64("lat", point.Latitude),
		logger.Float64("lon", point.Longitude))

	return updated, nil
}

// Resolve returns the current record for flight_id, checking hot storage
// first and falling back to cold storage. Read-only.
func (s *Service) Resolve(ctx context.Context, flightID string) (*Flight, error) {
	if flightID == "" {
		return nil, &ValidationError{Field: "flight_id", Reason: "must not be empty"}
	}

	f, err := s.store.FindOne(ctx, Hot, flightID)
	if err != nil {
		return nil, err
	}
	if f != nil {
		return f, nil
	}

	f, err = s.store.FindOne(ctx, Cold, flightID)
	if err != nil {
		return nil, err
	}
	if f != nil {
		return f, nil
	}

	return nil, ErrNotFound
}

// Archive migrates a flight from hot to cold storage, setting the terminal
// LANDED status and refreshing last_update to the archival wall-clock time.
// The copy into cold storage is issued before the delete from hot storage,
// so a failure between the two leaves the flight transiently in both stores
// rather than in neither; a retried call detects the existing terminal
// record in cold storage and does not duplicate it. Once the flight is
// gone from hot storage, re-invocation returns ErrNotFound.
func (s *Service) Archive(ctx context.Context, flightID string) (*Flight, error) {
	if flightID == "" {
		return nil, &ValidationError{Field: "flight_id", Reason: "must not be empty"}
	}

	f, err := s.store.FindOne(ctx, Hot, flightID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}

	next, err := OnArchive(f.Status)
	if err != nil {
		return nil, err
	}
	f.Status = next
	f.LastUpdate = s.now().UTC()

	// A prior archival attempt may have copied the record and then failed
	// before the delete. Treat an existing terminal record as the copy
	// having succeeded.
	existing, err := s.store.FindOne(ctx, Cold, flightID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == StatusLanded {
		s.logger.Warn("Flight already present in cold storage, skipping copy",
			logger.String("flight_id", flightID))
		f = existing
	} else {
		f.ID = "" // cold copy gets its own storage identity
		f, err = s.store.Insert(ctx, Cold, f)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.store.DeleteOne(ctx, Hot, flightID); err != nil {
		return nil, err
	}

	s.logger.Info("Flight archived",
		logger.String("flight_id", flightID),
		logger.Int("track_len", len(f.Track)))

	return f, nil
}

package flight

import (
	"time"
)

// LocationPoint represents a single position report (a "ping") received for
// a flight. Points are immutable once appended to a track.
type LocationPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"` // feet
	Speed     float64   `json:"speed"`    // knots
}

// Flight is the full flight document as stored. ID is the storage-assigned
// identity; FlightID is the externally assigned natural key used by
// ingestion and queries.
type Flight struct {
	ID          string          `json:"id"`
	FlightID    string          `json:"flight_id"`
	Airline     string          `json:"airline"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Status      Status          `json:"status"`
	LastUpdate  time.Time       `json:"last_update"`
	Track       []LocationPoint `json:"track"`
}

// CreateRequest is the payload for registering a new scheduled flight.
type CreateRequest struct {
	FlightID    string `json:"flight_id"`
	Airline     string `json:"airline"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Validate checks that all required creation fields are present.
func (r *CreateRequest) Validate() error {
	if r.FlightID == "" {
		return &ValidationError{Field: "flight_id", Reason: "must not be empty"}
	}
	if r.Airline == "" {
		return &ValidationError{Field: "airline", Reason: "must not be empty"}
	}
	if r.Origin == "" {
		return &ValidationError{Field: "origin", Reason: "must not be empty"}
	}
	if r.Destination == "" {
		return &ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	return nil
}

// IngestRequest is the payload for a single position report. The numeric
// fields are pointers so that a missing field is distinguishable from a
// legitimate zero value (e.g. latitude 0.0 on the equator).
type IngestRequest struct {
	FlightID  string     `json:"flight_id"`
	Timestamp *time.Time `json:"timestamp"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Altitude  *float64   `json:"altitude"`
	Speed     *float64   `json:"speed"`
}

// Validate checks that all report fields are present. No range validation
// is performed here; reported positions are taken as-is.
func (r *IngestRequest) Validate() error {
	if r.FlightID == "" {
		return &ValidationError{Field: "flight_id", Reason: "must not be empty"}
	}
	if r.Timestamp == nil {
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	if r.Latitude == nil {
		return &ValidationError{Field: "latitude", Reason: "is required"}
	}
	if r.Longitude == nil {
		return &ValidationError{Field: "longitude", Reason: "is required"}
	}
	if r.Altitude == nil {
		return &ValidationError{Field: "altitude", Reason: "is required"}
	}
	if r.Speed == nil {
		return &ValidationError{Field: "speed", Reason: "is required"}
	}
	return nil
}

// Point converts a validated request into the track point to append.
func (r *IngestRequest) Point() LocationPoint {
	return LocationPoint{
		Timestamp: r.Timestamp.UTC(),
		Latitude:  *r.Latitude,
		Longitude: *r.Longitude,
		Altitude:  *r.Altitude,
		Speed:     *r.Speed,
	}
}

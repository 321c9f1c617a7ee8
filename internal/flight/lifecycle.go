package flight

import "fmt"

// Status is the lifecycle state of a flight. Transitions only move forward:
// SCHEDULED -> EN-ROUTE -> LANDED, with SCHEDULED -> LANDED permitted for a
// flight archived without ever receiving data. LANDED is terminal.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusEnRoute   Status = "EN-ROUTE"
	StatusLanded    Status = "LANDED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusEnRoute, StatusLanded:
		return true
	}
	return false
}

// Initial returns the state assigned to a newly created flight.
func Initial() Status {
	return StatusScheduled
}

// OnIngest returns the state after a position report is applied.
// SCHEDULED becomes EN-ROUTE; EN-ROUTE stays EN-ROUTE. Ingesting against a
// LANDED flight is invalid - in practice such flights are no longer in hot
// storage, so this is a defensive check the store adapter surfaces.
func OnIngest(s Status) (Status, error) {
	switch s {
	case StatusScheduled, StatusEnRoute:
		return StatusEnRoute, nil
	case StatusLanded:
		return s, fmt.Errorf("invalid transition: cannot ingest for %s flight", s)
	}
	return s, fmt.Errorf("invalid transition: unknown status %q", string(s))
}

// OnArchive returns the state after archival. Both SCHEDULED and EN-ROUTE
// flights may be archived; a LANDED flight cannot transition again.
func OnArchive(s Status) (Status, error) {
	switch s {
	case StatusScheduled, StatusEnRoute:
		return StatusLanded, nil
	case StatusLanded:
		return s, fmt.Errorf("invalid transition: flight already %s", s)
	}
	return s, fmt.Errorf("invalid transition: unknown status %q", string(s))
}

package flight

import (
	"context"
	"time"
)

// Collection addresses one of the two logical document collections.
type Collection string

const (
	// Hot holds flights in SCHEDULED or EN-ROUTE state.
	Hot Collection = "hot"
	// Cold holds archived LANDED flights, immutable after insertion.
	Cold Collection = "cold"
)

// Mutation describes an in-place change to a stored flight document. All
// set fields are applied as one indivisible update: no reader ever observes
// a track append without the matching status/timestamp change.
type Mutation struct {
	PushPoint     *LocationPoint // append to the track
	AdvanceIngest bool           // advance status via OnIngest
	SetStatus     *Status        // explicit status (archival path)
	SetLastUpdate *time.Time
}

// Apply mutates f in place. Store implementations call this inside their
// atomic update primitive.
func (m Mutation) Apply(f *Flight) error {
	if m.AdvanceIngest {
		next, err := OnIngest(f.Status)
		if err != nil {
			return err
		}
		f.Status = next
	}
	if m.SetStatus != nil {
		f.Status = *m.SetStatus
	}
	if m.PushPoint != nil {
		f.Track = append(f.Track, *m.PushPoint)
	}
	if m.SetLastUpdate != nil {
		f.LastUpdate = m.SetLastUpdate.UTC()
	}
	return nil
}

// Store is the document-store contract the service depends on. Implemented
// by the sqlite adapter; kept deliberately narrow so the core never touches
// SQL directly.
//
// All methods return ErrStoreUnavailable (wrapped) on backend failure.
type Store interface {
	// Insert stores a new document and returns it with its assigned identity.
	Insert(ctx context.Context, col Collection, f *Flight) (*Flight, error)

	// FindOne returns the document matching flightID, or nil if absent.
	FindOne(ctx context.Context, col Collection, flightID string) (*Flight, error)

	// FindOneAndUpdate atomically applies mut to the document matching
	// flightID. It returns nil if no document matched. When returnUpdated
	// is true the post-mutation document is returned, otherwise the
	// pre-image.
	FindOneAndUpdate(ctx context.Context, col Collection, flightID string, mut Mutation, returnUpdated bool) (*Flight, error)

	// DeleteOne removes the document matching flightID and reports how many
	// documents were deleted (0 or 1).
	DeleteOne(ctx context.Context, col Collection, flightID string) (int64, error)
}

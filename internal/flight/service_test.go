package flight_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skyward/flighttrack/internal/flight"
	"github.com/skyward/flighttrack/internal/storage/sqlite"
	"github.com/skyward/flighttrack/pkg/logger"
)

func newTestService(t *testing.T) (*flight.Service, *sqlite.FlightStore) {
	t.Helper()

	store, err := sqlite.NewFlightStore(":memory:", logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return flight.NewService(store, logger.NewNop()), store
}

func ingestRequest(flightID string, ts time.Time, lat, lon, alt, speed float64) *flight.IngestRequest {
	return &flight.IngestRequest{
		FlightID:  flightID,
		Timestamp: &ts,
		Latitude:  &lat,
		Longitude: &lon,
		Altitude:  &alt,
		Speed:     &speed,
	}
}

func TestCreateFlight(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK303", Airline: "PIA", Origin: "LHE", Destination: "JED",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.ID == "" {
		t.Error("created flight has no storage identity")
	}
	if created.Status != flight.StatusScheduled {
		t.Errorf("Status = %s, want %s", created.Status, flight.StatusScheduled)
	}
	if len(created.Track) != 0 {
		t.Errorf("Track length = %d, want 0", len(created.Track))
	}
	if created.LastUpdate.IsZero() {
		t.Error("LastUpdate not set on creation")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &flight.CreateRequest{FlightID: "PK303"})
	var vErr *flight.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Create with missing fields = %v, want *ValidationError", err)
	}
}

func TestIngestFirstPoint(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK303", Airline: "PIA", Origin: "LHE", Destination: "JED",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	t1 := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	updated, err := svc.Ingest(ctx, ingestRequest("PK303", t1, 31.52, 74.36, 30000, 450))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if updated.Status != flight.StatusEnRoute {
		t.Errorf("Status = %s, want %s", updated.Status, flight.StatusEnRoute)
	}
	if len(updated.Track) != 1 {
		t.Fatalf("Track length = %d, want 1", len(updated.Track))
	}
	if !updated.LastUpdate.Equal(t1) {
		t.Errorf("LastUpdate = %v, want report timestamp %v", updated.LastUpdate, t1)
	}
}

func TestIngestPreservesArrivalOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK303", Airline: "PIA", Origin: "LHE", Destination: "JED",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	t1 := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	t2 := t1.Add(10 * time.Minute)

	// Deliver the later report first; points are kept in arrival order and
	// never reordered by timestamp.
	if _, err := svc.Ingest(ctx, ingestRequest("PK303", t2, 32.10, 73.90, 32000, 460)); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	updated, err := svc.Ingest(ctx, ingestRequest("PK303", t1, 31.52, 74.36, 30000, 450))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	if len(updated.Track) != 2 {
		t.Fatalf("Track length = %d, want 2", len(updated.Track))
	}
	if !updated.Track[0].Timestamp.Equal(t2) || !updated.Track[1].Timestamp.Equal(t1) {
		t.Errorf("Track order = [%v, %v], want arrival order [%v, %v]",
			updated.Track[0].Timestamp, updated.Track[1].Timestamp, t2, t1)
	}
	if updated.Status != flight.StatusEnRoute {
		t.Errorf("Status = %s, want %s", updated.Status, flight.StatusEnRoute)
	}
	if !updated.LastUpdate.Equal(t1) {
		t.Errorf("LastUpdate = %v, want latest report timestamp %v", updated.LastUpdate, t1)
	}
}

func TestIngestUnknownFlight(t *testing.T) {
	svc, _ := newTestService(t)

	t1 := time.Now().UTC()
	_, err := svc.Ingest(context.Background(), ingestRequest("GHOST1", t1, 1, 2, 3, 4))
	if !errors.Is(err, flight.ErrNotFound) {
		t.Fatalf("Ingest for unknown flight = %v, want ErrNotFound", err)
	}
}

// Concurrent ingestion of N distinct points must produce a track of exactly
// N points, regardless of interleaving.
func TestConcurrentIngest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK303", Airline: "PIA", Origin: "LHE", Destination: "JED",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	const n = 50
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts := base.Add(time.Duration(i) * time.Minute)
			if _, err := svc.Ingest(ctx, ingestRequest("PK303", ts, 31.0+float64(i)*0.01, 74.0, 30000, 450)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent Ingest returned error: %v", err)
	}

	f, err := svc.Resolve(ctx, "PK303")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(f.Track) != n {
		t.Errorf("Track length = %d, want %d (lost updates)", len(f.Track), n)
	}
	if f.Status != flight.StatusEnRoute {
		t.Errorf("Status = %s, want %s", f.Status, flight.StatusEnRoute)
	}
}

func TestResolveUnknownFlight(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), "NOPE99")
	if !errors.Is(err, flight.ErrNotFound) {
		t.Fatalf("Resolve = %v, want ErrNotFound", err)
	}
}

func TestArchiveLifecycle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK303", Airline: "PIA", Origin: "LHE", Destination: "JED",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	t1 := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	t2 := t1.Add(10 * time.Minute)
	if _, err := svc.Ingest(ctx, ingestRequest("PK303", t1, 31.52, 74.36, 30000, 450)); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if _, err := svc.Ingest(ctx, ingestRequest("PK303", t2, 32.10, 73.90, 32000, 460)); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	archived, err := svc.Archive(ctx, "PK303")
	if err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	if archived.Status != flight.StatusLanded {
		t.Errorf("Status = %s, want %s", archived.Status, flight.StatusLanded)
	}
	if len(archived.Track) != 2 {
		t.Errorf("archived Track length = %d, want 2", len(archived.Track))
	}

	// Gone from hot, present in cold with the full track.
	if hot, err := store.FindOne(ctx, flight.Hot, "PK303"); err != nil || hot != nil {
		t.Errorf("FindOne(hot) = (%v, %v), want (nil, nil)", hot, err)
	}
	resolved, err := svc.Resolve(ctx, "PK303")
	if err != nil {
		t.Fatalf("Resolve after archive returned error: %v", err)
	}
	if resolved.Status != flight.StatusLanded || len(resolved.Track) != 2 {
		t.Errorf("resolved = status %s, %d points; want %s, 2 points",
			resolved.Status, len(resolved.Track), flight.StatusLanded)
	}

	// Ingestion after archival behaves like an unknown flight.
	if _, err := svc.Ingest(ctx, ingestRequest("PK303", t2.Add(time.Minute), 33, 73, 1000, 200)); !errors.Is(err, flight.ErrNotFound) {
		t.Errorf("Ingest after archive = %v, want ErrNotFound", err)
	}

	// Archival is not re-entrant once the flight left hot storage.
	if _, err := svc.Archive(ctx, "PK303"); !errors.Is(err, flight.ErrNotFound) {
		t.Errorf("second Archive = %v, want ErrNotFound", err)
	}
}

func TestArchiveWithoutData(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK304", Airline: "PIA", Origin: "LHE", Destination: "KHI",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	archived, err := svc.Archive(ctx, "PK304")
	if err != nil {
		t.Fatalf("Archive of scheduled flight returned error: %v", err)
	}
	if archived.Status != flight.StatusLanded {
		t.Errorf("Status = %s, want %s", archived.Status, flight.StatusLanded)
	}
	if len(archived.Track) != 0 {
		t.Errorf("Track length = %d, want 0", len(archived.Track))
	}
}

// A crash between the copy-into-cold and delete-from-hot steps leaves the
// flight in both stores. A retried archival must complete the migration
// without duplicating the cold record.
func TestArchiveRetryAfterPartialFailure(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK305", Airline: "PIA", Origin: "LHE", Destination: "DXB",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	t1 := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	if _, err := svc.Ingest(ctx, ingestRequest("PK305", t1, 31.52, 74.36, 30000, 450)); err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}

	// Simulate the failure window: the terminal copy reached cold storage
	// but the hot record was never deleted.
	hot, err := store.FindOne(ctx, flight.Hot, "PK305")
	if err != nil || hot == nil {
		t.Fatalf("FindOne(hot) = (%v, %v)", hot, err)
	}
	dup := *hot
	dup.ID = ""
	dup.Status = flight.StatusLanded
	if _, err := store.Insert(ctx, flight.Cold, &dup); err != nil {
		t.Fatalf("Insert(cold) returned error: %v", err)
	}

	archived, err := svc.Archive(ctx, "PK305")
	if err != nil {
		t.Fatalf("retried Archive returned error: %v", err)
	}
	if archived.Status != flight.StatusLanded {
		t.Errorf("Status = %s, want %s", archived.Status, flight.StatusLanded)
	}

	// Exactly one cold record: deleting one must leave none behind.
	if n, err := store.DeleteOne(ctx, flight.Cold, "PK305"); err != nil || n != 1 {
		t.Fatalf("DeleteOne(cold) = (%d, %v), want (1, nil)", n, err)
	}
	if leftover, err := store.FindOne(ctx, flight.Cold, "PK305"); err != nil || leftover != nil {
		t.Errorf("cold storage still holds a duplicate: (%v, %v)", leftover, err)
	}
	if hot, err := store.FindOne(ctx, flight.Hot, "PK305"); err != nil || hot != nil {
		t.Errorf("hot storage not cleaned up: (%v, %v)", hot, err)
	}
}

// At any instant a flight resolves from exactly one store.
func TestHotColdExclusivity(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &flight.CreateRequest{
		FlightID: "PK306", Airline: "PIA", Origin: "ISB", Destination: "LHE",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	inHot, _ := store.FindOne(ctx, flight.Hot, "PK306")
	inCold, _ := store.FindOne(ctx, flight.Cold, "PK306")
	if inHot == nil || inCold != nil {
		t.Fatalf("before archive: hot=%v cold=%v, want hot only", inHot, inCold)
	}

	if _, err := svc.Archive(ctx, "PK306"); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	inHot, _ = store.FindOne(ctx, flight.Hot, "PK306")
	inCold, _ = store.FindOne(ctx, flight.Cold, "PK306")
	if inHot != nil || inCold == nil {
		t.Fatalf("after archive: hot=%v cold=%v, want cold only", inHot, inCold)
	}
}

// Package sqlite implements the flight document store on SQLite. The two
// logical collections (hot and cold) live in a single table tagged with a
// collection column; a single writer connection plus immediate transactions
// give each find-and-update call single-document atomicity.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skyward/flighttrack/internal/flight"
	"github.com/skyward/flighttrack/pkg/logger"
	_ "modernc.org/sqlite"
)

// FlightStore is a SQLite-backed implementation of flight.Store.
type FlightStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewFlightStore opens (or creates) the database at dbPath and prepares the
// schema. The returned store must be closed by the caller.
func NewFlightStore(dbPath string, log *logger.Logger) (*FlightStore, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite flight store",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time; funnel everything through
	// a single connection so transactions never contend in-process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &FlightStore{
		db:     db,
		logger: storageLogger,
	}, nil
}

// Close closes the database connection
func (s *FlightStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetDB returns the database connection
func (s *FlightStore) GetDB() *sql.DB {
	return s.db
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			flight_id TEXT NOT NULL,
			airline TEXT NOT NULL,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			status TEXT NOT NULL,
			last_update TIMESTAMP NOT NULL,
			track TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flights table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_flights_collection_flight_id ON flights(collection, flight_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on flights.collection_flight_id: %w", err)
	}

	log.Info("Database schema initialized successfully")
	return nil
}

// Insert stores a new flight document in the given collection and returns
// it with its assigned identity.
func (s *FlightStore) Insert(ctx context.Context, col flight.Collection, f *flight.Flight) (*flight.Flight, error) {
	stored := cloneFlight(f)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	track, err := json.Marshal(stored.Track)
	if err != nil {
		return nil, fmt.Errorf("failed to encode track: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flights (id, collection, flight_id, airline, origin, destination, status, last_update, track)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, string(col), stored.FlightID, stored.Airline, stored.Origin, stored.Destination,
		string(stored.Status), stored.LastUpdate.UTC().Format(time.RFC3339Nano), string(track))
	if err != nil {
		return nil, fmt.Errorf("%w: insert flight: %v", flight.ErrStoreUnavailable, err)
	}

	s.logger.Debug("Inserted flight document",
		logger.String("collection", string(col)),
		logger.String("flight_id", stored.FlightID),
		logger.String("id", stored.ID))

	return stored, nil
}

// FindOne returns the flight matching flightID in the given collection, or
// nil if no document matches.
func (s *FlightStore) FindOne(ctx context.Context, col flight.Collection, flightID string) (*flight.Flight, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, flight_id, airline, origin, destination, status, last_update, track
		FROM flights
		WHERE collection = ? AND flight_id = ?
		ORDER BY rowid
		LIMIT 1
	`, string(col), flightID)

	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: query flight: %v", flight.ErrStoreUnavailable, err)
	}
	return f, nil
}

// FindOneAndUpdate atomically applies mut to the flight matching flightID.
// The read-modify-write runs inside an immediate transaction on the single
// writer connection, so concurrent calls for the same flight serialize and
// each sees a consistent pre-image.
func (s *FlightStore) FindOneAndUpdate(ctx context.Context, col flight.Collection, flightID string, mut flight.Mutation, returnUpdated bool) (*flight.Flight, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin update: %v", flight.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, flight_id, airline, origin, destination, status, last_update, track
		FROM flights
		WHERE collection = ? AND flight_id = ?
		ORDER BY rowid
		LIMIT 1
	`, string(col), flightID)

	before, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: query flight for update: %v", flight.ErrStoreUnavailable, err)
	}

	after := cloneFlight(before)
	if err := mut.Apply(after); err != nil {
		return nil, err
	}

	track, err := json.Marshal(after.Track)
	if err != nil {
		return nil, fmt.Errorf("failed to encode track: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE flights
		SET status = ?, last_update = ?, track = ?
		WHERE id = ?
	`, string(after.Status), after.LastUpdate.UTC().Format(time.RFC3339Nano), string(track), after.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: update flight: %v", flight.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit update: %v", flight.ErrStoreUnavailable, err)
	}

	if returnUpdated {
		return after, nil
	}
	return before, nil
}

// DeleteOne removes the flight matching flightID from the given collection
// and reports how many documents were deleted.
func (s *FlightStore) DeleteOne(ctx context.Context, col flight.Collection, flightID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM flights
		WHERE id IN (
			SELECT id FROM flights
			WHERE collection = ? AND flight_id = ?
			ORDER BY rowid
			LIMIT 1
		)
	`, string(col), flightID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete flight: %v", flight.ErrStoreUnavailable, err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete flight: %v", flight.ErrStoreUnavailable, err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanFlight decodes a single flight row.
func scanFlight(row rowScanner) (*flight.Flight, error) {
	var f flight.Flight
	var status, lastUpdate, track string

	if err := row.Scan(&f.ID, &f.FlightID, &f.Airline, &f.Origin, &f.Destination,
		&status, &lastUpdate, &track); err != nil {
		return nil, err
	}

	f.Status = flight.Status(status)

	t, err := time.Parse(time.RFC3339Nano, lastUpdate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_update timestamp: %w", err)
	}
	f.LastUpdate = t

	if err := json.Unmarshal([]byte(track), &f.Track); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	if f.Track == nil {
		f.Track = []flight.LocationPoint{}
	}

	return &f, nil
}

// cloneFlight returns a deep copy so stored documents never alias caller
// slices.
func cloneFlight(f *flight.Flight) *flight.Flight {
	c := *f
	c.Track = make([]flight.LocationPoint, len(f.Track))
	copy(c.Track, f.Track)
	return &c
}

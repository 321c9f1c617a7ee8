package render

import (
	"strings"
	"testing"
	"time"

	"github.com/skyward/flighttrack/internal/flight"
	"github.com/skyward/flighttrack/pkg/logger"
)

func sampleFlight(status flight.Status, points int) *flight.Flight {
	f := &flight.Flight{
		ID:          "doc-1",
		FlightID:    "PK303",
		Airline:     "PIA",
		Origin:      "LHE",
		Destination: "JED",
		Status:      status,
		LastUpdate:  time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC),
		Track:       []flight.LocationPoint{},
	}
	base := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	for i := 0; i < points; i++ {
		f.Track = append(f.Track, flight.LocationPoint{
			Timestamp: base.Add(time.Duration(i) * 10 * time.Minute),
			Latitude:  31.52 - float64(i)*0.5,
			Longitude: 74.36 - float64(i)*1.0,
			Altitude:  30000,
			Speed:     450,
		})
	}
	return f
}

func TestRenderEmptyTrack(t *testing.T) {
	r := NewRenderer(4, logger.NewNop())

	out, err := r.Render(sampleFlight(flight.StatusScheduled, 0))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if out != NoDataPlaceholder {
		t.Errorf("Render = %q, want placeholder", out)
	}
}

func TestRenderSinglePoint(t *testing.T) {
	r := NewRenderer(4, logger.NewNop())

	out, err := r.Render(sampleFlight(flight.StatusEnRoute, 1))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.Contains(out, "L.polyline") {
		t.Error("output missing polyline")
	}
	if strings.Contains(out, "Final course") {
		t.Error("single-point track should not report a course")
	}
	if !strings.Contains(out, "Last location") {
		t.Error("en-route flight should show last-location popup")
	}
}

func TestRenderFullTrack(t *testing.T) {
	r := NewRenderer(4, logger.NewNop())

	out, err := r.Render(sampleFlight(flight.StatusLanded, 3))
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	for _, want := range []string{
		"PK303",
		"LHE",
		"JED",
		"LANDED",
		"31.52",
		"Final course",
		"Landed: JED",
		"Start: LHE",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if strings.Contains(out, NoDataPlaceholder) {
		t.Error("non-empty track rendered the placeholder")
	}
}

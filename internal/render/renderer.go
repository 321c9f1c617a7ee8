// Package render produces a self-contained HTML map of a flight's track.
// It is a pure read-only consumer of a resolved flight record.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/skyward/flighttrack/internal/flight"
	"github.com/skyward/flighttrack/internal/geo"
	"github.com/skyward/flighttrack/pkg/logger"
)

// NoDataPlaceholder is returned for flights that have not reported any
// positions yet; no map is generated in that case.
const NoDataPlaceholder = "<h1>No tracking data available for this flight.</h1>"

const trackTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Flight {{.FlightID}} track</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
#info { position: absolute; top: 10px; right: 10px; z-index: 1000;
        background: rgba(255,255,255,0.9); padding: 8px 12px; font-family: sans-serif; }
</style>
</head>
<body>
<div id="map"></div>
<div id="info">
<b>{{.Airline}} {{.FlightID}}</b> {{.Origin}} &rarr; {{.Destination}} ({{.Status}})<br>
Points: {{.PointCount}} &middot; Distance: {{printf "%.1f" .DistanceNM}} nm
{{- if .HasCourse}}<br>Final course: {{printf "%03.0f" .CourseTrue}}&deg;T / {{printf "%03.0f" .CourseMag}}&deg;M{{end}}
</div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var track = {{.Coordinates}};
L.polyline(track, {color: 'blue', weight: 3, opacity: 0.8}).addTo(map);
L.marker(track[0]).addTo(map).bindPopup({{.StartPopup}});
L.marker(track[track.length - 1]).addTo(map).bindPopup({{.EndPopup}});
</script>
</body>
</html>
`

// Renderer renders flight tracks as HTML map documents.
type Renderer struct {
	tmpl   *template.Template
	logger *logger.Logger
	zoom   int
}

// NewRenderer creates a new track renderer. zoom is the initial map zoom
// level.
func NewRenderer(zoom int, log *logger.Logger) *Renderer {
	if zoom <= 0 {
		zoom = 4
	}
	return &Renderer{
		tmpl:   template.Must(template.New("track").Parse(trackTemplate)),
		logger: log.Named("render"),
		zoom:   zoom,
	}
}

type templateData struct {
	FlightID    string
	Airline     string
	Origin      string
	Destination string
	Status      string
	PointCount  int
	DistanceNM  float64
	HasCourse   bool
	CourseTrue  float64
	CourseMag   float64
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	Coordinates template.JS
	StartPopup  string
	EndPopup    string
}

// Render produces the HTML map artifact for the given flight. Flights with
// an empty track get the fixed no-data placeholder instead.
func (r *Renderer) Render(f *flight.Flight) (string, error) {
	if len(f.Track) == 0 {
		return NoDataPlaceholder, nil
	}

	coords := make([][2]float64, len(f.Track))
	var sumLat, sumLon float64
	for i, p := range f.Track {
		coords[i] = [2]float64{p.Latitude, p.Longitude}
		sumLat += p.Latitude
		sumLon += p.Longitude
	}

	coordsJSON, err := json.Marshal(coords)
	if err != nil {
		return "", fmt.Errorf("failed to encode coordinates: %w", err)
	}

	data := templateData{
		FlightID:    f.FlightID,
		Airline:     f.Airline,
		Origin:      f.Origin,
		Destination: f.Destination,
		Status:      string(f.Status),
		PointCount:  len(f.Track),
		CenterLat:   sumLat / float64(len(f.Track)),
		CenterLon:   sumLon / float64(len(f.Track)),
		Zoom:        r.zoom,
		Coordinates: template.JS(coordsJSON),
	}

	for i := 1; i < len(f.Track); i++ {
		prev, cur := f.Track[i-1], f.Track[i]
		data.DistanceNM += geo.MetersToNM(geo.Haversine(
			prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude))
	}

	last := f.Track[len(f.Track)-1]
	if len(f.Track) >= 2 {
		prev := f.Track[len(f.Track)-2]
		data.HasCourse = true
		data.CourseTrue = geo.InitialBearing(
			prev.Latitude, prev.Longitude, last.Latitude, last.Longitude)
		declination := geo.MagneticVariation(
			last.Latitude, last.Longitude, last.Altitude, last.Timestamp)
		data.CourseMag = geo.TrueToMagnetic(data.CourseTrue, declination)
	}

	start := f.Track[0]
	data.StartPopup = fmt.Sprintf("Start: %s at %s",
		f.Origin, start.Timestamp.Format(time.RFC3339))
	if f.Status == flight.StatusLanded {
		data.EndPopup = fmt.Sprintf("Landed: %s at %s",
			f.Destination, last.Timestamp.Format(time.RFC3339))
	} else {
		data.EndPopup = fmt.Sprintf("Last location at %s, %.0f kts",
			last.Timestamp.Format(time.RFC3339), last.Speed)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute track template: %w", err)
	}

	r.logger.Debug("Track rendered",
		logger.String("flight_id", f.FlightID),
		logger.Int("points", data.PointCount),
		logger.Int("rendered_length", buf.Len()))

	return buf.String(), nil
}

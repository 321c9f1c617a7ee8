// Package geo provides the great-circle and magnetic-field math used to
// annotate rendered flight tracks.
package geo

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

const (
	earthRadiusM = 6371000.0 // Mean Earth radius (m)
	metersPerNM  = 1852.0    // Meters per nautical mile
	feetPerMeter = 3.28084   // Feet per meter
)

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// MetersToNM converts meters to nautical miles
func MetersToNM(meters float64) float64 {
	return meters / metersPerNM
}

// InitialBearing returns the initial true course in degrees (0-360) from
// point 1 to point 2.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1 = lat1 * math.Pi / 180
	lon1 = lon1 * math.Pi / 180
	lat2 = lat2 * math.Pi / 180
	lon2 = lon2 * math.Pi / 180

	y := math.Sin(lon2-lon1) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	bearing := math.Atan2(y, x) * 180 / math.Pi

	// Normalize to 0-360
	return math.Mod(math.Mod(bearing, 360)+360, 360)
}

// MagneticVariation returns the magnetic declination in degrees (+East,
// -West) for a given position, altitude in feet and time. Returns 0 if the
// WMM calculation fails.
func MagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt / feetPerMeter

	loc := egm96.NewLocationGeodetic(lat, lon, altM)
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}

	return mag.D()
}

// TrueToMagnetic converts a true course to a magnetic course given the
// declination at the point of measurement.
func TrueToMagnetic(trueCourse, declination float64) float64 {
	m := trueCourse - declination
	return math.Mod(math.Mod(m, 360)+360, 360)
}

// Package geomath provides great-circle bearing and distance math plus the
// signed angular delta all collision and wraparound logic is built on.
package geomath

import (
	"math"

	"github.com/skylens/aroverlay/pkg/poi"
)

// EarthRadiusMeters is the mean earth radius used for haversine distances.
const EarthRadiusMeters = 6371000.0

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Bearing returns the initial great-circle bearing from one location to
// another in degrees [0,360). Coincident points yield 0.
func Bearing(from, to poi.Location) float64 {
	if from.Latitude == to.Latitude && from.Longitude == to.Longitude {
		return 0
	}
	lat1 := radians(from.Latitude)
	lat2 := radians(to.Latitude)
	deltaLon := radians(to.Longitude - from.Longitude)

	y := math.Sin(deltaLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLon)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// Distance returns the great-circle (haversine) distance between two
// locations in meters. Zero iff the points coincide.
func Distance(from, to poi.Location) float64 {
	lat1 := radians(from.Latitude)
	lat2 := radians(to.Latitude)
	deltaLat := radians(to.Latitude - from.Latitude)
	deltaLon := radians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// AngularDelta returns the signed minimal difference b-a in degrees,
// normalized to the shortest arc. The result is always in [-180,180]:
// AngularDelta(350,10) == 20, AngularDelta(10,350) == -20.
func AngularDelta(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// NormalizeDegrees maps an arbitrary angle to [0,360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// DestinationPoint returns the location reached from start by traveling
// distanceMeters along the given initial bearing.
func DestinationPoint(start poi.Location, bearingDeg, distanceMeters float64) poi.Location {
	latRad := radians(start.Latitude)
	lonRad := radians(start.Longitude)
	brgRad := radians(bearingDeg)
	d := distanceMeters / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(d) +
		math.Cos(latRad)*math.Sin(d)*math.Cos(brgRad))
	lon2 := lonRad + math.Atan2(
		math.Sin(brgRad)*math.Sin(d)*math.Cos(latRad),
		math.Cos(d)-math.Sin(latRad)*math.Sin(lat2))

	return poi.Location{
		Latitude:  degrees(lat2),
		Longitude: degrees(lon2),
		Altitude:  start.Altitude,
	}
}

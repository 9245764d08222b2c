// Package geo converts between the runtime WGS84 locations the layout
// engine works in and the EPSG:3857 points the catalog persists.
//
// Catalog rows always store 3857, including for SQLite, because SQLite has
// no spatial awareness and we need to interpret point data from strings
// during migrations using the inherent Scan function. Geometry data is
// stored in the WKB format, a binary representation of the geometry.
package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/skylens/aroverlay/pkg/poi"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// LocationFromString parses a string in the format "lon,lat" or
// "lon,lat,alt" into a WGS84 location.
func LocationFromString(coords string) (poi.Location, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return poi.Location{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return poi.Location{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return poi.Location{}, ErrInvalidCoordinates
	}
	var alt float64
	if len(coordsSplit) > 2 {
		alt, err = strconv.ParseFloat(strings.TrimSpace(coordsSplit[2]), 64)
		if err != nil {
			return poi.Location{}, ErrInvalidCoordinates
		}
	}
	loc := poi.Location{Latitude: lat, Longitude: lon, Altitude: alt}
	if !loc.Valid() {
		return poi.Location{}, ErrInvalidCoordinates
	}
	return loc, nil
}

// PointFromLocation converts a WGS84 location into an EPSG:3857 point for
// storage. Altitude rides along unchanged in Z.
func PointFromLocation(loc poi.Location) (geom.Point, error) {
	if !loc.Valid() {
		return geom.Point{}, ErrInvalidCoordinates
	}
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(loc.Longitude, loc.Latitude, 0)
	point, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    loc.Altitude,
			Type: geom.CoordinatesType(geom.DimXYZ),
		},
	)
	if err != nil {
		return geom.Point{}, ErrInvalidCoordinates
	}
	return point, nil
}

// LocationFromPoint converts a stored EPSG:3857 point back into a WGS84
// location.
func LocationFromPoint(point geom.Point) (poi.Location, error) {
	coords, ok := point.Coordinates()
	if !ok {
		return poi.Location{}, ErrInvalidCoordinates
	}
	epsg := wgs84.EPSG()
	f := epsg.Transform(3857, 4326)
	lon, lat, _ := f(coords.X, coords.Y, 0)
	loc := poi.Location{Latitude: lat, Longitude: lon, Altitude: coords.Z}
	if !loc.Valid() {
		return poi.Location{}, ErrInvalidCoordinates
	}
	return loc, nil
}

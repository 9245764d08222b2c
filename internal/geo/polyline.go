package geo

import (
	"encoding/json"
	"fmt"

	"github.com/skylens/aroverlay/pkg/poi"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ParsePolyline parses a JSON array of [lon,lat] pairs into a geom.LineString.
// Input format: "[[x1,y1],[x2,y2],...]"
func ParsePolyline(input string) (geom.LineString, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return geom.LineString{}, fmt.Errorf("failed to parse polyline JSON: %w", err)
	}

	if len(coords) < 2 {
		return geom.LineString{}, fmt.Errorf("polyline must have at least 2 points, got %d", len(coords))
	}

	flatCoords := make([]float64, 0, len(coords)*2)
	for i, coord := range coords {
		if len(coord) < 2 {
			return geom.LineString{}, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		flatCoords = append(flatCoords, coord[0], coord[1])
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build polyline geometry: %w", err)
	}

	return ls, nil
}

// RouteFromPolyline parses a JSON array of [lon,lat] WGS84 pairs into a
// walkable route of locations. The simulated feed follows such routes.
func RouteFromPolyline(input string) ([]poi.Location, error) {
	ls, err := ParsePolyline(input)
	if err != nil {
		return nil, err
	}

	seq := ls.Coordinates()
	route := make([]poi.Location, seq.Length())
	for i := range route {
		xy := seq.GetXY(i)
		loc := poi.Location{Longitude: xy.X, Latitude: xy.Y}
		if !loc.Valid() {
			return nil, fmt.Errorf("coordinate %d: %w", i, ErrInvalidCoordinates)
		}
		route[i] = loc
	}

	return route, nil
}

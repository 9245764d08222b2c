// Package poi holds the public domain types shared between the layout
// engine, the catalog backends, and presentation collaborators.
package poi

import "math"

// Location is a WGS84 (EPSG:4326) coordinate with optional altitude.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"alt,omitempty"` // meters ASL, 0 when unknown
}

// Valid reports whether the location is a usable WGS84 coordinate.
// Non-finite values and out-of-range lat/lon are rejected.
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) {
		return false
	}
	if math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return math.Abs(l.Latitude) <= 90 && math.Abs(l.Longitude) <= 180
}

// Annotation is a single point of interest overlaid onto the camera view.
//
// DistanceFromUser, Azimuth, VerticalLevel and Active are derived fields
// owned by the engine's reload pipeline; they are recomputed every cycle
// and carry no meaning before the first reload.
type Annotation struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Location Location          `json:"location"`
	Tags     map[string]string `json:"tags,omitempty"`

	DistanceFromUser float64 `json:"distanceFromUser"` // meters
	Azimuth          float64 `json:"azimuth"`          // degrees [0,360)
	VerticalLevel    int     `json:"verticalLevel"`
	Active           bool    `json:"active"`
}

// Offset is a screen position inside the overlay strip, in points.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewEventKind discriminates view lifecycle events emitted by the engine.
type ViewEventKind string

const (
	ViewBound   ViewEventKind = "bound"
	ViewUnbound ViewEventKind = "unbound"
	ViewMoved   ViewEventKind = "moved"
	ViewHidden  ViewEventKind = "hidden"
	ViewShown   ViewEventKind = "shown"
)

// ViewEvent tells the presentation layer to attach, detach or move the
// realized view for one annotation.
type ViewEvent struct {
	Kind         ViewEventKind `json:"kind"`
	AnnotationID string        `json:"annotationId"`
	Offset       Offset        `json:"offset"`
}

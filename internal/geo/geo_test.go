package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/skylens/aroverlay/pkg/poi"
)

func TestLocationFromString_ValidWithAltitude(t *testing.T) {
	loc, err := LocationFromString("16.37,48.2,171.5")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Longitude != 16.37 {
		t.Errorf("expected lon=16.37, got %f", loc.Longitude)
	}
	if loc.Latitude != 48.2 {
		t.Errorf("expected lat=48.2, got %f", loc.Latitude)
	}
	if loc.Altitude != 171.5 {
		t.Errorf("expected alt=171.5, got %f", loc.Altitude)
	}
}

func TestLocationFromString_ValidWithoutAltitude(t *testing.T) {
	loc, err := LocationFromString("16.37,48.2")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Altitude != 0 {
		t.Errorf("expected alt=0, got %f", loc.Altitude)
	}
}

func TestLocationFromString_Invalid(t *testing.T) {
	cases := []string{
		"",
		"16.37",
		"abc,48.2",
		"16.37,abc",
		"16.37,48.2,abc",
		"200,95", // out of WGS84 range
	}
	for _, c := range cases {
		if _, err := LocationFromString(c); !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("LocationFromString(%q): expected ErrInvalidCoordinates, got %v", c, err)
		}
	}
}

func TestPointRoundTrip(t *testing.T) {
	orig := poi.Location{Latitude: 48.2082, Longitude: 16.3738, Altitude: 171}

	point, err := PointFromLocation(orig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	back, err := LocationFromPoint(point)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(back.Latitude-orig.Latitude) > 1e-6 {
		t.Errorf("latitude drifted: %v -> %v", orig.Latitude, back.Latitude)
	}
	if math.Abs(back.Longitude-orig.Longitude) > 1e-6 {
		t.Errorf("longitude drifted: %v -> %v", orig.Longitude, back.Longitude)
	}
	if back.Altitude != orig.Altitude {
		t.Errorf("altitude drifted: %v -> %v", orig.Altitude, back.Altitude)
	}
}

func TestPointFromLocation_Invalid(t *testing.T) {
	_, err := PointFromLocation(poi.Location{Latitude: 200, Longitude: 0})
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestPointFromLocation_ProjectsAwayFromDegrees(t *testing.T) {
	// 3857 coordinates are meters from the meridian/equator, not degrees.
	point, err := PointFromLocation(poi.Location{Latitude: 48.2, Longitude: 16.37})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	coords, ok := point.Coordinates()
	if !ok {
		t.Fatal("expected valid coordinates")
	}
	if math.Abs(coords.X) < 1000 || math.Abs(coords.Y) < 1000 {
		t.Errorf("coordinates look unprojected: (%f, %f)", coords.X, coords.Y)
	}
}

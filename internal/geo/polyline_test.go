package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolyline_Valid(t *testing.T) {
	input := "[[16.37,48.2],[16.38,48.21],[16.39,48.22]]"
	ls, err := ParsePolyline(input)

	require.NoError(t, err)
	seq := ls.Coordinates()
	require.Equal(t, 3, seq.Length())
	assert.Equal(t, 16.37, seq.GetXY(0).X)
	assert.Equal(t, 48.2, seq.GetXY(0).Y)
	assert.Equal(t, 16.39, seq.GetXY(2).X)
}

func TestParsePolyline_InvalidJSON(t *testing.T) {
	_, err := ParsePolyline("not valid json")
	require.Error(t, err)
}

func TestParsePolyline_TooFewPoints(t *testing.T) {
	_, err := ParsePolyline("[[16.37,48.2]]")
	require.Error(t, err)
}

func TestRouteFromPolyline_Valid(t *testing.T) {
	route, err := RouteFromPolyline("[[16.37,48.2],[16.38,48.21]]")

	require.NoError(t, err)
	require.Len(t, route, 2)
	assert.Equal(t, 48.2, route[0].Latitude)
	assert.Equal(t, 16.37, route[0].Longitude)
	assert.Equal(t, 48.21, route[1].Latitude)
}

func TestRouteFromPolyline_OutOfRange(t *testing.T) {
	_, err := RouteFromPolyline("[[16.37,48.2],[300,95]]")
	require.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestRouteFromPolyline_InsufficientCoordinates(t *testing.T) {
	_, err := RouteFromPolyline("[[16.37],[16.38,48.21]]")
	require.Error(t, err)
}

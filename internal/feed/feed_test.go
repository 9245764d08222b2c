package feed

import (
	"context"
	"testing"
	"time"

	"github.com/skylens/aroverlay/internal/config"
	"github.com/skylens/aroverlay/internal/geomath"
	"github.com/skylens/aroverlay/pkg/poi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.FeedConfig {
	return config.FeedConfig{
		CenterLat:      48.2082,
		CenterLon:      16.3738,
		RadiusMeters:   100,
		WalkSpeed:      1.4,
		HeadingRate:    30,
		TickInterval:   5 * time.Millisecond,
		LocateInterval: 20 * time.Millisecond,
	}
}

func TestRunEmitsInitialFix(t *testing.T) {
	f := New(testConfig(), nil)
	out := make(chan Sample, 64)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx, out)

	var first Sample
	select {
	case first = <-out:
	case <-time.After(time.Second):
		t.Fatal("no initial sample")
	}

	require.NotNil(t, first.Location)
	assert.True(t, first.Location.Valid())

	// On the configured circle around the center.
	center := poi.Location{Latitude: 48.2082, Longitude: 16.3738}
	assert.InDelta(t, 100, geomath.Distance(center, *first.Location), 1)
}

func TestRunEmitsHeadingTicks(t *testing.T) {
	f := New(testConfig(), nil)
	out := make(chan Sample, 256)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	f.Run(ctx, out)
	close(out)

	headingOnly := 0
	fixes := 0
	for s := range out {
		assert.GreaterOrEqual(t, s.Heading, 0.0)
		assert.Less(t, s.Heading, 360.0)
		if s.Location == nil {
			headingOnly++
		} else {
			fixes++
		}
	}
	assert.Greater(t, headingOnly, 5)
	assert.GreaterOrEqual(t, fixes, 2) // initial fix plus at least one locate tick
}

func TestWalkAdvancesAlongCircle(t *testing.T) {
	cfg := testConfig()
	cfg.WalkSpeed = 10
	f := New(cfg, nil)

	start := f.location()
	f.walked = 100 // quarter-ish of the 628m circumference
	moved := f.location()

	assert.Greater(t, geomath.Distance(start, moved), 50.0)

	// Still on the circle.
	center := poi.Location{Latitude: cfg.CenterLat, Longitude: cfg.CenterLon}
	assert.InDelta(t, 100, geomath.Distance(center, moved), 1)
}

func TestZeroRadiusStaysAtCenter(t *testing.T) {
	cfg := testConfig()
	cfg.RadiusMeters = 0
	f := New(cfg, nil)

	loc := f.location()
	assert.Equal(t, cfg.CenterLat, loc.Latitude)
	assert.Equal(t, cfg.CenterLon, loc.Longitude)
}

func TestJitterStaysBounded(t *testing.T) {
	cfg := testConfig()
	cfg.HeadingRate = 0
	cfg.HeadingJitter = 3
	f := New(cfg, nil)

	for i := 0; i < 200; i++ {
		raw := f.nextHeading()
		delta := geomath.AngularDelta(0, raw)
		assert.LessOrEqual(t, delta, 3.0)
		assert.GreaterOrEqual(t, delta, -3.0)
	}
}

func TestRouteFollowing(t *testing.T) {
	cfg := testConfig()
	// Two waypoints roughly 1.1km apart, west to east through Vienna.
	cfg.Route = `[[16.3600, 48.2082], [16.3748, 48.2082]]`
	f := New(cfg, nil)
	require.Len(t, f.route, 2)

	start := f.route[0]
	end := f.route[1]
	total := geomath.Distance(start, end)

	f.walked = 0
	assert.InDelta(t, 0, geomath.Distance(start, f.location()), 1)

	f.walked = total / 2
	mid := f.location()
	assert.InDelta(t, total/2, geomath.Distance(start, mid), 2)
	assert.InDelta(t, 90, geomath.Bearing(start, mid), 2)

	// Walking past the end loops back to the start of the route.
	f.walked = total * 1.25
	looped := f.location()
	assert.InDelta(t, total/4, geomath.Distance(start, looped), 2)
}

func TestInvalidRouteFallsBackToCircle(t *testing.T) {
	cfg := testConfig()
	cfg.Route = `[[16.37, 999]]`
	f := New(cfg, nil)
	assert.Empty(t, f.route)

	loc := f.location()
	center := poi.Location{Latitude: cfg.CenterLat, Longitude: cfg.CenterLon}
	assert.InDelta(t, cfg.RadiusMeters, geomath.Distance(center, loc), 1)
}

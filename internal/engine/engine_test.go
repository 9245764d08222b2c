package engine

import (
	"testing"

	"github.com/skylens/aroverlay/internal/geomath"
	"github.com/skylens/aroverlay/pkg/poi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = poi.Location{Latitude: 48.2082, Longitude: 16.3738}

// annotationAt places an annotation at the given bearing and distance from
// the test user location.
func annotationAt(id string, bearing, distance float64) poi.Annotation {
	return poi.Annotation{
		ID:       id,
		Title:    id,
		Location: geomath.DestinationPoint(testUser, bearing, distance),
	}
}

func newTestEngine(cfg Config) *Engine {
	if cfg.Projector == (Projector{}) {
		cfg.Projector = testProjector()
	}
	if cfg.HeadingSmoothingFactor == 0 {
		cfg.HeadingSmoothingFactor = 1
	}
	if cfg.MaxVisibleAnnotations == 0 {
		cfg.MaxVisibleAnnotations = 50
	}
	if cfg.MaxVerticalLevel == 0 {
		cfg.MaxVerticalLevel = 5
	}
	return New(cfg, nil, nil)
}

func drainEvents(e *Engine) []poi.ViewEvent {
	return e.Events().GetAndEmpty()
}

func eventsOfKind(events []poi.ViewEvent, kind poi.ViewEventKind) []poi.ViewEvent {
	var out []poi.ViewEvent
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestReloadDeferredUntilFirstFix(t *testing.T) {
	e := newTestEngine(Config{})

	e.SetAnnotations([]poi.Annotation{annotationAt("a", 0, 500)})

	stats := e.Stats()
	assert.True(t, stats.PendingReload)
	assert.Zero(t, stats.Reloads)
	assert.Zero(t, stats.BoundViews)

	e.SetUserLocation(testUser)

	stats = e.Stats()
	assert.False(t, stats.PendingReload)
	assert.Equal(t, 1, stats.Reloads)
	assert.Equal(t, 1, stats.BoundViews)
}

func TestExplicitReloadAlsoLatches(t *testing.T) {
	e := newTestEngine(Config{})

	e.SetAnnotations([]poi.Annotation{annotationAt("a", 0, 500)})
	e.ReloadAnnotations()
	assert.True(t, e.Stats().PendingReload)

	e.SetUserLocation(testUser)
	assert.Equal(t, 1, e.Stats().Reloads)
}

func TestInvalidAnnotationsDroppedSilently(t *testing.T) {
	e := newTestEngine(Config{})
	e.SetUserLocation(testUser)

	e.SetAnnotations([]poi.Annotation{
		annotationAt("good", 0, 500),
		{ID: "bad", Location: poi.Location{Latitude: 91, Longitude: 0}},
	})

	assert.Equal(t, 1, e.Stats().Annotations)
}

func TestInvalidUserLocationIgnored(t *testing.T) {
	e := newTestEngine(Config{})
	e.SetUserLocation(testUser)
	e.SetAnnotations([]poi.Annotation{annotationAt("a", 0, 500)})
	reloads := e.Stats().Reloads

	e.SetUserLocation(poi.Location{Latitude: 200, Longitude: 16})

	assert.Equal(t, reloads, e.Stats().Reloads)
	loc, ok := e.UserLocation()
	assert.True(t, ok)
	assert.Equal(t, testUser, loc)
}

func TestBindsViewsForActiveAnnotations(t *testing.T) {
	e := newTestEngine(Config{})
	e.SetUserLocation(testUser)

	e.SetAnnotations([]poi.Annotation{
		annotationAt("near", 0, 200),
		annotationAt("far", 90, 800),
	})

	events := drainEvents(e)
	bound := eventsOfKind(events, poi.ViewBound)
	require.Len(t, bound, 2)
	assert.Equal(t, 2, e.Stats().BoundViews)
}

func TestCountCapAdmitsClosest(t *testing.T) {
	e := newTestEngine(Config{MaxVisibleAnnotations: 1})
	e.SetUserLocation(testUser)

	e.SetAnnotations([]poi.Annotation{
		annotationAt("far", 0, 900),
		annotationAt("near", 0, 100),
	})

	active := 0
	for _, a := range e.Annotations() {
		if a.Active {
			active++
			assert.Equal(t, "near", a.ID)
		}
	}
	assert.Equal(t, 1, active)
}

func TestDistanceCapExcludesFarAnnotations(t *testing.T) {
	e := newTestEngine(Config{MaxDistance: 500})
	e.SetUserLocation(testUser)

	e.SetAnnotations([]poi.Annotation{
		annotationAt("near", 0, 200),
		annotationAt("far", 0, 2000),
	})

	assert.Equal(t, 1, e.Stats().BoundViews)
}

func TestViewsUnboundWhenLeavingActiveSet(t *testing.T) {
	e := newTestEngine(Config{})
	e.SetUserLocation(testUser)
	e.SetAnnotations([]poi.Annotation{
		annotationAt("a", 0, 200),
		annotationAt("b", 90, 400),
	})
	drainEvents(e)

	// Tighten the cap so one annotation falls out on the next reload.
	e.SetMaxVisibleAnnotations(1)
	e.ReloadAnnotations()

	events := drainEvents(e)
	unbound := eventsOfKind(events, poi.ViewUnbound)
	require.Len(t, unbound, 1)
	assert.Equal(t, "b", unbound[0].AnnotationID)
	assert.Equal(t, 1, e.Stats().BoundViews)
}

func TestHeadingTickShowsAndMovesViews(t *testing.T) {
	e := newTestEngine(Config{})
	e.SetUserLocation(testUser)
	e.SetAnnotations([]poi.Annotation{annotationAt("east", 90, 300)})
	drainEvents(e)

	// Turn toward the annotation: it enters the angular window.
	e.HeadingTick(90)

	events := drainEvents(e)
	require.Len(t, eventsOfKind(events, poi.ViewShown), 1)
	moved := eventsOfKind(events, poi.ViewMoved)
	require.Len(t, moved, 1)
	assert.Equal(t, "east", moved[0].AnnotationID)

	// Turn away again: it leaves the window.
	e.HeadingTick(270)
	events = drainEvents(e)
	require.Len(t, eventsOfKind(events, poi.ViewHidden), 1)
	assert.Empty(t, eventsOfKind(events, poi.ViewMoved))
}

func TestHeadingTickBeforeFixOnlySmoothes(t *testing.T) {
	e := newTestEngine(Config{})

	e.HeadingTick(123)

	stats := e.Stats()
	assert.Equal(t, 1, stats.Ticks)
	assert.InDelta(t, 123, stats.SmoothedHeading, 1e-9)
	assert.Empty(t, drainEvents(e))
}

func TestCollisionPushBeyondCapSettlesNextCycle(t *testing.T) {
	// With a zero level cap, the farther of two colliding annotations is
	// pushed to level 1 and survives this cycle; the next reload's
	// activation filter drops it and releases its view.
	e := newTestEngine(Config{MaxVerticalLevel: -1}) // clamps to 0
	e.SetUserLocation(testUser)
	e.SetAnnotations([]poi.Annotation{
		annotationAt("near", 0, 200),
		annotationAt("far", 1, 600), // same angular cluster
	})
	assert.Equal(t, 2, e.Stats().BoundViews)
	drainEvents(e)

	e.ReloadAnnotations()

	events := drainEvents(e)
	unbound := eventsOfKind(events, poi.ViewUnbound)
	require.Len(t, unbound, 1)
	assert.Equal(t, "far", unbound[0].AnnotationID)

	// A third cycle is stable: no further membership changes.
	e.ReloadAnnotations()
	events = drainEvents(e)
	assert.Empty(t, eventsOfKind(events, poi.ViewBound))
	assert.Empty(t, eventsOfKind(events, poi.ViewUnbound))
}

func TestLevelsCompactAfterDrop(t *testing.T) {
	e := newTestEngine(Config{MaxVerticalLevel: -1})
	e.SetUserLocation(testUser)
	e.SetAnnotations([]poi.Annotation{
		annotationAt("near", 0, 200),
		annotationAt("far", 1, 600),
	})
	e.ReloadAnnotations()

	for _, a := range e.Annotations() {
		if a.ID == "near" {
			assert.Equal(t, 0, a.VerticalLevel)
			assert.True(t, a.Active)
		}
	}
}

func TestConfigClamping(t *testing.T) {
	e := New(Config{
		MaxVisibleAnnotations: 9999,
		MaxVerticalLevel:      99,
		MaxDistance:           -5,
	}, nil, nil)

	assert.Equal(t, MaxVisibleAnnotationsCeiling, e.cfg.MaxVisibleAnnotations)
	assert.Equal(t, MaxVerticalLevelCeiling, e.cfg.MaxVerticalLevel)
	assert.Zero(t, e.cfg.MaxDistance)

	e.SetMaxVisibleAnnotations(0)
	assert.Equal(t, MaxVisibleAnnotationsCeiling, e.cfg.MaxVisibleAnnotations)
	e.SetMaxVisibleAnnotations(25)
	assert.Equal(t, 25, e.cfg.MaxVisibleAnnotations)

	e.SetMaxVerticalLevel(42)
	assert.Equal(t, MaxVerticalLevelCeiling, e.cfg.MaxVerticalLevel)

	e.SetMaxDistance(-1)
	assert.Zero(t, e.cfg.MaxDistance)
	e.SetMaxDistance(1500)
	assert.Equal(t, 1500.0, e.cfg.MaxDistance)
}

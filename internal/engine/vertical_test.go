package engine

import (
	"testing"

	"github.com/skylens/aroverlay/pkg/poi"

	"github.com/stretchr/testify/assert"
)

func activeAnn(id string, distance, azimuth float64) *poi.Annotation {
	return &poi.Annotation{ID: id, DistanceFromUser: distance, Azimuth: azimuth, Active: true}
}

func TestSeedLevelsProportionalToDistance(t *testing.T) {
	a := activeAnn("a", 0, 0)
	b := activeAnn("b", 500, 90)
	c := activeAnn("c", 1000, 180)
	all := []*poi.Annotation{a, b, c}

	SeedLevels(all, all, 4, 1000)

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 2, b.VerticalLevel)
	assert.Equal(t, 4, c.VerticalLevel)
}

func TestSeedLevelsObservedRangeWithoutDistanceCap(t *testing.T) {
	a := activeAnn("a", 200, 0)
	b := activeAnn("b", 400, 90)
	all := []*poi.Annotation{a, b}

	SeedLevels(all, all, 4, 0)

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 4, b.VerticalLevel)
}

func TestSeedLevelsEqualDistances(t *testing.T) {
	a := activeAnn("a", 300, 0)
	b := activeAnn("b", 300, 90)
	all := []*poi.Annotation{a, b}

	SeedLevels(all, all, 4, 0)

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 0, b.VerticalLevel)
}

func TestSeedLevelsParksInactiveOffscreen(t *testing.T) {
	a := activeAnn("a", 100, 0)
	inactive := &poi.Annotation{ID: "x", DistanceFromUser: 200}
	all := []*poi.Annotation{a, inactive}

	SeedLevels(all, []*poi.Annotation{a}, 4, 1000)

	assert.Equal(t, 5, inactive.VerticalLevel)
}

func TestResolveCollisionsPushesFartherUp(t *testing.T) {
	near := activeAnn("near", 100, 10)
	far := activeAnn("far", 400, 12) // 2 degrees apart, overlapping
	near.VerticalLevel, far.VerticalLevel = 0, 0

	ResolveCollisions([]*poi.Annotation{near, far}, 10)

	assert.Equal(t, 0, near.VerticalLevel)
	assert.Equal(t, 1, far.VerticalLevel)
}

func TestResolveCollisionsLeavesSeparatedAlone(t *testing.T) {
	a := activeAnn("a", 100, 10)
	b := activeAnn("b", 400, 60)
	a.VerticalLevel, b.VerticalLevel = 0, 0

	ResolveCollisions([]*poi.Annotation{a, b}, 10)

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 0, b.VerticalLevel)
}

func TestResolveCollisionsCascades(t *testing.T) {
	// Three stacked on the same azimuth: the two farther ones climb.
	a := activeAnn("a", 100, 50)
	b := activeAnn("b", 200, 51)
	c := activeAnn("c", 300, 52)

	ResolveCollisions([]*poi.Annotation{a, b, c}, 10)

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 1, b.VerticalLevel)
	assert.Equal(t, 2, c.VerticalLevel)
}

func TestResolveCollisionsWrapsAcrossNorth(t *testing.T) {
	// 358 and 2 are 4 degrees apart through north.
	a := activeAnn("a", 100, 358)
	b := activeAnn("b", 200, 2)

	ResolveCollisions([]*poi.Annotation{a, b}, 10)

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 1, b.VerticalLevel)
}

func TestResolveCollisionsUsesMinimumWidth(t *testing.T) {
	// Requested width below the floor still collides 4-degree neighbors.
	a := activeAnn("a", 100, 10)
	b := activeAnn("b", 200, 14)

	ResolveCollisions([]*poi.Annotation{a, b}, 1)

	assert.Equal(t, 1, b.VerticalLevel)
}

func TestCompactLevelsShiftsDown(t *testing.T) {
	a := activeAnn("a", 100, 0)
	b := activeAnn("b", 200, 90)
	a.VerticalLevel, b.VerticalLevel = 2, 4

	CompactLevels([]*poi.Annotation{a, b})

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 2, b.VerticalLevel)
}

func TestCompactLevelsNoopAtZero(t *testing.T) {
	a := activeAnn("a", 100, 0)
	b := activeAnn("b", 200, 90)
	a.VerticalLevel, b.VerticalLevel = 0, 3

	CompactLevels([]*poi.Annotation{a, b})

	assert.Equal(t, 0, a.VerticalLevel)
	assert.Equal(t, 3, b.VerticalLevel)
}

func TestAssignLevelsEndToEnd(t *testing.T) {
	// Two angular clusters. Within each cluster the nearer annotation
	// stays low and the farther ones stack above it; across clusters
	// there is no interference.
	a := activeAnn("a", 100, 10)
	b := activeAnn("b", 150, 12)
	c := activeAnn("c", 200, 11)
	d := activeAnn("d", 120, 200)
	e := activeAnn("e", 180, 202)
	all := []*poi.Annotation{a, b, c, d, e}

	AssignLevels(all, all, 5, 0, 10)

	assert.Less(t, a.VerticalLevel, b.VerticalLevel)
	assert.Less(t, b.VerticalLevel, c.VerticalLevel)
	assert.Less(t, d.VerticalLevel, e.VerticalLevel)

	// Compaction anchors the stack at level 0.
	minLevel := a.VerticalLevel
	for _, x := range all {
		if x.VerticalLevel < minLevel {
			minLevel = x.VerticalLevel
		}
	}
	assert.Equal(t, 0, minLevel)
}

package engine

import (
	"math"
	"sort"

	"github.com/skylens/aroverlay/internal/geomath"
	"github.com/skylens/aroverlay/pkg/poi"
)

// minCollisionWidthDegrees floors the angular width of one annotation view
// so very wide overlays can't shrink the collision threshold to nothing.
const minCollisionWidthDegrees = 5.0

// SeedLevels distributes initial vertical levels across [0,maxLevel]
// proportional to each active annotation's normalized distance, closer
// annotations getting lower levels. When maxDistance is configured (>0) the
// normalization range is [0,maxDistance]; otherwise the observed
// [minDistance,farthest] range is used. Inactive annotations are parked at
// the off-screen sentinel level maxLevel+1.
func SeedLevels(annotations []*poi.Annotation, active []*poi.Annotation, maxLevel int, maxDistance float64) {
	for _, a := range annotations {
		if !a.Active {
			a.VerticalLevel = maxLevel + 1
		}
	}
	if len(active) == 0 {
		return
	}

	var minDist, span float64
	if maxDistance > 0 {
		minDist, span = 0, maxDistance
	} else {
		minDist = active[0].DistanceFromUser
		farthest := active[len(active)-1].DistanceFromUser
		for _, a := range active {
			if a.DistanceFromUser < minDist {
				minDist = a.DistanceFromUser
			}
			if a.DistanceFromUser > farthest {
				farthest = a.DistanceFromUser
			}
		}
		span = farthest - minDist
	}

	for _, a := range active {
		if span <= 0 {
			a.VerticalLevel = 0
			continue
		}
		norm := (a.DistanceFromUser - minDist) / span
		norm = math.Min(math.Max(norm, 0), 1)
		a.VerticalLevel = int(norm * float64(maxLevel))
	}
}

// ResolveCollisions pushes the farther of every angularly-overlapping
// same-level pair one level up. The pass is greedy and order sensitive:
// deterministic for a fixed input order, not globally optimal. Annotations
// pushed beyond maxLevel keep their level and are dropped by the activation
// filter on the next cycle.
func ResolveCollisions(active []*poi.Annotation, collisionWidthDegrees float64) {
	if len(active) == 0 {
		return
	}
	width := math.Max(collisionWidthDegrees, minCollisionWidthDegrees)

	levels := make(map[int][]*poi.Annotation)
	highest := 0
	for _, a := range active {
		levels[a.VerticalLevel] = append(levels[a.VerticalLevel], a)
		if a.VerticalLevel > highest {
			highest = a.VerticalLevel
		}
	}

	// Ascending level order so a pushed annotation is reconsidered at its
	// new level.
	for level := 0; level <= highest; level++ {
		group := levels[level]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a1, a2 := group[i], group[j]
				if absf(geomath.AngularDelta(a1.Azimuth, a2.Azimuth)) > width {
					continue
				}
				farther := a2
				if a1.DistanceFromUser > a2.DistanceFromUser {
					farther = a1
				}
				farther.VerticalLevel = level + 1
				levels[level+1] = append(levels[level+1], farther)
				if level+1 > highest {
					highest = level + 1
				}
				if farther == a1 {
					// a1 moved on; stop comparing it at this level.
					group = append(group[:i], group[i+1:]...)
					i--
					break
				}
				group = append(group[:j], group[j+1:]...)
				j--
			}
		}
		levels[level] = group
	}
}

// CompactLevels shifts all active annotations down so the lowest occupied
// level is exactly 0. A no-op for an empty active set.
func CompactLevels(active []*poi.Annotation) {
	if len(active) == 0 {
		return
	}
	minLevel := active[0].VerticalLevel
	for _, a := range active {
		if a.VerticalLevel < minLevel {
			minLevel = a.VerticalLevel
		}
	}
	if minLevel == 0 {
		return
	}
	for _, a := range active {
		a.VerticalLevel -= minLevel
	}
}

// AssignLevels runs the full vertical pipeline: seed, resolve, compact.
// The active slice is re-sorted ascending by distance first so the greedy
// resolution order is stable.
func AssignLevels(annotations, active []*poi.Annotation, maxLevel int, maxDistance, collisionWidthDegrees float64) {
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].DistanceFromUser < active[j].DistanceFromUser
	})
	SeedLevels(annotations, active, maxLevel, maxDistance)
	ResolveCollisions(active, collisionWidthDegrees)
	CompactLevels(active)
}

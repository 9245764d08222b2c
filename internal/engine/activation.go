package engine

import "github.com/skylens/aroverlay/pkg/poi"

// Hard ceilings for the configuration knobs.
const (
	MaxVerticalLevelCeiling      = 10
	MaxVisibleAnnotationsCeiling = 500
)

// Caps are the activation limits. Zero MaxDistance means unbounded.
type Caps struct {
	MaxVisibleAnnotations int
	MaxVerticalLevel      int
	MaxDistance           float64
}

// FilterActive walks annotations in their current order (distance-sorted by
// the caller when counts matter) and sets each Active flag. It returns the
// ordered active subset.
//
// The vertical-level check uses the level computed in a previous cycle;
// activation and level assignment are mutually dependent and settle across
// cycles rather than within one. Exceeding the count cap short-circuits the
// remaining checks for that entry but does not stop the scan.
func FilterActive(annotations []*poi.Annotation, caps Caps) []*poi.Annotation {
	active := make([]*poi.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if len(active) >= caps.MaxVisibleAnnotations {
			a.Active = false
			continue
		}
		if a.VerticalLevel > caps.MaxVerticalLevel {
			a.Active = false
			continue
		}
		if caps.MaxDistance > 0 && a.DistanceFromUser > caps.MaxDistance {
			a.Active = false
			continue
		}
		a.Active = true
		active = append(active, a)
	}
	return active
}

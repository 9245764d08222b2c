// Package store is the canonical holder of the annotation working set and
// its derived per-annotation fields.
package store

import (
	"sort"

	"github.com/skylens/aroverlay/internal/geomath"
	"github.com/skylens/aroverlay/pkg/poi"
)

// Scope selects which annotations a recompute pass touches.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeActiveOnly
)

// Store owns the annotation set. It is not internally synchronized; all
// access happens on the engine's single goroutine.
type Store struct {
	annotations []*poi.Annotation
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// SetAnnotations replaces the working set with the entries carrying a valid
// location. Invalid entries are dropped silently; ingestion is permissive,
// not an error path. Returns how many entries were accepted.
func (s *Store) SetAnnotations(list []poi.Annotation) int {
	s.annotations = s.annotations[:0]
	for i := range list {
		if !list[i].Location.Valid() {
			continue
		}
		a := list[i]
		s.annotations = append(s.annotations, &a)
	}
	return len(s.annotations)
}

// Annotations returns the working set in its current order. Callers must
// not retain the slice across a SetAnnotations.
func (s *Store) Annotations() []*poi.Annotation {
	return s.annotations
}

// Active returns the annotations whose active flag is currently set, in
// working-set order.
func (s *Store) Active() []*poi.Annotation {
	active := make([]*poi.Annotation, 0, len(s.annotations))
	for _, a := range s.annotations {
		if a.Active {
			active = append(active, a)
		}
	}
	return active
}

// Len returns the size of the working set.
func (s *Store) Len() int { return len(s.annotations) }

// RecomputeDistanceAndAzimuth refreshes the derived distance and azimuth of
// every annotation in scope relative to the user location. With
// sortByDistance the full set is reordered ascending by distance, which
// must happen before activation filtering for "closest N" to mean anything.
func (s *Store) RecomputeDistanceAndAzimuth(user poi.Location, sortByDistance bool, scope Scope) {
	for _, a := range s.annotations {
		if scope == ScopeActiveOnly && !a.Active {
			continue
		}
		a.DistanceFromUser = geomath.Distance(user, a.Location)
		a.Azimuth = geomath.Bearing(user, a.Location)
	}
	if sortByDistance {
		sort.SliceStable(s.annotations, func(i, j int) bool {
			return s.annotations[i].DistanceFromUser < s.annotations[j].DistanceFromUser
		})
	}
}

package engine

import (
	"github.com/skylens/aroverlay/internal/geomath"
	"github.com/skylens/aroverlay/pkg/poi"
)

// Projector maps (azimuth, vertical level, heading region) to an offset
// inside the horizontally-scrolling overlay strip. The strip spans a full
// 360 degrees at a fixed pixels-per-degree scale; a viewport-sized window
// of it is visible at any time.
type Projector struct {
	PixelsPerDegree      float64
	ViewportWidth        float64
	ViewportHeight       float64
	AnnotationViewWidth  float64
	AnnotationViewHeight float64

	// BaselineFraction places the level-0 row as a fraction of viewport
	// height measured from the top.
	BaselineFraction float64

	// LevelSquareFactor adds a quadratic per-level offset so high stacks
	// don't visually compress.
	LevelSquareFactor float64
}

// OverlayWidth is the full width of the 360-degree strip in points.
func (p Projector) OverlayWidth() float64 {
	return 360 * p.PixelsPerDegree
}

// DegreesPerScreen is the angular span covered by one viewport width.
func (p Projector) DegreesPerScreen() float64 {
	if p.PixelsPerDegree == 0 {
		return 0
	}
	return p.ViewportWidth / p.PixelsPerDegree
}

// CollisionWidthDegrees converts the annotation view width to degrees,
// floored at the minimum collision width.
func (p Projector) CollisionWidthDegrees() float64 {
	if p.PixelsPerDegree == 0 {
		return minCollisionWidthDegrees
	}
	w := p.AnnotationViewWidth / p.PixelsPerDegree
	if w < minCollisionWidthDegrees {
		w = minCollisionWidthDegrees
	}
	return w
}

// Project returns the strip offset for one annotation.
//
// When the smoothed heading sits just right of north and the azimuth just
// left of it (or vice versa), the x coordinate is shifted by one full strip
// width so numerically distant but visually adjacent azimuths (358 and 2)
// render next to each other.
func (p Projector) Project(azimuth float64, level int, region NorthRegion) poi.Offset {
	x := azimuth*p.PixelsPerDegree - p.AnnotationViewWidth/2

	switch region {
	case RegionNorthRight:
		if azimuth > 360-northWindowDegrees {
			x -= p.OverlayWidth()
		}
	case RegionNorthLeft:
		if azimuth < northWindowDegrees {
			x += p.OverlayWidth()
		}
	}

	lvl := float64(level)
	y := p.ViewportHeight*p.BaselineFraction -
		lvl*p.AnnotationViewHeight -
		lvl*lvl*p.LevelSquareFactor

	return poi.Offset{X: x, Y: y}
}

// Visible reports whether an annotation's view belongs on the overlay this
// tick: inside the viewport's angular window and within the level cap.
// This cull runs every tick, independent of the offset computation.
func (p Projector) Visible(smoothedHeading, azimuth float64, level, maxLevel int) bool {
	if level > maxLevel {
		return false
	}
	return absf(geomath.AngularDelta(smoothedHeading, azimuth)) < p.DegreesPerScreen()/2
}

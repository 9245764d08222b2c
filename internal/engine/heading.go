package engine

import "github.com/skylens/aroverlay/internal/geomath"

// NorthRegion discretizes the smoothed heading's proximity to the 0/360
// boundary. Region flips drive the position-only relayout pass that keeps
// the wraparound free of animation artifacts.
type NorthRegion int

const (
	RegionNeutral NorthRegion = iota
	RegionNorthRight
	RegionNorthLeft
)

func (r NorthRegion) String() string {
	switch r {
	case RegionNorthRight:
		return "north-right"
	case RegionNorthLeft:
		return "north-left"
	default:
		return "neutral"
	}
}

const (
	// northWindowDegrees is the half-window around north in which wrap
	// correction applies.
	northWindowDegrees = 40.0

	// snapThresholdDegrees bypasses smoothing on large jumps so a heading
	// swing across north doesn't wind up over several seconds.
	snapThresholdDegrees = 50.0
)

// HeadingSmoother low-pass filters raw compass samples and tracks the
// north region. Not safe for concurrent use; the engine owns it.
type HeadingSmoother struct {
	factor    float64
	smoothed  float64
	region    NorthRegion
	hasSample bool
}

// NewHeadingSmoother creates a smoother with the given factor in (0,1].
// A factor of 1 disables smoothing. Out-of-range values fall back to 1.
func NewHeadingSmoother(factor float64) *HeadingSmoother {
	if factor <= 0 || factor > 1 {
		factor = 1
	}
	return &HeadingSmoother{factor: factor}
}

// SetFactor updates the smoothing factor, ignoring out-of-range values.
func (s *HeadingSmoother) SetFactor(factor float64) {
	if factor > 0 && factor <= 1 {
		s.factor = factor
	}
}

// Factor returns the current smoothing factor.
func (s *HeadingSmoother) Factor() float64 { return s.factor }

// Heading returns the current smoothed heading in [0,360).
func (s *HeadingSmoother) Heading() float64 { return s.smoothed }

// Region returns the current north region.
func (s *HeadingSmoother) Region() NorthRegion { return s.region }

// Update consumes one raw heading sample and returns the new smoothed
// heading plus whether the north region changed since the previous tick.
func (s *HeadingSmoother) Update(raw float64) (smoothed float64, regionChanged bool) {
	raw = geomath.NormalizeDegrees(raw)

	switch {
	case !s.hasSample:
		s.smoothed = raw
		s.hasSample = true
	case absf(geomath.AngularDelta(s.smoothed, raw)) > snapThresholdDegrees:
		// Snap-on-jump: blending across a large delta animates the long
		// way around.
		s.smoothed = raw
	default:
		blended := raw*s.factor + s.smoothed*(1-s.factor)
		s.smoothed = geomath.NormalizeDegrees(blended)
	}

	prev := s.region
	switch {
	case s.smoothed < northWindowDegrees:
		s.region = RegionNorthRight
	case s.smoothed > 360-northWindowDegrees:
		s.region = RegionNorthLeft
	default:
		s.region = RegionNeutral
	}

	return s.smoothed, s.region != prev
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

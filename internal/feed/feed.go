// Package feed produces simulated sensor samples: a user walking a circle
// around a center point while the compass sweeps. It stands in for the
// device location and heading APIs when running headless.
package feed

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/skylens/aroverlay/internal/config"
	"github.com/skylens/aroverlay/internal/geo"
	"github.com/skylens/aroverlay/internal/geomath"
	"github.com/skylens/aroverlay/pkg/poi"
)

// Sample is one simulated sensor reading.
type Sample struct {
	// Location is set on locate ticks, nil on heading-only ticks.
	Location *poi.Location
	// Heading is the raw compass sample in degrees, jitter included.
	Heading float64
	Time    time.Time
}

// Feed walks the simulated user and sweeps the compass on fixed tickers.
// With a route configured the user follows it in a loop; otherwise they
// walk a circle around the center point.
type Feed struct {
	cfg    config.FeedConfig
	logger *slog.Logger
	rng    *rand.Rand

	route      []poi.Location
	segLens    []float64 // meters per route segment
	routeTotal float64

	heading float64 // jitter-free sweep state
	walked  float64 // meters traveled along the path
}

// New creates a feed. A nil logger falls back to slog.Default().
func New(cfg config.FeedConfig, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.LocateInterval <= 0 {
		cfg.LocateInterval = time.Second
	}
	f := &Feed{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if cfg.Route != "" {
		route, err := geo.RouteFromPolyline(cfg.Route)
		if err != nil {
			logger.Warn("invalid feed route, walking circle instead", "error", err)
		} else {
			f.setRoute(route)
		}
	}
	return f
}

func (f *Feed) setRoute(route []poi.Location) {
	f.route = route
	f.segLens = make([]float64, len(route)-1)
	f.routeTotal = 0
	for i := range f.segLens {
		f.segLens[i] = geomath.Distance(route[i], route[i+1])
		f.routeTotal += f.segLens[i]
	}
}

// location returns the user position after walking f.walked meters along
// the configured path.
func (f *Feed) location() poi.Location {
	if len(f.route) >= 2 && f.routeTotal > 0 {
		return f.routeLocation()
	}
	center := poi.Location{Latitude: f.cfg.CenterLat, Longitude: f.cfg.CenterLon}
	if f.cfg.RadiusMeters <= 0 {
		return center
	}
	// Position on the circle as a bearing from center.
	circumference := 2 * math.Pi * f.cfg.RadiusMeters
	bearing := 360 * (f.walked / circumference)
	return geomath.DestinationPoint(center, geomath.NormalizeDegrees(bearing), f.cfg.RadiusMeters)
}

// routeLocation interpolates the position along the route, looping back to
// the start when the end is reached.
func (f *Feed) routeLocation() poi.Location {
	remaining := math.Mod(f.walked, f.routeTotal)
	for i, segLen := range f.segLens {
		if remaining <= segLen {
			if segLen == 0 {
				return f.route[i]
			}
			bearing := geomath.Bearing(f.route[i], f.route[i+1])
			return geomath.DestinationPoint(f.route[i], bearing, remaining)
		}
		remaining -= segLen
	}
	return f.route[len(f.route)-1]
}

// nextHeading advances the compass sweep by one tick and applies jitter.
func (f *Feed) nextHeading() float64 {
	f.heading = geomath.NormalizeDegrees(
		f.heading + f.cfg.HeadingRate*f.cfg.TickInterval.Seconds())
	raw := f.heading
	if f.cfg.HeadingJitter > 0 {
		raw += (f.rng.Float64()*2 - 1) * f.cfg.HeadingJitter
	}
	return geomath.NormalizeDegrees(raw)
}

// Run emits samples on out until the context is cancelled. Heading samples
// arrive every TickInterval, location fixes every LocateInterval. The send
// is non-blocking: a sample nobody consumed in time is stale anyway.
func (f *Feed) Run(ctx context.Context, out chan<- Sample) {
	headingTicker := time.NewTicker(f.cfg.TickInterval)
	defer headingTicker.Stop()
	locateTicker := time.NewTicker(f.cfg.LocateInterval)
	defer locateTicker.Stop()

	f.logger.Info("sensor feed started",
		"tickInterval", f.cfg.TickInterval,
		"locateInterval", f.cfg.LocateInterval)

	// Emit an initial fix so the engine doesn't wait a full locate
	// interval for its first reload.
	f.emit(out, Sample{Location: f.locationPtr(), Heading: f.nextHeading(), Time: time.Now()})

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("sensor feed stopped")
			return
		case now := <-headingTicker.C:
			f.emit(out, Sample{Heading: f.nextHeading(), Time: now})
		case now := <-locateTicker.C:
			f.walked += f.cfg.WalkSpeed * f.cfg.LocateInterval.Seconds()
			f.emit(out, Sample{Location: f.locationPtr(), Heading: f.nextHeading(), Time: now})
		}
	}
}

func (f *Feed) locationPtr() *poi.Location {
	loc := f.location()
	return &loc
}

func (f *Feed) emit(out chan<- Sample, s Sample) {
	select {
	case out <- s:
	default:
	}
}

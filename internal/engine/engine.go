// Package engine implements the annotation layout pipeline: activation
// filtering, vertical stacking, heading smoothing and screen projection,
// driven by a single orchestrator.
//
// All engine state is owned by one goroutine. Sensor and timer callbacks
// arriving on other goroutines must be marshaled through the dispatcher
// before entering any method here; with that discipline upheld no internal
// locking is needed on the layout path.
package engine

import (
	"log/slog"
	"time"

	"github.com/skylens/aroverlay/internal/cache"
	"github.com/skylens/aroverlay/internal/queue"
	"github.com/skylens/aroverlay/internal/store"
	"github.com/skylens/aroverlay/pkg/poi"
)

// Config holds the engine's tunable knobs. Values outside the documented
// ranges are clamped, not rejected.
type Config struct {
	MaxVisibleAnnotations  int
	MaxVerticalLevel       int
	MaxDistance            float64 // meters, 0 = unbounded
	HeadingSmoothingFactor float64 // (0,1], 1 disables smoothing
	Projector              Projector
}

// reloadPass selects which stages of the reload pipeline run. The three
// flags mirror the orchestrator's state machine: all true for a full
// reload, view rebuild off for a periodic refresh, everything off for a
// heading-only tick (which is just a position pass).
type reloadPass struct {
	recomputeDistanceAzimuth bool
	sortByDistance           bool
	recomputeVerticalLevels  bool
	rebuildViews             bool
}

var (
	fullReload      = reloadPass{recomputeDistanceAzimuth: true, sortByDistance: true, recomputeVerticalLevels: true, rebuildViews: true}
	periodicRefresh = reloadPass{recomputeDistanceAzimuth: true, recomputeVerticalLevels: true}
)

// eventJournalCap bounds the view-event journal; with no consumer attached
// the oldest events are dropped.
const eventJournalCap = 4096

// Stats is a point-in-time snapshot of engine counters, consumed by the
// status monitor.
type Stats struct {
	Annotations        int
	ActiveAnnotations  int
	BoundViews         int
	Reloads            int
	Ticks              int
	PendingReload      bool
	HasLocation        bool
	SmoothedHeading    float64
	Region             string
	LastReloadDuration time.Duration
}

// Engine orchestrates the reload pipeline over the annotation store.
type Engine struct {
	cfg      Config
	store    *store.Store
	smoother *HeadingSmoother
	provider ViewProvider
	logger   *slog.Logger

	views   *cache.ViewCache[View]
	visible map[string]bool
	events  *queue.Queue[poi.ViewEvent]

	userLocation  poi.Location
	hasLocation   bool
	pendingReload bool

	reloads    cache.SafeCounter
	ticks      cache.SafeCounter
	active     int
	lastReload time.Duration
}

// New creates an engine with the given configuration and view provider.
// A nil provider falls back to NopViewProvider; a nil logger to
// slog.Default().
func New(cfg Config, provider ViewProvider, logger *slog.Logger) *Engine {
	if provider == nil {
		provider = NopViewProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	// A zero count cap means "unset": fall back to the hard ceiling.
	if cfg.MaxVisibleAnnotations <= 0 {
		cfg.MaxVisibleAnnotations = MaxVisibleAnnotationsCeiling
	}
	cfg.MaxVisibleAnnotations = clampInt(cfg.MaxVisibleAnnotations, 1, MaxVisibleAnnotationsCeiling)
	cfg.MaxVerticalLevel = clampInt(cfg.MaxVerticalLevel, 0, MaxVerticalLevelCeiling)
	if cfg.MaxDistance < 0 {
		cfg.MaxDistance = 0
	}

	return &Engine{
		cfg:      cfg,
		store:    store.New(),
		smoother: NewHeadingSmoother(cfg.HeadingSmoothingFactor),
		provider: provider,
		logger:   logger,
		views:    cache.NewViewCache[View](),
		visible:  make(map[string]bool),
		events:   queue.NewBounded[poi.ViewEvent](eventJournalCap),
	}
}

// Events returns the journal of view events. The presentation layer (or
// the websocket streamer) drains it with GetAndEmpty.
func (e *Engine) Events() *queue.Queue[poi.ViewEvent] { return e.events }

// SetAnnotations replaces the working set, silently dropping entries with
// invalid locations, and requests a full reload. Without a known user
// location the reload is latched until the first fix.
func (e *Engine) SetAnnotations(list []poi.Annotation) {
	accepted := e.store.SetAnnotations(list)
	if dropped := len(list) - accepted; dropped > 0 {
		e.logger.Debug("dropped annotations with invalid locations",
			"dropped", dropped, "accepted", accepted)
	}
	e.visible = make(map[string]bool)
	e.requestReload()
}

// ReloadAnnotations forces a full reload, deferred until a location fix is
// available if necessary.
func (e *Engine) ReloadAnnotations() {
	e.requestReload()
}

func (e *Engine) requestReload() {
	if !e.hasLocation {
		e.pendingReload = true
		e.logger.Debug("reload deferred, no location fix yet")
		return
	}
	e.reload(fullReload)
}

// SetUserLocation records a new fix. The first fix (or a latched reload)
// triggers a full reload; steady tracking runs the cheaper periodic
// refresh.
func (e *Engine) SetUserLocation(loc poi.Location) {
	if !loc.Valid() {
		e.logger.Debug("ignoring invalid user location",
			"lat", loc.Latitude, "lon", loc.Longitude)
		return
	}
	first := !e.hasLocation
	e.userLocation = loc
	e.hasLocation = true

	if first || e.pendingReload {
		e.pendingReload = false
		e.reload(fullReload)
		return
	}
	e.reload(periodicRefresh)
}

// HeadingTick consumes one raw compass sample. It repositions and culls
// views only; no distances, levels or bindings change on this path, which
// must stay allocation-light to hold frame rate.
func (e *Engine) HeadingTick(raw float64) {
	e.smoother.Update(raw)
	e.ticks.Inc()
	if !e.hasLocation {
		return
	}
	// A region flip forces the same position-only pass a steady tick runs,
	// so no separate branch is needed here.
	e.positionPass(e.store.Active())
}

// reload runs one pass of the pipeline per the selected stages.
func (e *Engine) reload(pass reloadPass) {
	started := time.Now()

	if pass.recomputeDistanceAzimuth {
		e.store.RecomputeDistanceAndAzimuth(e.userLocation, pass.sortByDistance, store.ScopeAll)
	}

	active := FilterActive(e.store.Annotations(), Caps{
		MaxVisibleAnnotations: e.cfg.MaxVisibleAnnotations,
		MaxVerticalLevel:      e.cfg.MaxVerticalLevel,
		MaxDistance:           e.cfg.MaxDistance,
	})

	if pass.recomputeVerticalLevels {
		AssignLevels(e.store.Annotations(), active,
			e.cfg.MaxVerticalLevel, e.cfg.MaxDistance,
			e.cfg.Projector.CollisionWidthDegrees())
	}

	if pass.rebuildViews {
		e.rebuildViews(active)
	}

	e.positionPass(active)
	e.refreshViews(active)

	e.active = len(active)
	e.lastReload = time.Since(started)
	e.reloads.Inc()
	e.logger.Debug("reload complete",
		"active", len(active),
		"total", e.store.Len(),
		"full", pass.rebuildViews,
		"duration", e.lastReload)
}

// rebuildViews realizes handles for newly active annotations and releases
// handles whose annotations left the active set.
func (e *Engine) rebuildViews(active []*poi.Annotation) {
	activeIDs := make(map[string]bool, len(active))
	for _, a := range active {
		activeIDs[a.ID] = true
		if _, ok := e.views.Get(a.ID); ok {
			continue
		}
		v, ok := e.provider.RealizeView(*a)
		if !ok {
			continue
		}
		e.views.Put(a.ID, v)
		e.events.Push(poi.ViewEvent{Kind: poi.ViewBound, AnnotationID: a.ID})
	}

	for _, id := range e.views.IDs() {
		if activeIDs[id] {
			continue
		}
		if v, ok := e.views.Remove(id); ok {
			e.provider.ReleaseView(id, v)
			delete(e.visible, id)
			e.events.Push(poi.ViewEvent{Kind: poi.ViewUnbound, AnnotationID: id})
		}
	}
}

// positionPass projects every bound annotation and culls views outside the
// viewport's angular window.
func (e *Engine) positionPass(active []*poi.Annotation) {
	heading := e.smoother.Heading()
	region := e.smoother.Region()

	for _, a := range active {
		if _, ok := e.views.Get(a.ID); !ok {
			continue
		}
		vis := e.cfg.Projector.Visible(heading, a.Azimuth, a.VerticalLevel, e.cfg.MaxVerticalLevel)
		if vis != e.visible[a.ID] {
			e.visible[a.ID] = vis
			kind := poi.ViewHidden
			if vis {
				kind = poi.ViewShown
			}
			e.events.Push(poi.ViewEvent{Kind: kind, AnnotationID: a.ID})
		}
		if !vis {
			continue
		}
		off := e.cfg.Projector.Project(a.Azimuth, a.VerticalLevel, region)
		e.events.Push(poi.ViewEvent{Kind: poi.ViewMoved, AnnotationID: a.ID, Offset: off})
	}
}

func (e *Engine) refreshViews(active []*poi.Annotation) {
	for _, a := range active {
		if v, ok := e.views.Get(a.ID); ok {
			e.provider.RefreshView(v, *a)
		}
	}
}

// SetMaxVerticalLevel clamps to [0,10] and takes effect next reload.
func (e *Engine) SetMaxVerticalLevel(n int) {
	e.cfg.MaxVerticalLevel = clampInt(n, 0, MaxVerticalLevelCeiling)
}

// SetMaxVisibleAnnotations clamps to [1,500]; zero or negative resets to
// the ceiling (no effective cap). Takes effect next reload.
func (e *Engine) SetMaxVisibleAnnotations(n int) {
	if n <= 0 {
		n = MaxVisibleAnnotationsCeiling
	}
	e.cfg.MaxVisibleAnnotations = clampInt(n, 1, MaxVisibleAnnotationsCeiling)
}

// SetMaxDistance sets the distance cap in meters; 0 means unbounded.
// Negative values are treated as 0.
func (e *Engine) SetMaxDistance(meters float64) {
	if meters < 0 {
		meters = 0
	}
	e.cfg.MaxDistance = meters
}

// SetHeadingSmoothingFactor updates the low-pass factor, ignoring values
// outside (0,1].
func (e *Engine) SetHeadingSmoothingFactor(factor float64) {
	e.smoother.SetFactor(factor)
}

// UserLocation returns the last fix, if any.
func (e *Engine) UserLocation() (poi.Location, bool) {
	return e.userLocation, e.hasLocation
}

// Annotations exposes the working set for read-only inspection.
func (e *Engine) Annotations() []*poi.Annotation { return e.store.Annotations() }

// Stats snapshots engine counters for the status monitor.
func (e *Engine) Stats() Stats {
	return Stats{
		Annotations:        e.store.Len(),
		ActiveAnnotations:  e.active,
		BoundViews:         e.views.Len(),
		Reloads:            e.reloads.Value(),
		Ticks:              e.ticks.Value(),
		PendingReload:      e.pendingReload,
		HasLocation:        e.hasLocation,
		SmoothedHeading:    e.smoother.Heading(),
		Region:             e.smoother.Region().String(),
		LastReloadDuration: e.lastReload,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

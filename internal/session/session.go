// Package session holds the current tracking state: the latest location
// fix, when it arrived, and whether tracking is running. It is the one
// piece of engine-adjacent state read from other goroutines (watchdog,
// monitor), so access is guarded by an RWMutex.
package session

import (
	"sync"
	"time"
)

// AcquisitionStatus is passed to the watchdog callback when no location
// fix has arrived within the configured timeout.
type AcquisitionStatus struct {
	Elapsed    time.Duration
	EverHadFix bool
}

// State holds the current tracking session state.
type State struct {
	mu sync.RWMutex

	lat, lon float64
	hasFix   bool
	lastFix  time.Time

	trackingStarted time.Time
	tracking        bool

	watchStop chan struct{}
}

// New creates a session with no location fix.
func New() *State {
	return &State{}
}

// StartTracking marks the session as tracking. Idempotent.
func (s *State) StartTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracking {
		return
	}
	s.tracking = true
	s.trackingStarted = time.Now()
}

// StopTracking marks the session as stopped and cancels a running
// watchdog. Idempotent.
func (s *State) StopTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tracking {
		return
	}
	s.tracking = false
	if s.watchStop != nil {
		close(s.watchStop)
		s.watchStop = nil
	}
}

// Tracking reports whether the session is currently tracking.
func (s *State) Tracking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracking
}

// SetLocation records a location fix.
func (s *State) SetLocation(lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lat, s.lon = lat, lon
	s.hasFix = true
	s.lastFix = time.Now()
}

// Location returns the last fix, if any.
func (s *State) Location() (lat, lon float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lat, s.lon, s.hasFix
}

// LastFix returns when the last fix arrived; zero if none yet.
func (s *State) LastFix() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFix
}

// WatchAcquisition arms a one-shot watchdog: if no fix arrives within
// timeout of the call, cb is invoked once with the elapsed time and
// whether a fix was ever obtained. A fix or StopTracking disarms it.
// Acquisition failure is a reported condition, not an error; the engine
// keeps running in a degraded no-reposition mode.
func (s *State) WatchAcquisition(timeout time.Duration, cb func(AcquisitionStatus)) {
	s.mu.Lock()
	if s.watchStop != nil {
		close(s.watchStop)
	}
	stop := make(chan struct{})
	s.watchStop = stop
	armed := time.Now()
	s.mu.Unlock()

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		// Ticker intervals must stay positive; floor the poll so short
		// timeouts do not panic or spin.
		check := time.NewTicker(max(timeout/10, 10*time.Millisecond))
		defer check.Stop()

		for {
			select {
			case <-stop:
				return
			case <-check.C:
				if s.LastFix().After(armed) {
					return
				}
			case <-timer.C:
				if s.LastFix().After(armed) {
					return
				}
				s.mu.RLock()
				everHadFix := s.hasFix
				s.mu.RUnlock()
				cb(AcquisitionStatus{
					Elapsed:    time.Since(armed),
					EverHadFix: everHadFix,
				})
				return
			}
		}
	}()
}

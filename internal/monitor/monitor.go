// Package monitor periodically snapshots engine health to a status file
// and ships the same sample to InfluxDB.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/skylens/aroverlay/internal/engine"
	"github.com/skylens/aroverlay/internal/influx"
	"github.com/skylens/aroverlay/internal/logging"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	// Stats returns the current engine snapshot.
	Stats      func() engine.Stats
	Influx     *influx.Manager
	LogManager *logging.SlogManager
	StatusDir  string
	Session    string
}

// statusSnapshot is the JSON shape written to the status file.
type statusSnapshot struct {
	Time               time.Time `json:"time"`
	Session            string    `json:"session"`
	Annotations        int       `json:"annotations"`
	ActiveAnnotations  int       `json:"activeAnnotations"`
	BoundViews         int       `json:"boundViews"`
	Reloads            int       `json:"reloads"`
	Ticks              int       `json:"ticks"`
	PendingReload      bool      `json:"pendingReload"`
	HasLocation        bool      `json:"hasLocation"`
	SmoothedHeading    float64   `json:"smoothedHeading"`
	Region             string    `json:"region"`
	LastReloadDuration string    `json:"lastReloadDuration"`
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	interval  time.Duration
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service sampling once per second.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps:     deps,
		interval: 1 * time.Second,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot builds the current status snapshot from the engine stats.
func (s *Service) Snapshot() statusSnapshot {
	stats := s.deps.Stats()
	return statusSnapshot{
		Time:               time.Now(),
		Session:            s.deps.Session,
		Annotations:        stats.Annotations,
		ActiveAnnotations:  stats.ActiveAnnotations,
		BoundViews:         stats.BoundViews,
		Reloads:            stats.Reloads,
		Ticks:              stats.Ticks,
		PendingReload:      stats.PendingReload,
		HasLocation:        stats.HasLocation,
		SmoothedHeading:    stats.SmoothedHeading,
		Region:             stats.Region,
		LastReloadDuration: stats.LastReloadDuration.String(),
	}
}

// Start starts the status monitor goroutine.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "monitor.Start")

		statusPath := filepath.Join(s.deps.StatusDir, "status.json")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				snapshot := s.Snapshot()

				if err := s.writeStatusFile(statusPath, snapshot); err != nil {
					logger.Error("Error writing status file", "error", err)
				}

				if s.deps.Influx != nil {
					if err := s.writeInfluxSample(snapshot); err != nil {
						logger.Error("Error writing engine health sample", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

func (s *Service) writeStatusFile(path string, snapshot statusSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Service) writeInfluxSample(snapshot statusSnapshot) error {
	point := influxdb2_write.NewPointWithMeasurement("engine_status").
		AddTag("session", snapshot.Session).
		AddTag("region", snapshot.Region).
		AddField("annotations", snapshot.Annotations).
		AddField("active_annotations", snapshot.ActiveAnnotations).
		AddField("bound_views", snapshot.BoundViews).
		AddField("reloads", snapshot.Reloads).
		AddField("ticks", snapshot.Ticks).
		AddField("smoothed_heading", snapshot.SmoothedHeading).
		AddField("has_location", snapshot.HasLocation).
		SetTime(snapshot.Time)
	return s.deps.Influx.WritePoint(context.Background(), influx.BucketEngineHealth, point)
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}

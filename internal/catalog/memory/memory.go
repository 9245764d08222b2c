// Package memorycatalog keeps the annotation catalog in memory, backed by
// an optional JSON file (plain or gzipped) for persistence.
package memorycatalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/skylens/aroverlay/pkg/poi"
)

// Config holds configuration for the memory catalog backend.
type Config struct {
	// Path is the JSON file to load from and save to. Empty means purely
	// in-memory, nothing is persisted.
	Path string
	// Compressed gzips the file on save and expects gzip on load.
	Compressed bool
}

// fileEntry is the persisted shape of one annotation. Only the intrinsic
// fields are stored; distance, azimuth and layout state are derived at
// runtime.
type fileEntry struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Altitude  float64           `json:"altitude,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Backend stores annotations in memory with optional JSON file persistence.
type Backend struct {
	cfg         Config
	logger      *slog.Logger
	mu          sync.RWMutex
	annotations []poi.Annotation
	loadedAt    time.Time
}

// New creates a memory catalog backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, logger: logger}
}

// Load returns the in-memory annotations, reading the backing file first if
// one is configured. A missing file is an empty catalog, not an error.
// Entries with invalid locations are skipped with a debug log.
func (b *Backend) Load(ctx context.Context) ([]poi.Annotation, error) {
	if b.cfg.Path != "" {
		if err := b.loadFile(); err != nil {
			return nil, err
		}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]poi.Annotation, len(b.annotations))
	copy(out, b.annotations)
	return out, nil
}

// Save replaces the in-memory contents and, if a path is configured,
// rewrites the backing file.
func (b *Backend) Save(ctx context.Context, annotations []poi.Annotation) error {
	b.mu.Lock()
	b.annotations = make([]poi.Annotation, len(annotations))
	copy(b.annotations, annotations)
	b.mu.Unlock()

	if b.cfg.Path == "" {
		return nil
	}
	if err := b.saveFile(annotations); err != nil {
		return err
	}
	b.recordModTime()
	return nil
}

// Changed reports whether the backing file was modified since the last
// Load or Save. A purely in-memory catalog never changes externally.
func (b *Backend) Changed(ctx context.Context) (bool, error) {
	if b.cfg.Path == "" {
		return false, nil
	}
	info, err := os.Stat(b.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat catalog file: %w", err)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return info.ModTime().After(b.loadedAt), nil
}

// Close is a no-op — nothing to release.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) loadFile() error {
	f, err := os.Open(b.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if b.cfg.Compressed {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open gzip reader: %w", err)
		}
		defer gzReader.Close()
		r = gzReader
	}

	var entries []fileEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode catalog file: %w", err)
	}

	annotations := make([]poi.Annotation, 0, len(entries))
	for _, e := range entries {
		loc := poi.Location{Latitude: e.Latitude, Longitude: e.Longitude, Altitude: e.Altitude}
		if !loc.Valid() {
			b.logger.Debug("skipping catalog entry with invalid location", "id", e.ID)
			continue
		}
		annotations = append(annotations, poi.Annotation{
			ID:       e.ID,
			Title:    e.Title,
			Location: loc,
			Tags:     e.Tags,
		})
	}

	b.mu.Lock()
	b.annotations = annotations
	b.mu.Unlock()
	b.recordModTime()
	return nil
}

// recordModTime remembers the backing file's mtime so Changed can tell a
// later external rewrite apart from our own.
func (b *Backend) recordModTime() {
	info, err := os.Stat(b.cfg.Path)
	if err != nil {
		return
	}
	b.mu.Lock()
	b.loadedAt = info.ModTime()
	b.mu.Unlock()
}

func (b *Backend) saveFile(annotations []poi.Annotation) error {
	entries := make([]fileEntry, 0, len(annotations))
	for _, a := range annotations {
		entries = append(entries, fileEntry{
			ID:        a.ID,
			Title:     a.Title,
			Latitude:  a.Location.Latitude,
			Longitude: a.Location.Longitude,
			Altitude:  a.Location.Altitude,
			Tags:      a.Tags,
		})
	}

	f, err := os.Create(b.cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	defer f.Close()

	if b.cfg.Compressed {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		return json.NewEncoder(gzWriter).Encode(entries)
	}
	return json.NewEncoder(f).Encode(entries)
}

// Package catalog provides the annotation sources the overlay loads its
// points of interest from.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	gormcatalog "github.com/skylens/aroverlay/internal/catalog/gorm"
	memorycatalog "github.com/skylens/aroverlay/internal/catalog/memory"
	postgrescatalog "github.com/skylens/aroverlay/internal/catalog/postgres"
	sqlitecatalog "github.com/skylens/aroverlay/internal/catalog/sqlite"
	"github.com/skylens/aroverlay/internal/config"
	"github.com/skylens/aroverlay/pkg/poi"
)

// Source is the interface all catalog backends satisfy.
type Source interface {
	// Load returns every annotation in the catalog. Rows with invalid
	// locations are skipped, not errors.
	Load(ctx context.Context) ([]poi.Annotation, error)

	// Save replaces the catalog contents with the given annotations.
	Save(ctx context.Context, annotations []poi.Annotation) error

	Close() error
}

// Reloadable is an optional interface for sources that can cheaply detect
// external changes.
type Reloadable interface {
	Changed(ctx context.Context) (bool, error)
}

var _ Source = (*memorycatalog.Backend)(nil)
var _ Source = (*gormcatalog.Backend)(nil)
var _ Reloadable = (*memorycatalog.Backend)(nil)

// New creates a catalog source based on configuration.
func New(cfg config.CatalogConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Type {
	case "postgres":
		return postgrescatalog.New(cfg.SQLite.Path, logger)
	case "sqlite":
		return sqlitecatalog.New(sqlitecatalog.Config{Path: cfg.SQLite.Path}, logger)
	case "memory":
		return memorycatalog.New(memorycatalog.Config{
			Path:       cfg.Memory.Path,
			Compressed: cfg.Memory.Compressed,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}

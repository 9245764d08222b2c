// Package sqlitecatalog implements the catalog source over a SQLite file.
// It wraps the GORM backend via composition — the only SQLite-specific
// concern is opening the file (or in-memory) database.
package sqlitecatalog

import (
	"fmt"
	"log/slog"

	gormcatalog "github.com/skylens/aroverlay/internal/catalog/gorm"
	"github.com/skylens/aroverlay/internal/database"
)

// Config holds configuration for the SQLite catalog backend.
type Config struct {
	// Path is the database file. Empty means a shared in-memory database,
	// which is mostly useful for tests.
	Path string
}

// Backend wraps the GORM backend for SQLite.
type Backend struct {
	*gormcatalog.Backend
}

// New opens the SQLite database and migrates the schema.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite catalog: %w", err)
	}

	backend := &Backend{Backend: gormcatalog.New(db, logger)}
	if err := backend.Init(); err != nil {
		return nil, err
	}
	return backend, nil
}

// Package postgrescatalog implements the catalog source over PostgreSQL.
// It wraps the GORM backend via composition; connection parameters come
// from the db.* configuration keys. When PostgreSQL is unreachable the
// backend runs on an in-memory SQLite database instead and dumps it to
// localPath on Close so the catalog survives the outage.
package postgrescatalog

import (
	"log/slog"

	gormcatalog "github.com/skylens/aroverlay/internal/catalog/gorm"
	"github.com/skylens/aroverlay/internal/database"
	"gorm.io/gorm"
)

// Backend wraps the GORM backend for PostgreSQL.
type Backend struct {
	*gormcatalog.Backend
	db        *gorm.DB
	local     bool
	localPath string
	logger    *slog.Logger
}

// New connects to PostgreSQL (or the SQLite fallback) and migrates the
// schema. localPath is where an in-memory fallback catalog is dumped on
// Close; empty disables the dump.
func New(localPath string, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, local, err := database.Connect(logger)
	if err != nil {
		return nil, err
	}

	backend := &Backend{
		Backend:   gormcatalog.New(db, logger),
		db:        db,
		local:     local,
		localPath: localPath,
		logger:    logger,
	}
	if err := backend.Init(); err != nil {
		return nil, err
	}
	return backend, nil
}

// Close dumps the in-memory fallback catalog to disk, if one is in use,
// before releasing the connection.
func (b *Backend) Close() error {
	if b.local && b.localPath != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.localPath); err != nil {
			b.logger.Warn("failed to dump fallback catalog to disk", "error", err)
		} else {
			b.logger.Info("dumped fallback catalog to disk", "path", b.localPath)
		}
	}
	return b.Backend.Close()
}

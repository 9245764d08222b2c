// Package gormcatalog implements the catalog source over a gorm database.
// It carries everything both SQL backends share: the row model, the
// EPSG:3857 point conversion, migration and the load/save queries.
package gormcatalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skylens/aroverlay/internal/geo"
	"github.com/skylens/aroverlay/pkg/poi"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record is one persisted point of interest. Location is stored as a WKB
// EPSG:3857 point (see package geo for why).
type Record struct {
	ID        uint   `gorm:"primarykey"`
	PoiID     string `gorm:"size:64;uniqueIndex"`
	Title     string `gorm:"size:255"`
	Location  geom.Point
	Tags      datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name stable across backends.
func (Record) TableName() string { return "pois" }

// Backend implements the catalog source over a gorm DB.
type Backend struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New creates a gorm catalog backend. A nil logger falls back to
// slog.Default().
func New(db *gorm.DB, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{db: db, logger: logger}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if err := b.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate poi schema: %w", err)
	}
	return nil
}

// Load returns every annotation in the catalog, transformed back to
// WGS84. Rows with unconvertible points are skipped with a debug log.
func (b *Backend) Load(ctx context.Context) ([]poi.Annotation, error) {
	var records []Record
	if err := b.db.WithContext(ctx).Order("poi_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load pois: %w", err)
	}

	annotations := make([]poi.Annotation, 0, len(records))
	for _, rec := range records {
		a, err := rec.toAnnotation()
		if err != nil {
			b.logger.Debug("skipping poi row with invalid location",
				"poiId", rec.PoiID, "error", err)
			continue
		}
		annotations = append(annotations, a)
	}
	return annotations, nil
}

// Save replaces the catalog contents with the given annotations inside
// one transaction. Annotations with invalid locations are skipped with a
// debug log, matching the permissive ingestion policy.
func (b *Backend) Save(ctx context.Context, annotations []poi.Annotation) error {
	records := make([]Record, 0, len(annotations))
	for _, a := range annotations {
		rec, err := recordFrom(a)
		if err != nil {
			b.logger.Debug("skipping annotation with invalid location",
				"id", a.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Record{}).Error; err != nil {
			return fmt.Errorf("failed to clear pois: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to insert pois: %w", err)
		}
		return nil
	})
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r Record) toAnnotation() (poi.Annotation, error) {
	loc, err := geo.LocationFromPoint(r.Location)
	if err != nil {
		return poi.Annotation{}, err
	}
	a := poi.Annotation{
		ID:       r.PoiID,
		Title:    r.Title,
		Location: loc,
	}
	if len(r.Tags) > 0 {
		if err := json.Unmarshal(r.Tags, &a.Tags); err != nil {
			return poi.Annotation{}, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	return a, nil
}

func recordFrom(a poi.Annotation) (Record, error) {
	point, err := geo.PointFromLocation(a.Location)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		PoiID:    a.ID,
		Title:    a.Title,
		Location: point,
	}
	if len(a.Tags) > 0 {
		raw, err := json.Marshal(a.Tags)
		if err != nil {
			return Record{}, fmt.Errorf("failed to encode tags: %w", err)
		}
		rec.Tags = datatypes.JSON(raw)
	}
	return rec, nil
}

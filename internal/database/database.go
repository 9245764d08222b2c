// Package database manages gorm connections for the annotation catalog,
// with a Postgres-first, SQLite-fallback policy.
package database

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePragmas tune SQLite for the catalog's small, read-mostly workload.
var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
}

// Connect opens the catalog database. Postgres is tried first; if it is
// unreachable the catalog falls back to an in-memory SQLite database and
// the second return value is true so the caller can dump it to disk on
// shutdown. A nil slogger falls back to slog.Default().
func Connect(slogger *slog.Logger) (*gorm.DB, bool, error) {
	if slogger == nil {
		slogger = slog.Default()
	}

	db, err := GetPostgresDBStandalone()
	if err == nil {
		sqlDB, dbErr := db.DB()
		if dbErr == nil {
			if err = sqlDB.Ping(); err == nil {
				sqlDB.SetMaxOpenConns(10)
				slogger.Info("connected to postgres catalog database")
				return db, false, nil
			}
		} else {
			err = dbErr
		}
	}
	slogger.Warn("postgres unavailable, falling back to in-memory sqlite", "error", err)

	db, err = GetSqliteDBStandalone("")
	if err != nil {
		return nil, false, fmt.Errorf("failed to open fallback sqlite database: %w", err)
	}
	return db, true, nil
}

// GetPostgresDBStandalone returns a connection to the Postgres database
// using viper config.
func GetPostgresDBStandalone() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDBStandalone returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func GetSqliteDBStandalone(path string) (*gorm.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	if exists, err := os.Stat(sqliteFilePath); err == nil && exists != nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %s", err)
		}
	}

	err := db.Exec("VACUUM INTO 'file:" + sqliteFilePath + "';").Error
	if err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %s", err)
	}

	return nil
}

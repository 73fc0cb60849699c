// Package sqlite provides the durable store used by the media cache and
// the telemetry repositories. The store is a single SQLite file managed
// through GORM; its size and write volume are delivery-history scale, not
// blob scale.
package sqlite

import (
	"context"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/logger"
)

// Open opens (or creates) the database file and migrates the schema.
func Open(ctx context.Context, path string, log logger.Logger) (*gorm.DB, error) {
	if path == "" {
		path = "clipgate.db"
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}

	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.ErrInternal("open database").WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrInternal("unwrap database handle").WithCause(err)
	}
	// SQLite serializes writers; a single connection avoids busy errors
	// under concurrent upserts.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.WithContext(ctx).AutoMigrate(
		&models.MediaCacheRecord{},
		&models.User{},
		&models.Event{},
		&models.Download{},
	); err != nil {
		return nil, errors.ErrInternal("migrate schema").WithCause(err)
	}

	log.Info(ctx, "database ready", logger.String("path", path))
	return db, nil
}

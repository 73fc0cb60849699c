package repository

import (
	"context"

	"github.com/clipgate/clipgate/internal/domain/models"
)

// TelemetryRepository persists users, events and download statistics.
type TelemetryRepository interface {
	// UpsertUser inserts a user by external id or refreshes the profile
	// fields of an existing one. Safe under concurrent upserts for the
	// same external id.
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)

	// LogEvent appends a telemetry event for the user with the given
	// external id, creating the user row if it does not exist yet.
	LogEvent(ctx context.Context, externalID int64, eventType, payload string) error

	// RecordDownload appends a download statistic for the user with the
	// given external id.
	RecordDownload(ctx context.Context, externalID int64, dl *models.Download) error

	// UserStats returns aggregate counters for the user with the given
	// external id. A user that was never seen yields zero counters.
	UserStats(ctx context.Context, externalID int64) (*models.UserStats, error)
}

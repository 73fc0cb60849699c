package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/internal/domain/repository"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/logger"
)

// telemetryRepo implements repository.TelemetryRepository over GORM.
type telemetryRepo struct {
	db  *gorm.DB
	log logger.Logger
}

// NewTelemetryRepository creates the user/event/download store.
func NewTelemetryRepository(db *gorm.DB, log logger.Logger) repository.TelemetryRepository {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &telemetryRepo{db: db, log: log.WithComponent("telemetry")}
}

// UpsertUser inserts the user or refreshes the profile fields. The conflict
// target is the external id, so concurrent upserts for the same identity
// collapse into one row.
func (r *telemetryRepo) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"first_name", "last_name", "username", "lang",
			}),
		}).
		Create(user).Error
	if err != nil {
		return nil, errors.ErrInternal("user upsert").WithCause(err)
	}

	var stored models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", user.ExternalID).First(&stored).Error; err != nil {
		return nil, errors.ErrInternal("user readback").WithCause(err)
	}
	return &stored, nil
}

// ensureUser returns the internal id for an external identity, creating a
// minimal row when the user was never seen before. An existing profile is
// left untouched, only UpsertUser refreshes profile fields.
func (r *telemetryRepo) ensureUser(ctx context.Context, externalID int64) (uint, error) {
	var stored models.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&stored).Error
	if err == nil {
		return stored.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, errors.ErrInternal("user lookup").WithCause(err)
	}

	user := &models.User{ExternalID: externalID, CreatedAt: time.Now().UTC()}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(user).Error
	if err != nil {
		return 0, errors.ErrInternal("user insert").WithCause(err)
	}

	// The insert may have lost a concurrent race, so read the winner back.
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&stored).Error; err != nil {
		return 0, errors.ErrInternal("user readback").WithCause(err)
	}
	return stored.ID, nil
}

// LogEvent appends a telemetry event for the external identity.
func (r *telemetryRepo) LogEvent(ctx context.Context, externalID int64, eventType, payload string) error {
	userID, err := r.ensureUser(ctx, externalID)
	if err != nil {
		return err
	}

	event := &models.Event{
		UserID:  userID,
		Ts:      time.Now().UTC(),
		Type:    eventType,
		Payload: payload,
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return errors.ErrInternal("event insert").WithCause(err)
	}
	return nil
}

// RecordDownload appends a download statistic for the external identity.
func (r *telemetryRepo) RecordDownload(ctx context.Context, externalID int64, dl *models.Download) error {
	userID, err := r.ensureUser(ctx, externalID)
	if err != nil {
		return err
	}

	dl.UserID = userID
	if dl.Ts.IsZero() {
		dl.Ts = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(dl).Error; err != nil {
		return errors.ErrInternal("download insert").WithCause(err)
	}
	return nil
}

// UserStats aggregates the user's counters; an unknown user yields zeros.
func (r *telemetryRepo) UserStats(ctx context.Context, externalID int64) (*models.UserStats, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.UserStats{}, nil
		}
		return nil, errors.ErrInternal("user lookup").WithCause(err)
	}

	stats := &models.UserStats{}
	if err := r.db.WithContext(ctx).Model(&models.Download{}).
		Where("user_id = ?", user.ID).Count(&stats.Downloads).Error; err != nil {
		return nil, errors.ErrInternal("download count").WithCause(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("user_id = ?", user.ID).Count(&stats.Events).Error; err != nil {
		return nil, errors.ErrInternal("event count").WithCause(err)
	}
	return stats, nil
}

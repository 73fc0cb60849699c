package sqlite

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/internal/domain/repository"
	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/logger"
)

// mediaCacheRepo implements repository.MediaCacheRepository over GORM.
type mediaCacheRepo struct {
	db  *gorm.DB
	log logger.Logger
}

// NewMediaCacheRepository creates the durable dedup index.
func NewMediaCacheRepository(db *gorm.DB, log logger.Logger) repository.MediaCacheRepository {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &mediaCacheRepo{db: db, log: log.WithComponent("media_cache")}
}

// Lookup returns the cached record for the identity triple, nil when absent.
func (r *mediaCacheRepo) Lookup(ctx context.Context, provider, mediaID string, kind constants.MediaKind) (*models.MediaCacheRecord, error) {
	var record models.MediaCacheRecord
	err := r.db.WithContext(ctx).
		Where("provider = ? AND media_id = ? AND kind = ?", provider, mediaID, kind).
		First(&record).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.ErrInternal("cache lookup").WithCause(err)
	}
	return &record, nil
}

// Upsert inserts the record or, when the identity triple already exists,
// overwrites the content handles in place. The conflict clause makes the
// write atomic, so a concurrent first-insert race resolves to an update
// instead of surfacing a uniqueness violation.
func (r *mediaCacheRepo) Upsert(ctx context.Context, record *models.MediaCacheRecord) error {
	record.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider"}, {Name: "media_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"source", "file_id", "file_unique_id", "updated_at",
			}),
		}).
		Create(record).Error
	if err != nil {
		return errors.ErrInternal("cache upsert").WithCause(err)
	}

	r.log.Debug(ctx, "cache record upserted",
		logger.String("provider", record.Provider),
		logger.String("media_id", record.MediaID),
		logger.String("kind", string(record.Kind)),
	)
	return nil
}

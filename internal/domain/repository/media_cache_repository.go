// Package repository defines the persistence contracts for the domain layer.
// Implementations live under internal/infrastructure/persistence.
package repository

import (
	"context"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/pkg/constants"
)

// MediaCacheRepository is the durable dedup index of delivered artifacts.
type MediaCacheRepository interface {
	// Lookup returns the cached record for (provider, mediaID, kind), or
	// nil if none exists. Absence is not an error.
	Lookup(ctx context.Context, provider, mediaID string, kind constants.MediaKind) (*models.MediaCacheRecord, error)

	// Upsert inserts or overwrites the record for its unique identity.
	// A concurrent first-insert race for the same identity must resolve to
	// an update instead of surfacing a uniqueness violation.
	Upsert(ctx context.Context, record *models.MediaCacheRecord) error
}

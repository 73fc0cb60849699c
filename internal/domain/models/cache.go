package models

import (
	"time"

	"github.com/clipgate/clipgate/pkg/constants"
)

// MediaCacheRecord maps a provider-assigned media identity to the content
// handles of an artifact already delivered through the transport surface.
// It is a dedup index, not a blob store: the media bytes are never kept.
//
// The (Provider, MediaID, Kind) triple is UNIQUE; concurrent first inserts
// for the same triple resolve last-writer-wins.
type MediaCacheRecord struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	// Provider is the extractor name that assigned MediaID.
	Provider string `gorm:"size:64;not null;uniqueIndex:ux_media_cache_identity"`

	// MediaID is the provider-assigned media identity.
	MediaID string `gorm:"size:255;not null;uniqueIndex:ux_media_cache_identity"`

	// Kind is the media kind the artifact was delivered as.
	Kind constants.MediaKind `gorm:"size:16;not null;uniqueIndex:ux_media_cache_identity"`

	// Source is the original request key the artifact was acquired for.
	Source string `gorm:"type:text"`

	// FileID is the transport-assigned primary content handle.
	FileID string `gorm:"size:255;not null"`

	// FileUniqueID is the transport-assigned secondary content handle.
	FileUniqueID string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the GORM default.
func (MediaCacheRecord) TableName() string { return "media_cache" }

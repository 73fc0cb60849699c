// Package service contains the application services that orchestrate the
// domain components into complete use cases.
package service

import (
	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/pkg/constants"
)

// FetchRequest asks for one media artifact behind a request key.
type FetchRequest struct {
	// UserID is the stable external identity of the requester.
	UserID int64 `json:"user_id"`

	// URL is the request key, a supported media page URL.
	URL string `json:"url"`

	// Kind is the artifact kind to acquire.
	Kind constants.MediaKind `json:"kind"`
}

// FetchResult is one fulfilled fetch: either a cache hit carrying reusable
// content handles, or a freshly acquired local artifact.
type FetchResult struct {
	// CacheHit reports whether the artifact was already delivered before.
	CacheHit bool `json:"cache_hit"`

	// Handle is set on cache hits; it replays a prior delivery.
	Handle *models.ContentHandle `json:"handle,omitempty"`

	// Artifact is set on fresh acquisitions. The caller owns the artifact
	// directory and removes it after delivery.
	Artifact *models.Artifact `json:"artifact,omitempty"`

	// Meta describes the media item in both cases.
	Meta *models.MediaMeta `json:"meta"`
}

// PairResult bundles a concurrent video plus audio fetch for one key.
type PairResult struct {
	Video *FetchResult `json:"video"`
	Audio *FetchResult `json:"audio"`
}

// Preview is the pre-download description of a request key, with a short
// token that stands in for the URL on payload-limited surfaces.
type Preview struct {
	Meta  *models.MediaMeta  `json:"meta"`
	Token string             `json:"token"`
	Plat  constants.Platform `json:"platform"`
}

// DeliveryConfirmation reports that an acquired artifact was delivered and
// received durable content handles from the transport.
type DeliveryConfirmation struct {
	UserID   int64                `json:"user_id"`
	URL      string               `json:"url"`
	Provider string               `json:"provider"`
	MediaID  string               `json:"media_id"`
	Kind     constants.MediaKind  `json:"kind"`
	Handle   models.ContentHandle `json:"handle"`
	Download *models.Download     `json:"download,omitempty"`
}

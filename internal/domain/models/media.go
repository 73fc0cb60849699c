// Package models defines the domain models for the clipgate media
// acquisition service.
package models

import (
	"time"

	"github.com/clipgate/clipgate/pkg/constants"
)

// MediaMeta is the provider-reported description of a remote media item.
type MediaMeta struct {
	// Title is the human-readable title, "untitled" if the provider has none.
	Title string `json:"title"`

	// Uploader is the channel or account name, empty if unknown.
	Uploader string `json:"uploader,omitempty"`

	// DurationSeconds is the media duration, zero if unknown.
	DurationSeconds int `json:"duration_seconds,omitempty"`

	// SizeApproxBytes is the provider's size estimate, zero if unknown.
	SizeApproxBytes int64 `json:"size_approx_bytes,omitempty"`

	// WebpageURL is the canonical page URL reported by the provider.
	WebpageURL string `json:"webpage_url"`

	// ProviderName identifies the extractor that handled the request key.
	ProviderName string `json:"provider_name"`

	// MediaID is the provider-assigned identity of the media item. Combined
	// with ProviderName and kind it forms the durable cache key.
	MediaID string `json:"media_id"`
}

// FormatCandidate is one concrete request variant offered to a provider.
// Candidates are tried in ladder order until one produces a usable artifact.
type FormatCandidate struct {
	// Spec is the provider-native format selector expression.
	Spec string `json:"spec"`

	// Label is a short human-readable description for logs and diagnostics.
	Label string `json:"label"`
}

// Artifact is the locally materialized result of a successful acquisition.
// It is transient: the caller owns the containing directory and is
// responsible for removing it after delivery.
type Artifact struct {
	// Path is the absolute path of the produced file.
	Path string `json:"path"`

	// SizeBytes is the file size at acquisition time.
	SizeBytes int64 `json:"size_bytes"`

	// Kind is the media kind the artifact was acquired as.
	Kind constants.MediaKind `json:"kind"`

	// CandidateLabel records which ladder candidate produced the artifact.
	CandidateLabel string `json:"candidate_label"`

	// LadderDepth is how many candidates were tried before one succeeded,
	// 1 when the first candidate already produced the artifact.
	LadderDepth int `json:"ladder_depth"`

	// AcquiredAt is the completion timestamp.
	AcquiredAt time.Time `json:"acquired_at"`
}

// ContentHandle is the transport-assigned identity of a delivered artifact.
// It can be replayed to the transport to resend without re-fetching.
type ContentHandle struct {
	// FileID is the primary reusable reference.
	FileID string `json:"file_id"`

	// FileUniqueID is the secondary, globally stable reference.
	FileUniqueID string `json:"file_unique_id"`
}

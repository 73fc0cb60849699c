// Package constants defines system-wide constants for the clipgate media
// acquisition service. This package provides type-safe constant definitions
// used across all modules.
package constants

import "time"

// ================================================================================
// Media Kind Constants
// ================================================================================

// MediaKind represents the kind of media artifact being acquired.
type MediaKind string

const (
	// MediaKindVideo represents a video artifact (target container mp4)
	MediaKindVideo MediaKind = "video"

	// MediaKindAudio represents an audio artifact (target container mp3)
	MediaKindAudio MediaKind = "audio"

	// MediaKindImage represents a still image artifact
	MediaKindImage MediaKind = "image"

	// MediaKindDocument represents any other delivered file
	MediaKindDocument MediaKind = "document"
)

// Valid reports whether the kind is one of the known media kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindVideo, MediaKindAudio, MediaKindImage, MediaKindDocument:
		return true
	}
	return false
}

// ================================================================================
// Platform Constants
// ================================================================================

// Platform is a coarse classification of a request key used to pick the
// format ladder and provider options.
type Platform string

const (
	// PlatformTikTok covers tiktok.com links
	PlatformTikTok Platform = "tiktok"

	// PlatformYouTubeShorts covers youtube.com/shorts and youtu.be links
	PlatformYouTubeShorts Platform = "shorts"

	// PlatformInstagram covers instagram.com / instagr.am reels and posts
	PlatformInstagram Platform = "reels"

	// PlatformSpotify covers open.spotify.com links
	PlatformSpotify Platform = "spotify"

	// PlatformGeneric covers any other supported source
	PlatformGeneric Platform = "generic"
)

// ================================================================================
// Admission Control Defaults
// ================================================================================

const (
	// DefaultRateWindow is the sliding window duration for per-user rate checks
	DefaultRateWindow = 20 * time.Second

	// DefaultMaxPerWindow is the maximum allowed requests per sliding window
	DefaultMaxPerWindow = 3

	// DefaultCooldown is the minimum interval between two requests of one user
	DefaultCooldown = 5 * time.Second

	// DefaultQueueDepth is the maximum pending admission tickets per user
	DefaultQueueDepth = 2

	// AdmissionShardCount is the number of shards for per-user admission state
	AdmissionShardCount = 32
)

// ================================================================================
// Acquisition Pipeline Defaults
// ================================================================================

const (
	// DefaultMaxArtifactMB is the maximum size of a delivered artifact
	DefaultMaxArtifactMB = 48

	// DefaultAcquireTimeout bounds one full pipeline call including the ladder
	DefaultAcquireTimeout = 180 * time.Second

	// DefaultPreferHeight is the preferred video height for format candidates
	DefaultPreferHeight = 1080

	// DefaultMetadataTTL is the memoization lifetime for provider metadata
	DefaultMetadataTTL = 5 * time.Minute

	// DefaultSocketTimeout is the provider-level network timeout per request
	DefaultSocketTimeout = 15 * time.Second
)

// ================================================================================
// Link Token Constants
// ================================================================================

const (
	// LinkTokenNamespaceDownload is the namespace for download callback tokens
	LinkTokenNamespaceDownload = "dl"

	// DefaultLinkTokenTTL is the lifetime of a minted link token
	DefaultLinkTokenTTL = 24 * time.Hour

	// LinkTokenLength is the number of characters in a minted token
	LinkTokenLength = 16
)

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode identifies a class of failure surfaced by the core.
type ErrorCode string

const (
	// ErrCodeRateLimited indicates the per-user rate policy denied the request
	ErrCodeRateLimited ErrorCode = "rate_limited"

	// ErrCodeQueueOverflow indicates the per-user admission queue is full
	ErrCodeQueueOverflow ErrorCode = "queue_overflow"

	// ErrCodeDuplicateInFlight indicates the same (user, key) is already being acquired
	ErrCodeDuplicateInFlight ErrorCode = "duplicate_in_flight"

	// ErrCodeProviderUnavailable indicates the external provider call failed
	ErrCodeProviderUnavailable ErrorCode = "provider_unavailable"

	// ErrCodeNoViableFormat indicates the format ladder was exhausted
	ErrCodeNoViableFormat ErrorCode = "no_viable_format"

	// ErrCodeSizeExceeded indicates the produced artifact exceeded the size cap
	ErrCodeSizeExceeded ErrorCode = "size_exceeded"

	// ErrCodeTranscodeFailed indicates container conversion failed (non-fatal)
	ErrCodeTranscodeFailed ErrorCode = "transcode_failed"

	// ErrCodeTimeout indicates the outer acquisition deadline fired
	ErrCodeTimeout ErrorCode = "timeout"

	// ErrCodeInvalidRequest indicates a malformed or unsupported request
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeNotFound indicates a referenced entity does not exist
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeInternal indicates an unexpected internal failure
	ErrCodeInternal ErrorCode = "internal_error"
)

// ================================================================================
// Context Key Constants
// ================================================================================

// ContextKey is the type for request-scoped context values.
type ContextKey string

const (
	// ContextKeyRequestID carries the per-request correlation id
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyUserID carries the requesting user identity
	ContextKeyUserID ContextKey = "user_id"
)

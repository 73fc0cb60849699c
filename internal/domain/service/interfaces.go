// Package service defines the domain-level contracts the application layer
// composes: external media providers, transcoding, short-lived link tokens.
package service

import (
	"context"
	"time"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/pkg/constants"
)

// Provider is an external media extraction service. Implementations wrap
// slow, unreliable, rate-limited tools; every call must honor the context
// deadline as a hard per-call timeout.
type Provider interface {
	// ExtractMetadata probes the request key without downloading.
	ExtractMetadata(ctx context.Context, requestKey string) (*models.MediaMeta, error)

	// Fetch downloads the media using one concrete format candidate into
	// destDir and returns nothing on its own: the pipeline locates the
	// produced artifact afterwards. sizeLimit is passed down so the
	// provider can abort oversized transfers early.
	Fetch(ctx context.Context, requestKey string, candidate models.FormatCandidate, kind constants.MediaKind, sizeLimit int64, destDir string) error
}

// Transcoder converts an artifact into the standard delivery container.
type Transcoder interface {
	// ToMP4 converts src into an mp4 file next to it and returns the new
	// path. Returns src unchanged if it already is mp4.
	ToMP4(ctx context.Context, src string) (string, error)
}

// LinkTokenStore mints short namespaced tokens that stand in for long
// request keys on surfaces with tight payload budgets (chat callback data).
// Tokens expire; resolution of an expired or unknown token is a miss, not
// an error.
type LinkTokenStore interface {
	// Mint stores value under a fresh token in the namespace and returns
	// the token.
	Mint(ctx context.Context, namespace, value string, ttl time.Duration) (string, error)

	// Resolve returns the value for the token, or "" if absent/expired.
	Resolve(ctx context.Context, namespace, token string) (string, error)

	// Delete removes the token. Deleting an absent token is a no-op.
	Delete(ctx context.Context, namespace, token string) error
}

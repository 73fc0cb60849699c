package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/internal/domain/service"
	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/logger"
	"github.com/clipgate/clipgate/pkg/utils"
)

// Config holds the pipeline policy knobs.
type Config struct {
	// MaxArtifactBytes is the hard size cap on a produced artifact.
	MaxArtifactBytes int64

	// AcquireTimeout bounds one full Acquire call, ladder included.
	AcquireTimeout time.Duration

	// PreferHeight is the preferred video height for ladder candidates.
	PreferHeight int

	// ScratchRoot is where per-call scratch directories are created.
	// Empty means the system temp dir.
	ScratchRoot string

	// FinalDir is where promoted artifacts land. Empty falls back to
	// ScratchRoot (and from there to the system temp dir).
	FinalDir string
}

// DefaultConfig returns the default pipeline policy.
func DefaultConfig() Config {
	return Config{
		MaxArtifactBytes: constants.DefaultMaxArtifactMB * 1024 * 1024,
		AcquireTimeout:   constants.DefaultAcquireTimeout,
		PreferHeight:     constants.DefaultPreferHeight,
	}
}

// Pipeline acquires media by walking a ladder of format candidates until
// one produces a usable artifact within the size and time budgets. It
// holds no state between calls.
type Pipeline struct {
	provider   service.Provider
	transcoder service.Transcoder
	config     Config
	log        logger.Logger
}

// New creates a pipeline over the given provider and transcoder.
func New(provider service.Provider, transcoder service.Transcoder, cfg Config, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	if cfg.MaxArtifactBytes <= 0 {
		cfg.MaxArtifactBytes = constants.DefaultMaxArtifactMB * 1024 * 1024
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = constants.DefaultAcquireTimeout
	}
	return &Pipeline{
		provider:   provider,
		transcoder: transcoder,
		config:     cfg,
		log:        log.WithComponent("pipeline"),
	}
}

// Acquire fetches the media behind requestKey as the given kind. On success
// the artifact has been copied out of the scratch workspace into a
// caller-owned directory; the caller removes that directory after delivery.
// Failure semantics: candidate errors advance the ladder, the same
// candidate is never retried, and an exhausted ladder fails with the last
// recorded error wrapped as no_viable_format. The whole call is bounded by
// one outer timeout regardless of how many candidates are tried.
func (p *Pipeline) Acquire(ctx context.Context, requestKey string, kind constants.MediaKind) (*models.Artifact, error) {
	if !kind.Valid() {
		return nil, errors.ErrInvalidRequest("unknown media kind " + string(kind))
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.AcquireTimeout)
	defer cancel()

	scratch, err := os.MkdirTemp(p.config.ScratchRoot, "clipgate-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, errors.ErrInternal("create scratch dir").WithCause(err)
	}
	defer os.RemoveAll(scratch)

	platform := utils.Classify(requestKey)
	candidates := Ladder(kind, platform, p.config.PreferHeight)

	var lastErr error
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			return nil, errors.ErrTimeout(p.config.AcquireTimeout).WithCause(lastErr)
		}

		// Partial output of the previous attempt must not be mistaken
		// for this candidate's artifact.
		if err := clearDir(scratch); err != nil {
			return nil, errors.ErrInternal("reset scratch dir").WithCause(err)
		}

		if err := p.provider.Fetch(ctx, requestKey, candidate, kind, p.config.MaxArtifactBytes, scratch); err != nil {
			if ctx.Err() != nil {
				return nil, errors.ErrTimeout(p.config.AcquireTimeout).WithCause(err)
			}
			lastErr = err
			p.log.Debug(ctx, "format candidate failed",
				logger.String("candidate", candidate.Label),
				logger.Int("ladder_index", i),
				logger.Error(err),
			)
			continue
		}

		artifactPath, err := newestFile(scratch)
		if err != nil {
			lastErr = errors.ErrProviderUnavailable("provider produced no output").WithCause(err)
			continue
		}

		info, err := os.Stat(artifactPath)
		if err != nil {
			lastErr = errors.ErrInternal("stat artifact").WithCause(err)
			continue
		}
		if info.Size() == 0 {
			lastErr = errors.ErrProviderUnavailable("provider produced an empty file")
			continue
		}

		if kind == constants.MediaKindVideo {
			artifactPath = p.normalizeContainer(ctx, artifactPath)
			if info, err = os.Stat(artifactPath); err != nil {
				lastErr = errors.ErrInternal("stat artifact").WithCause(err)
				continue
			}
		}

		if info.Size() > p.config.MaxArtifactBytes {
			lastErr = errors.ErrSizeExceeded(info.Size(), p.config.MaxArtifactBytes)
			continue
		}

		final, err := p.promote(artifactPath)
		if err != nil {
			return nil, err
		}

		p.log.Info(ctx, "acquisition succeeded",
			logger.String("candidate", candidate.Label),
			logger.Int("ladder_index", i),
			logger.Int64("size_bytes", info.Size()),
			logger.String("kind", string(kind)),
		)

		return &models.Artifact{
			Path:           final,
			SizeBytes:      info.Size(),
			Kind:           kind,
			CandidateLabel: candidate.Label,
			LadderDepth:    i + 1,
			AcquiredAt:     time.Now().UTC(),
		}, nil
	}

	if ctx.Err() != nil {
		return nil, errors.ErrTimeout(p.config.AcquireTimeout).WithCause(lastErr)
	}
	return nil, errors.ErrNoViableFormat(lastErr)
}

// normalizeContainer converts a video artifact to mp4 when needed. A failed
// conversion degrades to the original artifact instead of failing the
// candidate.
func (p *Pipeline) normalizeContainer(ctx context.Context, path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp4") {
		return path
	}
	converted, err := p.transcoder.ToMP4(ctx, path)
	if err != nil {
		p.log.Warn(ctx, "transcode failed, keeping original container",
			logger.String("path", filepath.Base(path)),
			logger.Error(err),
		)
		return path
	}
	return converted
}

// promote copies the artifact out of the scratch workspace into a fresh
// caller-owned directory, so scratch cleanup cannot destroy the result.
func (p *Pipeline) promote(src string) (string, error) {
	root := p.config.FinalDir
	if root == "" {
		root = p.config.ScratchRoot
	}
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return "", errors.ErrInternal("create final root").WithCause(err)
		}
	}
	finalDir, err := os.MkdirTemp(root, "clipgate-final-")
	if err != nil {
		return "", errors.ErrInternal("create final dir").WithCause(err)
	}
	dst := filepath.Join(finalDir, filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		os.RemoveAll(finalDir)
		return "", errors.ErrInternal("promote artifact").WithCause(err)
	}
	return dst, nil
}

// newestFile returns the most recently modified regular file under dir.
func newestFile(dir string) (string, error) {
	var newest string
	var newestMod time.Time

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest, newestMod = path, info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if newest == "" {
		return "", os.ErrNotExist
	}
	return newest, nil
}

// clearDir removes every entry under dir, keeping dir itself.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

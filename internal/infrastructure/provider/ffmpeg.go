package provider

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/clipgate/clipgate/internal/domain/service"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/logger"
)

// FFmpegTranscoder implements service.Transcoder over the ffmpeg CLI.
type FFmpegTranscoder struct {
	binaryPath string
	log        logger.Logger
}

// NewFFmpegTranscoder creates a transcoder. An empty path resolves
// "ffmpeg" from PATH.
func NewFFmpegTranscoder(binaryPath string, log logger.Logger) *FFmpegTranscoder {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &FFmpegTranscoder{binaryPath: binaryPath, log: log.WithComponent("ffmpeg")}
}

// ToMP4 converts src to an mp4 file in the same directory and returns the
// new path. A src that already is mp4 is returned unchanged.
func (t *FFmpegTranscoder) ToMP4(ctx context.Context, src string) (string, error) {
	if strings.EqualFold(filepath.Ext(src), ".mp4") {
		return src, nil
	}

	out := strings.TrimSuffix(src, filepath.Ext(src)) + ".converted.mp4"
	cmd := exec.CommandContext(ctx, t.binaryPath,
		"-y",
		"-i", src,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		out,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(out)
		if ctx.Err() != nil {
			return "", errors.ErrTranscodeFailed(ctx.Err())
		}
		return "", errors.ErrTranscodeFailed(err).
			WithMetadata("stderr", firstLine(strings.TrimSpace(stderr.String())))
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		os.Remove(out)
		return "", errors.ErrTranscodeFailed(errors.ErrInternal("conversion produced no output"))
	}
	return out, nil
}

var _ service.Transcoder = (*FFmpegTranscoder)(nil)

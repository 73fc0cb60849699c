// Package provider wraps the external extraction and transcoding tools
// behind the domain service interfaces. The yt-dlp binary does the actual
// media extraction; every invocation runs under the caller's context
// deadline as a hard timeout.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/internal/domain/service"
	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/logger"
	"github.com/clipgate/clipgate/pkg/utils"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"

// Config holds the yt-dlp invocation knobs.
type Config struct {
	// BinaryPath is the yt-dlp executable, "yt-dlp" from PATH if empty.
	BinaryPath string

	// FFmpegPath points yt-dlp at a specific ffmpeg, optional.
	FFmpegPath string

	// InstagramCookies is a cookies file required for instagram links.
	InstagramCookies string

	// MetadataTTL bounds the metadata memo, zero means the default.
	MetadataTTL time.Duration
}

// YtDlpProvider implements service.Provider over the yt-dlp CLI. Metadata
// probes are memoized briefly because the chat surface routinely asks for
// video and audio of the same key back to back.
type YtDlpProvider struct {
	config   Config
	log      logger.Logger
	metaMemo *gocache.Cache
}

// NewYtDlpProvider creates a provider instance.
func NewYtDlpProvider(cfg Config, log logger.Logger) *YtDlpProvider {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "yt-dlp"
	}
	if cfg.MetadataTTL <= 0 {
		cfg.MetadataTTL = constants.DefaultMetadataTTL
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &YtDlpProvider{
		config:   cfg,
		log:      log.WithComponent("ytdlp"),
		metaMemo: gocache.New(cfg.MetadataTTL, 2*cfg.MetadataTTL),
	}
}

// ytdlpInfo is the subset of the yt-dlp JSON dump the core cares about.
type ytdlpInfo struct {
	Type           string      `json:"_type"`
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Uploader       string      `json:"uploader"`
	Duration       float64     `json:"duration"`
	Filesize       int64       `json:"filesize"`
	FilesizeApprox int64       `json:"filesize_approx"`
	WebpageURL     string      `json:"webpage_url"`
	Extractor      string      `json:"extractor"`
	Entries        []ytdlpInfo `json:"entries"`
}

// ExtractMetadata probes the request key without downloading.
func (p *YtDlpProvider) ExtractMetadata(ctx context.Context, requestKey string) (*models.MediaMeta, error) {
	if cached, ok := p.metaMemo.Get(requestKey); ok {
		return cached.(*models.MediaMeta), nil
	}

	args, err := p.baseArgs(requestKey)
	if err != nil {
		return nil, err
	}
	args = append(args, "--dump-single-json", "--skip-download", requestKey)

	out, err := p.run(ctx, args)
	if err != nil {
		// Some sources reject the merged-format probe; retry with the
		// default format selection before giving up.
		retry := append([]string{}, args...)
		out, err = p.run(ctx, append(retry, "--format", "best"))
		if err != nil {
			return nil, errors.ErrProviderUnavailable("metadata extraction failed").WithCause(err)
		}
	}

	var info ytdlpInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, errors.ErrProviderUnavailable("unparseable metadata").WithCause(err)
	}

	// Playlist probes unwrap to their first playable entry.
	if info.Type == "playlist" && len(info.Entries) > 0 {
		info = info.Entries[0]
	}

	meta := &models.MediaMeta{
		Title:           info.Title,
		Uploader:        info.Uploader,
		DurationSeconds: int(info.Duration),
		SizeApproxBytes: info.FilesizeApprox,
		WebpageURL:      info.WebpageURL,
		ProviderName:    info.Extractor,
		MediaID:         info.ID,
	}
	if meta.Title == "" {
		meta.Title = "untitled"
	}
	if meta.SizeApproxBytes == 0 {
		meta.SizeApproxBytes = info.Filesize
	}
	if meta.WebpageURL == "" {
		meta.WebpageURL = requestKey
	}

	p.metaMemo.SetDefault(requestKey, meta)
	return meta, nil
}

// Fetch downloads the media with one concrete format candidate into destDir.
func (p *YtDlpProvider) Fetch(
	ctx context.Context,
	requestKey string,
	candidate models.FormatCandidate,
	kind constants.MediaKind,
	sizeLimit int64,
	destDir string,
) error {
	args, err := p.baseArgs(requestKey)
	if err != nil {
		return err
	}

	args = append(args,
		"--format", candidate.Spec,
		"--output", filepath.Join(destDir, "%(title).80s.%(ext)s"),
		"--max-filesize", fmt.Sprintf("%d", sizeLimit),
		"--merge-output-format", "mp4",
	)

	if kind == constants.MediaKindAudio {
		args = append(args,
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
		)
	}

	args = append(args, requestKey)

	if _, err := p.run(ctx, args); err != nil {
		return errors.ErrProviderUnavailable("fetch failed for candidate "+candidate.Label).WithCause(err)
	}
	return nil
}

// baseArgs builds the option set shared by probes and fetches, mirroring
// the hardened defaults the service has always shipped with.
func (p *YtDlpProvider) baseArgs(requestKey string) ([]string, error) {
	args := []string{
		"--no-progress",
		"--quiet",
		"--restrict-filenames",
		"--socket-timeout", fmt.Sprintf("%d", int(constants.DefaultSocketTimeout.Seconds())),
		"--no-check-certificates",
		"--ignore-config",
		"--geo-bypass",
		"--no-color",
		"--concurrent-fragments", "10",
		"--http-chunk-size", "10M",
		"--retries", "3",
		"--file-access-retries", "3",
		"--fragment-retries", "3",
		"--skip-unavailable-fragments",
		"--force-ipv4",
		"--no-write-info-json",
		"--no-write-thumbnail",
		"--no-write-subs",
		"--no-write-auto-subs",
		"--user-agent", browserUserAgent,
	}

	if p.config.FFmpegPath != "" {
		args = append(args, "--ffmpeg-location", p.config.FFmpegPath)
	}

	if utils.IsInstagram(requestKey) {
		if p.config.InstagramCookies == "" {
			return nil, errors.ErrInvalidRequest("instagram cookies file is not configured")
		}
		if _, err := os.Stat(p.config.InstagramCookies); err != nil {
			return nil, errors.ErrInvalidRequest("instagram cookies file not found").WithCause(err)
		}
		args = append(args,
			"--cookies", p.config.InstagramCookies,
			"--add-headers", "Referer:https://www.instagram.com/",
		)
	}

	return args, nil
}

// run executes yt-dlp under the context deadline and returns stdout.
func (p *YtDlpProvider) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.config.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("yt-dlp: %s", firstLine(msg))
	}
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var _ service.Provider = (*YtDlpProvider)(nil)

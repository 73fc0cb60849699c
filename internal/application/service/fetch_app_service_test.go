package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/internal/infrastructure/admission"
	"github.com/clipgate/clipgate/internal/infrastructure/persistence/sqlite"
	"github.com/clipgate/clipgate/internal/infrastructure/pipeline"
	redisstore "github.com/clipgate/clipgate/internal/infrastructure/redis"
	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
)

const clipURL = "https://www.tiktok.com/@user/video/123"

// fakeProvider serves fixed metadata and writes a small artifact on fetch.
type fakeProvider struct {
	mu         sync.Mutex
	fetchCalls int
	failFetch  bool
}

func (p *fakeProvider) ExtractMetadata(ctx context.Context, requestKey string) (*models.MediaMeta, error) {
	return &models.MediaMeta{
		Title:        "clip",
		WebpageURL:   requestKey,
		ProviderName: "tiktok",
		MediaID:      "123",
	}, nil
}

func (p *fakeProvider) Fetch(ctx context.Context, requestKey string, candidate models.FormatCandidate, kind constants.MediaKind, sizeLimit int64, destDir string) error {
	p.mu.Lock()
	p.fetchCalls++
	fail := p.failFetch
	p.mu.Unlock()

	if fail {
		return errors.ErrProviderUnavailable("scripted failure")
	}
	name := "clip.mp4"
	if kind == constants.MediaKindAudio {
		name = "clip.mp3"
	}
	return os.WriteFile(filepath.Join(destDir, name), []byte("media"), 0o644)
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls
}

type noopTranscoder struct{}

func (noopTranscoder) ToMP4(ctx context.Context, src string) (string, error) {
	return src, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc      FetchAppService
	provider *fakeProvider
	clock    *testClock
}

func newFixture(t *testing.T, rateCfg admission.RateGateConfig) *fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	controller := admission.NewController(admission.Config{
		RateGate:   rateCfg,
		QueueDepth: 2,
	}, clock.Now, nil)

	prov := &fakeProvider{}
	pipe := pipeline.New(prov, noopTranscoder{}, pipeline.Config{
		MaxArtifactBytes: 1 << 20,
		AcquireTimeout:   10 * time.Second,
		ScratchRoot:      t.TempDir(),
	}, nil)

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewFetchAppService(
		controller, pipe, prov,
		sqlite.NewMediaCacheRepository(db, nil),
		sqlite.NewTelemetryRepository(db, nil),
		redisstore.NewLinkTokenStore(client),
		nil, nil,
	)
	return &fixture{svc: svc, provider: prov, clock: clock}
}

func generousRate() admission.RateGateConfig {
	return admission.RateGateConfig{Window: time.Minute, MaxPerWindow: 100, Cooldown: 0}
}

func TestFetchCacheMissAcquiresArtifact(t *testing.T) {
	f := newFixture(t, generousRate())

	res, err := f.svc.Fetch(context.Background(), FetchRequest{
		UserID: 1, URL: clipURL, Kind: constants.MediaKindVideo,
	})
	require.NoError(t, err)
	defer os.RemoveAll(filepath.Dir(res.Artifact.Path))

	assert.False(t, res.CacheHit)
	require.NotNil(t, res.Artifact)
	assert.FileExists(t, res.Artifact.Path)
	assert.Equal(t, "tiktok", res.Meta.ProviderName)
	assert.Equal(t, 1, f.provider.calls())
}

func TestConfirmedDeliveryBecomesCacheHit(t *testing.T) {
	f := newFixture(t, generousRate())
	ctx := context.Background()

	res, err := f.svc.Fetch(ctx, FetchRequest{UserID: 1, URL: clipURL, Kind: constants.MediaKindVideo})
	require.NoError(t, err)
	defer os.RemoveAll(filepath.Dir(res.Artifact.Path))

	err = f.svc.ConfirmDelivery(ctx, DeliveryConfirmation{
		UserID:   1,
		URL:      clipURL,
		Provider: res.Meta.ProviderName,
		MediaID:  res.Meta.MediaID,
		Kind:     constants.MediaKindVideo,
		Handle:   models.ContentHandle{FileID: "file-1", FileUniqueID: "uniq-1"},
		Download: &models.Download{Source: "tiktok", URL: clipURL},
	})
	require.NoError(t, err)

	callsBefore := f.provider.calls()
	second, err := f.svc.Fetch(ctx, FetchRequest{UserID: 1, URL: clipURL, Kind: constants.MediaKindVideo})
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	require.NotNil(t, second.Handle)
	assert.Equal(t, "file-1", second.Handle.FileID)
	assert.Nil(t, second.Artifact)
	assert.Equal(t, callsBefore, f.provider.calls())

	stats, err := f.svc.UserStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Downloads)
}

func TestCacheIsSharedAcrossUsers(t *testing.T) {
	f := newFixture(t, generousRate())
	ctx := context.Background()

	require.NoError(t, f.svc.ConfirmDelivery(ctx, DeliveryConfirmation{
		UserID: 1, URL: clipURL, Provider: "tiktok", MediaID: "123",
		Kind:   constants.MediaKindVideo,
		Handle: models.ContentHandle{FileID: "file-1"},
	}))

	res, err := f.svc.Fetch(ctx, FetchRequest{UserID: 2, URL: clipURL, Kind: constants.MediaKindVideo})
	require.NoError(t, err)
	assert.True(t, res.CacheHit)
}

func TestFetchRateLimitsQuickRetry(t *testing.T) {
	f := newFixture(t, admission.RateGateConfig{
		Window: 20 * time.Second, MaxPerWindow: 3, Cooldown: 5 * time.Second,
	})
	ctx := context.Background()

	res, err := f.svc.Fetch(ctx, FetchRequest{UserID: 1, URL: clipURL, Kind: constants.MediaKindVideo})
	require.NoError(t, err)
	defer os.RemoveAll(filepath.Dir(res.Artifact.Path))

	f.clock.Advance(time.Second)
	_, err = f.svc.Fetch(ctx, FetchRequest{UserID: 1, URL: clipURL, Kind: constants.MediaKindVideo})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeRateLimited))
	assert.True(t, errors.IsBackpressure(err))

	f.clock.Advance(5 * time.Second)
	res2, err := f.svc.Fetch(ctx, FetchRequest{UserID: 1, URL: clipURL, Kind: constants.MediaKindVideo})
	require.NoError(t, err)
	os.RemoveAll(filepath.Dir(res2.Artifact.Path))
}

func TestFetchRejectsUnsupportedURL(t *testing.T) {
	f := newFixture(t, generousRate())

	_, err := f.svc.Fetch(context.Background(), FetchRequest{
		UserID: 1, URL: "https://example.com/video", Kind: constants.MediaKindVideo,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidRequest))
	assert.Equal(t, 0, f.provider.calls())
}

func TestFetchFailureSurfacesPipelineError(t *testing.T) {
	f := newFixture(t, generousRate())
	f.provider.failFetch = true

	_, err := f.svc.Fetch(context.Background(), FetchRequest{
		UserID: 1, URL: clipURL, Kind: constants.MediaKindVideo,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeNoViableFormat))
}

func TestFetchPairAcquiresBothKinds(t *testing.T) {
	f := newFixture(t, generousRate())

	pair, err := f.svc.FetchPair(context.Background(), 1, clipURL)
	require.NoError(t, err)
	defer os.RemoveAll(filepath.Dir(pair.Video.Artifact.Path))
	defer os.RemoveAll(filepath.Dir(pair.Audio.Artifact.Path))

	assert.Equal(t, constants.MediaKindVideo, pair.Video.Artifact.Kind)
	assert.Equal(t, constants.MediaKindAudio, pair.Audio.Artifact.Kind)
	assert.Equal(t, ".mp3", filepath.Ext(pair.Audio.Artifact.Path))
}

func TestDescribeMintsResolvableToken(t *testing.T) {
	f := newFixture(t, generousRate())
	ctx := context.Background()

	preview, err := f.svc.Describe(ctx, 1, clipURL)
	require.NoError(t, err)
	assert.Equal(t, constants.PlatformTikTok, preview.Plat)
	assert.Equal(t, "clip", preview.Meta.Title)

	url, err := f.svc.ResolveToken(ctx, preview.Token)
	require.NoError(t, err)
	assert.Equal(t, clipURL, url)
}

func TestResolveUnknownToken(t *testing.T) {
	f := newFixture(t, generousRate())

	url, err := f.svc.ResolveToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestConfirmDeliveryValidation(t *testing.T) {
	f := newFixture(t, generousRate())
	ctx := context.Background()

	err := f.svc.ConfirmDelivery(ctx, DeliveryConfirmation{
		UserID: 1, Provider: "", MediaID: "123", Kind: constants.MediaKindVideo,
		Handle: models.ContentHandle{FileID: "f"},
	})
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidRequest))

	err = f.svc.ConfirmDelivery(ctx, DeliveryConfirmation{
		UserID: 1, Provider: "tiktok", MediaID: "123", Kind: constants.MediaKindVideo,
	})
	assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidRequest))
}

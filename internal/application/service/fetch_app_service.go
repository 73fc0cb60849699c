package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipgate/clipgate/internal/domain/models"
	"github.com/clipgate/clipgate/internal/domain/repository"
	"github.com/clipgate/clipgate/internal/domain/service"
	"github.com/clipgate/clipgate/internal/infrastructure/admission"
	"github.com/clipgate/clipgate/internal/infrastructure/monitoring"
	"github.com/clipgate/clipgate/internal/infrastructure/pipeline"
	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
	"github.com/clipgate/clipgate/pkg/logger"
	"github.com/clipgate/clipgate/pkg/utils"
)

// FetchAppService is the application-facing fetch use case: admission,
// cache lookup, acquisition and delivery bookkeeping behind one API.
type FetchAppService interface {
	// Describe probes the request key without downloading and mints a
	// short-lived token standing in for the URL.
	Describe(ctx context.Context, userID int64, rawURL string) (*Preview, error)

	// Fetch acquires one artifact, consulting the delivered-media cache
	// first. Backpressure denials surface as typed errors.
	Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)

	// FetchPair acquires the video and audio renditions of one key
	// concurrently under a single admission grant.
	FetchPair(ctx context.Context, userID int64, rawURL string) (*PairResult, error)

	// ConfirmDelivery records the transport handles of a delivered
	// artifact so later requests become cache hits.
	ConfirmDelivery(ctx context.Context, conf DeliveryConfirmation) error

	// ResolveToken maps a minted token back to its request URL. An
	// unknown or expired token resolves to "".
	ResolveToken(ctx context.Context, token string) (string, error)

	// UserStats returns the requester's aggregate counters.
	UserStats(ctx context.Context, userID int64) (*models.UserStats, error)
}

type fetchAppService struct {
	controller *admission.Controller
	pipe       *pipeline.Pipeline
	provider   service.Provider
	cache      repository.MediaCacheRepository
	telemetry  repository.TelemetryRepository
	tokens     service.LinkTokenStore
	metrics    *monitoring.Metrics
	log        logger.Logger
}

// NewFetchAppService wires the fetch use case. metrics may be nil, for
// tests that do not want registry side effects.
func NewFetchAppService(
	controller *admission.Controller,
	pipe *pipeline.Pipeline,
	provider service.Provider,
	cache repository.MediaCacheRepository,
	telemetry repository.TelemetryRepository,
	tokens service.LinkTokenStore,
	metrics *monitoring.Metrics,
	log logger.Logger,
) FetchAppService {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &fetchAppService{
		controller: controller,
		pipe:       pipe,
		provider:   provider,
		cache:      cache,
		telemetry:  telemetry,
		tokens:     tokens,
		metrics:    metrics,
		log:        log.WithComponent("fetch"),
	}
}

func (s *fetchAppService) Describe(ctx context.Context, userID int64, rawURL string) (*Preview, error) {
	if !utils.IsSupportedURL(rawURL) {
		return nil, errors.ErrInvalidRequest("unsupported url")
	}

	meta, err := s.provider.ExtractMetadata(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Mint(ctx, constants.LinkTokenNamespaceDownload, rawURL, constants.DefaultLinkTokenTTL)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, userID, "describe", rawURL)

	return &Preview{
		Meta:  meta,
		Token: token,
		Plat:  utils.Classify(rawURL),
	}, nil
}

func (s *fetchAppService) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	grant, err := s.admit(ctx, req.UserID, req.URL)
	if err != nil {
		s.recordAdmission(err)
		return nil, err
	}
	defer grant.Release()
	s.recordAdmission(nil)

	res, err := s.fetchAdmitted(ctx, req)
	if err != nil {
		s.logEvent(ctx, req.UserID, "fetch_failed", req.URL)
		return nil, err
	}
	return res, nil
}

// fetchAdmitted runs the post-admission part of a fetch. The caller holds
// the admission grant for the whole call.
func (s *fetchAppService) fetchAdmitted(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	meta, err := s.provider.ExtractMetadata(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.Lookup(ctx, meta.ProviderName, meta.MediaID, req.Kind)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		s.recordCache("hit")
		s.logEvent(ctx, req.UserID, "cache_hit", req.URL)
		return &FetchResult{
			CacheHit: true,
			Handle: &models.ContentHandle{
				FileID:       cached.FileID,
				FileUniqueID: cached.FileUniqueID,
			},
			Meta: meta,
		}, nil
	}
	s.recordCache("miss")

	start := time.Now()
	artifact, err := s.pipe.Acquire(ctx, req.URL, req.Kind)
	if err != nil {
		s.recordAcquisition(req.Kind, "failure", time.Since(start))
		return nil, err
	}
	s.recordAcquisition(req.Kind, "success", time.Since(start))
	s.recordLadderDepth(req.Kind, artifact.LadderDepth)

	s.logEvent(ctx, req.UserID, "acquired", req.URL)

	return &FetchResult{
		Artifact: artifact,
		Meta:     meta,
	}, nil
}

func (s *fetchAppService) FetchPair(ctx context.Context, userID int64, rawURL string) (*PairResult, error) {
	if !utils.IsSupportedURL(rawURL) {
		return nil, errors.ErrInvalidRequest("unsupported url")
	}

	grant, err := s.admit(ctx, userID, rawURL)
	if err != nil {
		s.recordAdmission(err)
		return nil, err
	}
	defer grant.Release()
	s.recordAdmission(nil)

	var pair PairResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.fetchAdmitted(gctx, FetchRequest{UserID: userID, URL: rawURL, Kind: constants.MediaKindVideo})
		if err != nil {
			return err
		}
		pair.Video = res
		return nil
	})
	g.Go(func() error {
		res, err := s.fetchAdmitted(gctx, FetchRequest{UserID: userID, URL: rawURL, Kind: constants.MediaKindAudio})
		if err != nil {
			return err
		}
		pair.Audio = res
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logEvent(ctx, userID, "fetch_failed", rawURL)
		return nil, err
	}
	return &pair, nil
}

func (s *fetchAppService) ConfirmDelivery(ctx context.Context, conf DeliveryConfirmation) error {
	if conf.Provider == "" || conf.MediaID == "" || !conf.Kind.Valid() {
		return errors.ErrInvalidRequest("incomplete delivery confirmation")
	}
	if conf.Handle.FileID == "" {
		return errors.ErrInvalidRequest("missing file id")
	}

	record := &models.MediaCacheRecord{
		Provider:     conf.Provider,
		MediaID:      conf.MediaID,
		Kind:         conf.Kind,
		Source:       conf.URL,
		FileID:       conf.Handle.FileID,
		FileUniqueID: conf.Handle.FileUniqueID,
	}
	if err := s.cache.Upsert(ctx, record); err != nil {
		return err
	}

	if conf.Download != nil {
		if err := s.telemetry.RecordDownload(ctx, conf.UserID, conf.Download); err != nil {
			// Statistics must not fail the confirmation.
			s.log.Warn(ctx, "download stat not recorded", logger.Error(err))
		}
	}

	s.log.Info(ctx, "delivery confirmed",
		logger.String("provider", conf.Provider),
		logger.String("media_id", conf.MediaID),
		logger.String("kind", string(conf.Kind)),
	)
	return nil
}

func (s *fetchAppService) ResolveToken(ctx context.Context, token string) (string, error) {
	return s.tokens.Resolve(ctx, constants.LinkTokenNamespaceDownload, token)
}

func (s *fetchAppService) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	return s.telemetry.UserStats(ctx, userID)
}

func validateRequest(req FetchRequest) error {
	if req.UserID == 0 {
		return errors.ErrInvalidRequest("missing user id")
	}
	if !req.Kind.Valid() {
		return errors.ErrInvalidRequest("unknown media kind " + string(req.Kind))
	}
	if !utils.IsSupportedURL(req.URL) {
		return errors.ErrInvalidRequest("unsupported url")
	}
	return nil
}

// logEvent records telemetry on a best-effort basis.
func (s *fetchAppService) logEvent(ctx context.Context, userID int64, eventType, payload string) {
	if s.telemetry == nil {
		return
	}
	if err := s.telemetry.LogEvent(ctx, userID, eventType, payload); err != nil {
		s.log.Warn(ctx, "event not recorded", logger.String("type", eventType), logger.Error(err))
	}
}

func (s *fetchAppService) recordAdmission(err error) {
	if s.metrics == nil {
		return
	}
	if err == nil {
		s.metrics.RecordAdmission("granted")
		return
	}
	s.metrics.RecordAdmission(string(errors.CodeOf(err)))
}

func (s *fetchAppService) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(result)
	}
}

func (s *fetchAppService) recordAcquisition(kind constants.MediaKind, result string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordAcquisition(string(kind), result, d)
	}
}

func (s *fetchAppService) recordLadderDepth(kind constants.MediaKind, depth int) {
	if s.metrics != nil && depth > 0 {
		s.metrics.RecordLadderDepth(string(kind), depth)
	}
}

// admit wraps controller admission with the waiter gauge, so a request
// queued behind another shows up while it waits.
func (s *fetchAppService) admit(ctx context.Context, userID int64, requestKey string) (*admission.Grant, error) {
	if s.metrics != nil {
		s.metrics.AdmissionWaitStarted()
		defer s.metrics.AdmissionWaitFinished()
	}
	return s.controller.Admit(ctx, userID, requestKey)
}

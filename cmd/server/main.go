package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	appservice "github.com/clipgate/clipgate/internal/application/service"
	"github.com/clipgate/clipgate/internal/config"
	"github.com/clipgate/clipgate/internal/infrastructure/admission"
	"github.com/clipgate/clipgate/internal/infrastructure/monitoring"
	redisconn "github.com/clipgate/clipgate/internal/infrastructure/persistence/redis"
	"github.com/clipgate/clipgate/internal/infrastructure/persistence/sqlite"
	"github.com/clipgate/clipgate/internal/infrastructure/pipeline"
	"github.com/clipgate/clipgate/internal/infrastructure/provider"
	redisstore "github.com/clipgate/clipgate/internal/infrastructure/redis"
	"github.com/clipgate/clipgate/internal/interfaces/http"
	"github.com/clipgate/clipgate/internal/interfaces/http/handlers"
	"github.com/clipgate/clipgate/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	logger.SetGlobalLogger(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Backing stores.
	db, err := sqlite.Open(ctx, cfg.Database.Path, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to open database", err)
	}

	redisClient, err := redisconn.Connect(ctx, &cfg.Redis)
	if err != nil {
		appLogger.Fatal(ctx, "failed to connect to redis", err)
	}
	defer redisClient.Close()

	metrics := monitoring.NewMetrics()

	// Domain components.
	controller := admission.NewController(admission.Config{
		RateGate: admission.RateGateConfig{
			Window:       cfg.Admission.RateWindow,
			MaxPerWindow: cfg.Admission.MaxPerWindow,
			Cooldown:     cfg.Admission.Cooldown,
		},
		QueueDepth: cfg.Admission.QueueDepth,
	}, nil, appLogger)

	ytdlp := provider.NewYtDlpProvider(provider.Config{
		BinaryPath:       cfg.Provider.BinaryPath,
		FFmpegPath:       cfg.Provider.FFmpegPath,
		InstagramCookies: cfg.Provider.InstagramCookies,
		MetadataTTL:      cfg.Provider.MetadataTTL,
	}, appLogger)
	transcoder := provider.NewFFmpegTranscoder(cfg.Provider.FFmpegPath, appLogger)

	pipe := pipeline.New(ytdlp, transcoder, pipeline.Config{
		MaxArtifactBytes: int64(cfg.Pipeline.MaxArtifactMB) * 1024 * 1024,
		AcquireTimeout:   cfg.Pipeline.AcquireTimeout,
		PreferHeight:     cfg.Pipeline.PreferHeight,
		ScratchRoot:      cfg.Pipeline.ScratchRoot,
		FinalDir:         cfg.Pipeline.FinalDir,
	}, appLogger)

	// Repositories and stores.
	cacheRepo := sqlite.NewMediaCacheRepository(db, appLogger)
	telemetryRepo := sqlite.NewTelemetryRepository(db, appLogger)
	tokenStore := redisstore.NewLinkTokenStore(redisClient)

	// Application service.
	fetchSvc := appservice.NewFetchAppService(
		controller, pipe, ytdlp,
		cacheRepo, telemetryRepo, tokenStore,
		metrics, appLogger,
	)

	// HTTP surface.
	healthHandler := handlers.NewHealthHandler(db, redisClient, appLogger)
	fetchHandler := handlers.NewFetchHandler(fetchSvc)
	router := http.NewRouter(cfg, appLogger, healthHandler, fetchHandler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Start()
	}()

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			appLogger.Fatal(context.Background(), "http server failed", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "http server forced shutdown", err)
	}
	appLogger.Info(context.Background(), "server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"safeguard/internal/ai"
	"safeguard/internal/classifier"
	"safeguard/internal/config"
	"safeguard/internal/database"
	"safeguard/internal/handlers"
	"safeguard/internal/lexicon"
	"safeguard/internal/logging"
	"safeguard/internal/metadata"
	"safeguard/internal/metrics"
	"safeguard/internal/repository"
	"safeguard/internal/security"
	"safeguard/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "safeguard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("database connection established", zap.String("type", db.Dialect.DriverName()))

	if err := db.RunMigrations(logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Seed the downloadable toxic term list
	if err := db.SeedToxicTerms(ctx, cfg.ToxicTermsURL, logger); err != nil {
		logger.Warn("failed to seed toxic terms", zap.Error(err))
	}

	lex, err := loadLexicon(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	m := metrics.New()

	// Optional remote collaborators
	var remote classifier.Remote
	if cfg.GeminiAPIKey != "" {
		remote, err = ai.NewCommentClassifier(ctx, ai.Config{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			RateLimit: cfg.RemoteRateLimit,
			Burst:     cfg.RemoteBurst,
		})
		if err != nil {
			return err
		}
		logger.Info("remote comment classifier enabled", zap.String("model", cfg.GeminiModel))
	}

	var extractor metadata.Extractor
	if cfg.YouTubeAPIKey != "" || cfg.YouTubeUseADC {
		yt, err := metadata.NewYouTube(ctx, metadata.YouTubeConfig{APIKey: cfg.YouTubeAPIKey, UseADC: cfg.YouTubeUseADC})
		if err != nil {
			return err
		}
		extractor = yt
		logger.Info("youtube metadata extractor enabled", zap.Bool("adc", cfg.YouTubeUseADC))
	}

	failureMode, err := classifier.ParseFailureMode(cfg.RemoteFailureMode)
	if err != nil {
		return err
	}

	// Initialize repositories
	videoRepo := repository.NewVideoRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	reportRepo := repository.NewReportRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	behaviorRepo := repository.NewBehaviorRepository(db)

	// Initialize services
	activityService := service.NewActivityService(activityRepo, logger)
	trackingService := service.NewTrackingService(db, classifier.New(lex), extractor, activityService, service.TrackingConfig{
		DedupWindow:          cfg.DedupWindow,
		ProfileThresholdDays: cfg.ProfileThresholdDays,
		MetadataTimeout:      cfg.MetadataTimeout,
	}, logger, m)
	pipeline := classifier.NewCommentPipeline(lex, remote, classifier.PipelineConfig{
		EmojiThreshold: cfg.EmojiThreshold,
		RemoteTimeout:  cfg.RemoteTimeout,
		FailureMode:    failureMode,
	}, logger, m)
	commentService := service.NewCommentService(pipeline, commentRepo, logger)
	reportService := service.NewReportService(videoRepo, activityRepo, reportRepo, logger)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, "SafeGuard", logger)
	if err != nil {
		return err
	}
	digestService := service.NewDigestService(reportService, behaviorRepo, emailService, cfg.RecipientsFor, logger, m)
	if err := digestService.Start(ctx, cfg.DigestSchedule); err != nil {
		return err
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute)
	go limiter.Run(ctx, 10*time.Minute)
	middleware := handlers.NewMiddleware(logger, cfg.APITokenSecret, limiter)
	if cfg.APITokenSecret == "" {
		logger.Warn("API_TOKEN_SECRET not set; API requests are not authenticated")
	}

	handler := handlers.Routes(
		middleware,
		handlers.NewTrackingHandler(trackingService, logger),
		handlers.NewCommentHandler(commentService, logger),
		handlers.NewReportHandler(reportService, activityService, logger),
		handlers.NewHealthHandler(db, pipeline.HasRemote(), logger),
		promhttp.Handler(),
	)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	<-digestService.Stop().Done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// loadLexicon reads the keyword lexicon and merges in seeded toxic terms
func loadLexicon(ctx context.Context, cfg *config.Config, db *database.DB, logger *zap.Logger) (*lexicon.Lexicon, error) {
	lex, err := lexicon.Load(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}

	extra, err := db.ToxicTerms(ctx)
	if err != nil {
		logger.Warn("failed to load seeded toxic terms", zap.Error(err))
		return lex, nil
	}
	lex = lex.WithToxicTerms(extra)

	logger.Info("lexicon loaded",
		zap.String("path", cfg.LexiconPath),
		zap.Int("categories", len(lex.Categories)),
		zap.Int("toxic_terms", len(lex.ToxicTerms)),
		zap.Int("toxic_words", len(lex.ToxicWords)),
	)
	return lex, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/lysyi3m/news-comb/app/api"
	"github.com/lysyi3m/news-comb/app/archive"
	"github.com/lysyi3m/news-comb/app/auth"
	"github.com/lysyi3m/news-comb/app/cache"
	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
	"github.com/lysyi3m/news-comb/app/llm"
	"github.com/lysyi3m/news-comb/app/news"
	"github.com/lysyi3m/news-comb/app/pipeline"
	"github.com/lysyi3m/news-comb/app/prices"
	"github.com/lysyi3m/news-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	if err := run(appCfg); err != nil {
		slog.Error("News Comb stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// setupSentry enables error reporting when a DSN is configured. Without one the
// global hub has no client and captures are dropped.
func setupSentry(appCfg *cfg.Cfg) error {
	if appCfg.SentryDSN == "" {
		slog.Debug("Sentry disabled, no DSN configured")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:                appCfg.SentryDSN,
		Environment:        appCfg.SentryEnv,
		Release:            "news-comb@" + appCfg.Version,
		EnableTracing:      appCfg.SentryRate > 0,
		TracesSampleRate:   appCfg.SentryRate,
		ProfilesSampleRate: appCfg.SentryProfiles,
	})
	if err != nil {
		return err
	}

	slog.Info("Sentry enabled", "environment", appCfg.SentryEnv, "traces_sample_rate", appCfg.SentryRate)
	return nil
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting News Comb", "version", appCfg.Version, "driver", appCfg.DBDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := setupSentry(appCfg); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	defer sentry.Flush(2 * time.Second)

	db, err := database.NewConnection(appCfg.DBDriver, appCfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	articleRepo := database.NewArticleRepository(db)
	userRepo := database.NewUserRepository(db)
	upvoteRepo := database.NewUpvoteRepository(db)

	var responseCache cache.Cache = cache.NoopCache{}
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, appCfg.RedisAddr, appCfg.RedisPassword, appCfg.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		responseCache = redisCache
	}
	defer responseCache.Close()

	settings, err := pipeline.LoadSettings(appCfg.PipelineFile)
	if err != nil {
		return fmt.Errorf("failed to load pipeline settings: %w", err)
	}

	newsClient, err := news.NewClient(appCfg.NewsBaseURL, appCfg.UserAgent, appCfg.FetchTimeout, settings.SearchPages)
	if err != nil {
		return fmt.Errorf("failed to create news client: %w", err)
	}

	chat := llm.NewOpenAIClient(appCfg.OpenAIKey, appCfg.OpenAIBaseURL, appCfg.OpenAIModel,
		appCfg.LLMTimeout, appCfg.LLMMaxRetries)
	classifier := llm.NewClassifier(chat, settings.Prompts.Relevance, settings.Topic, responseCache)
	summarizer := llm.NewSummarizer(chat, settings.Prompts.Summary, settings.SummaryKeys.Impact, settings.SummaryKeys.Cause)
	keywords := llm.NewKeywordExtractor(chat, settings.Prompts.Keywords)

	ingestOpts := []pipeline.IngestorOption{
		pipeline.WithStrictCycle(appCfg.StrictCycle),
		pipeline.WithTitleFilter(settings.TitleFilter),
	}
	if appCfg.S3Bucket != "" {
		archiver, err := archive.NewS3Archiver(ctx, archive.Config{
			Bucket:       appCfg.S3Bucket,
			Region:       appCfg.S3Region,
			Prefix:       appCfg.S3Prefix,
			Endpoint:     appCfg.S3Endpoint,
			UsePathStyle: appCfg.S3PathStyle,
		})
		if err != nil {
			return fmt.Errorf("failed to create article archive: %w", err)
		}
		ingestOpts = append(ingestOpts, pipeline.WithArchiver(archiver))
	}

	ingestor := pipeline.NewIngestor(newsClient, classifier, summarizer, articleRepo, settings.Keyword, ingestOpts...)
	searcher := pipeline.NewSearcher(keywords, newsClient, appCfg.SearchIDOffset)

	scheduler, err := tasks.NewScheduler(ingestor, articleRepo, tasks.Options{
		Schedule:      appCfg.Schedule(),
		WorkerCount:   appCfg.WorkerCount,
		MaxRetries:    appCfg.TaskMaxRetries,
		SeedManyPages: appCfg.SeedManyPages,
		Hub:           sentry.CurrentHub(),
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := scheduler.Seed(ctx); err != nil {
		slog.Warn("Initial ingestion failed", "error", err)
	}
	if ctx.Err() != nil {
		return nil
	}

	slog.Info("Starting background scheduler", "schedule", appCfg.Schedule(), "workers", appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	authService := auth.NewService(userRepo, auth.NewTokenManager(appCfg.JWTSecret, appCfg.TokenTTL))
	priceClient := prices.NewClient(appCfg.PricesURL, appCfg.UserAgent, appCfg.FetchTimeout, responseCache)
	feedGenerator := feed.NewGenerator("News Comb", appCfg.PublicURL(), settings.Topic, appCfg.Version)

	handler := api.NewHandler(articleRepo, upvoteRepo, userRepo, authService, searcher, summarizer,
		priceClient, feedGenerator, responseCache, appCfg.Version)
	router := api.NewServer(handler, authService, appCfg.AllowedOrigin)

	// Search and summary requests wait on the LLM, so the write timeout is generous.
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "allowed_origin", appCfg.AllowedOrigin)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case serveErr = <-serverErrChan:
		slog.Error("Server error", "error", serveErr)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serveErr
}

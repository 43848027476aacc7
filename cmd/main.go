package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hypewatch/internal/adapters/clickhouse"
	"hypewatch/internal/adapters/config"
	"hypewatch/internal/adapters/errors/noop"
	"hypewatch/internal/adapters/errors/sentry"
	"hypewatch/internal/adapters/kafka"
	"hypewatch/internal/adapters/postgres"
	"hypewatch/internal/adapters/reddit"
	redisadapter "hypewatch/internal/adapters/redis"
	"hypewatch/internal/domain/job"
	"hypewatch/internal/domain/listing"
	"hypewatch/internal/domain/mention"
	"hypewatch/internal/domain/sentiment"
	"hypewatch/internal/events"
	"hypewatch/internal/metrics"
	chrepo "hypewatch/internal/repository/clickhouse"
	"hypewatch/internal/repository/file"
	pgrepo "hypewatch/internal/repository/postgres"
	redisrepo "hypewatch/internal/repository/redis"
	"hypewatch/internal/services/ingest"
	"hypewatch/internal/workers"
	ingestworker "hypewatch/internal/workers/ingest"
	jobsworker "hypewatch/internal/workers/jobs"
	mentionsworker "hypewatch/internal/workers/mentions"
	sentimentworker "hypewatch/internal/workers/sentiment"
	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	// Databases
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	redisClient, err := redisadapter.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	log.Info("Databases initialized")

	// Events
	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	defer producer.Close()
	publisher := events.NewPublisher(producer)

	// Repositories
	db := pgClient.DB()
	jobRepo := pgrepo.NewJobRepository(db)
	mentionRepo := pgrepo.NewMentionRepository(db)
	rawPostRepo := pgrepo.NewRawPostRepository(db)
	sampleSource := pgrepo.NewSampleSource(db)
	snapshotRepo := chrepo.NewSnapshotRepository(chClient.Conn())

	var weightsRepo sentiment.WeightsRepository = pgrepo.NewBlendWeightsRepository(db)
	weightsRepo = redisrepo.NewWeightsCache(redisClient.Client(), weightsRepo, 5*time.Minute)

	// Ingestion
	tokens := reddit.NewTokenProvider(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret, cfg.Reddit.UserAgent)
	redditClient := reddit.NewClient(cfg.Reddit.UserAgent, cfg.Ingest.PageSize)
	fetcher := listing.NewFetcher(redditClient, listing.FetcherConfig{
		PageCap:   cfg.Ingest.PageCap,
		PageDelay: cfg.Reddit.PageDelay,
		Retry: listing.RetryPolicy{
			Cooldown:    cfg.Ingest.RateLimitCooldown,
			MaxAttempts: cfg.Ingest.RateLimitMaxRetries,
		},
	})
	partitions := file.NewPartitionStore(cfg.Ingest.OutputDir)
	ingestSvc := ingest.NewService(tokens, fetcher, partitions, rawPostRepo, publisher)

	// Job queue
	processor := ingest.NewProcessor(ingestSvc)
	queue := job.NewQueue(jobRepo, processor)

	// Sentiment pipeline
	normalizer := sentiment.NewNormalizer(normalizerConfig(cfg.Sentiment))
	blender := sentiment.NewBlender(sentiment.BlendWeights{
		Reddit:     cfg.Sentiment.DefaultRedditWeight,
		Stocktwits: cfg.Sentiment.DefaultStocktwitsWeight,
	}, weightsRepo)
	if err := blender.Reload(context.Background()); err != nil {
		log.Warnf("Starting with default blend weights: %v", err)
	}

	// Mention pipeline
	refresher := mention.NewRefresher(mentionRepo, redisClient, cfg.Workers.MentionChunkSize)

	// Workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(ingestworker.NewRedditWorker(
		ingestSvc, cfg.Reddit.Subreddits, cfg.Workers.RedditIngestInterval,
	))
	scheduler.RegisterWorker(mentionsworker.NewRefreshWorker(
		refresher, publisher, cfg.Workers.MentionLookback, cfg.Workers.MentionRefreshInterval,
	))
	scheduler.RegisterWorker(jobsworker.NewQueueWorker(
		queue, publisher, cfg.Workers.QueueMaxJobs, cfg.Workers.QueueCycleInterval,
	))
	scheduler.RegisterWorker(sentimentworker.NewSnapshotWorker(
		sampleSource, normalizer, blender, snapshotRepo, publisher,
		cfg.Workers.SnapshotWindow, cfg.Workers.SnapshotInterval,
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	metricsServer := startMetricsServer(cfg, pgClient, chClient, redisClient, log)

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, metricsServer, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// normalizerConfig maps env settings onto normalizer thresholds
func normalizerConfig(cfg config.SentimentConfig) sentiment.NormalizerConfig {
	return sentiment.NormalizerConfig{
		MinVolume: map[sentiment.Source]int{
			sentiment.SourceReddit:     cfg.MinVolumeReddit,
			sentiment.SourceStocktwits: cfg.MinVolumeStocktwits,
			sentiment.SourceNews:       cfg.MinVolumeNews,
			sentiment.SourceYoutube:    cfg.MinVolumeYoutube,
		},
		BaseConfidence:       cfg.BaseConfidence,
		QualityMinSources:    cfg.QualityMinSources,
		QualityMinConfidence: cfg.QualityMinConfidence,
	}
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// startMetricsServer exposes /metrics and /health; returns nil when disabled
func startMetricsServer(cfg *config.Config, pg, ch, rd healthChecker, log *logger.Logger) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		for name, checker := range map[string]healthChecker{
			"postgres":   pg,
			"clickhouse": ch,
			"redis":      rd,
		} {
			if err := checker.Health(ctx); err != nil {
				log.Warnf("Health check failed for %s: %v", name, err)
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		log.Infof("Metrics server listening on %s", cfg.Metrics.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	return server
}

// waitForShutdown waits for a shutdown signal and stops components in order
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	scheduler *workers.Scheduler,
	metricsServer *http.Server,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown incomplete: %v", err)
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Metrics server shutdown failed: %v", err)
		}
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(context.WithoutCancel(ctx)); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"hypewatch/internal/adapters/config"
	"hypewatch/internal/adapters/postgres"
	"hypewatch/internal/adapters/reddit"
	"hypewatch/internal/domain/job"
	"hypewatch/internal/domain/listing"
	"hypewatch/internal/repository/file"
	pgrepo "hypewatch/internal/repository/postgres"
	"hypewatch/internal/services/ingest"
	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

// Backfill enqueues one import job per (forum, day) over a date range, then
// drains the queue in this process. Safe to re-run: windows are idempotent
// and duplicate run ids are rejected by the unique constraint.
func main() {
	var (
		startFlag  = flag.String("start", "", "start date inclusive (2006-01-02), default INGEST_START_DATE")
		endFlag    = flag.String("end", "", "end date exclusive (2006-01-02), default INGEST_END_DATE")
		forumsFlag = flag.String("forums", "", "comma-separated source forums, default REDDIT_SUBREDDITS")
		dryRun     = flag.Bool("dry-run", false, "enqueue jobs without processing them")
		cycleSize  = flag.Int("cycle-size", 10, "jobs claimed per queue cycle")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get().With("component", "backfill")

	if *startFlag != "" {
		cfg.Ingest.StartDate = *startFlag
	}
	if *endFlag != "" {
		cfg.Ingest.EndDate = *endFlag
	}
	start, end, err := cfg.Ingest.DateRange()
	if err != nil {
		log.Fatalf("Invalid date range: %v", err)
	}

	forums := cfg.Reddit.Subreddits
	if *forumsFlag != "" {
		forums = strings.Split(*forumsFlag, ",")
	}
	if len(forums) == 0 {
		log.Fatal("No source forums configured")
	}

	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

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
	rawPostRepo := pgrepo.NewRawPostRepository(pgClient.DB())
	ingestSvc := ingest.NewService(tokens, fetcher, partitions, rawPostRepo, nil)

	jobRepo := pgrepo.NewJobRepository(pgClient.DB())
	queue := job.NewQueue(jobRepo, ingest.NewProcessor(ingestSvc))

	ctx := context.Background()

	enqueued := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		for _, forum := range forums {
			forum = strings.TrimSpace(forum)
			if forum == "" {
				continue
			}

			params, _ := json.Marshal(ingest.FilterParams{
				SourceForum: forum,
				Day:         day.Format("2006-01-02"),
			})

			_, err := queue.Enqueue(ctx, job.EnqueueParams{
				RunID:        fmt.Sprintf("backfill:%s:%s", forum, day.Format("2006-01-02")),
				SourceURL:    fmt.Sprintf("https://oauth.reddit.com/r/%s/new", forum),
				FilterParams: string(params),
				BatchSize:    cfg.Ingest.PageSize,
			})
			if err != nil {
				if errors.Is(err, errors.ErrAlreadyExists) {
					log.Debug("Window already enqueued", "forum", forum, "day", day.Format("2006-01-02"))
					continue
				}
				log.Fatalf("Failed to enqueue %s/%s: %v", forum, day.Format("2006-01-02"), err)
			}
			enqueued++
		}
	}

	log.Info("Backfill jobs enqueued",
		"enqueued", enqueued,
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"forums", len(forums),
	)

	if *dryRun {
		log.Info("Dry run, leaving jobs pending")
		return
	}

	processed := 0
	for {
		outcomes, err := queue.RunCycle(ctx, *cycleSize)
		processed += len(outcomes)
		if err != nil {
			log.Fatalf("Backfill stopped after %d jobs: %v", processed, err)
		}
		if len(outcomes) < *cycleSize {
			break
		}
	}

	log.Info("Backfill complete", "jobs_processed", processed)
}

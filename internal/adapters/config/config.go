package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"hypewatch/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Reddit        RedditConfig
	Ingest        IngestConfig
	Sentiment     SentimentConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"hypewatch"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"hypewatch"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"hypewatch"`
}

// RedditConfig holds Reddit API credentials and fetch etiquette settings
type RedditConfig struct {
	ClientID     string        `envconfig:"REDDIT_CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"REDDIT_CLIENT_SECRET" required:"true"`
	Subreddits   []string      `envconfig:"REDDIT_SUBREDDITS" required:"true"`
	UserAgent    string        `envconfig:"REDDIT_USER_AGENT" default:"hypewatch/1.0"`
	PageDelay    time.Duration `envconfig:"REDDIT_PAGE_DELAY" default:"1s"`
}

// IngestConfig controls the paginated window fetcher
type IngestConfig struct {
	// Date range: start inclusive, end exclusive (UTC calendar dates)
	StartDate string `envconfig:"INGEST_START_DATE" required:"true"`
	EndDate   string `envconfig:"INGEST_END_DATE" required:"true"`

	PageSize int `envconfig:"INGEST_PAGE_SIZE" default:"100"`
	PageCap  int `envconfig:"INGEST_PAGE_CAP" default:"100"`

	// 429 backoff: fixed cooldown, optional attempt cap (0 = unbounded,
	// bounded only by the page cap)
	RateLimitCooldown   time.Duration `envconfig:"INGEST_RATE_LIMIT_COOLDOWN" default:"30s"`
	RateLimitMaxRetries int           `envconfig:"INGEST_RATE_LIMIT_MAX_RETRIES" default:"0"`

	OutputDir string `envconfig:"INGEST_OUTPUT_DIR" default:"./data/raw"`
}

func (c IngestConfig) DateRange() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", c.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrInvalidInput, "invalid INGEST_START_DATE %q", c.StartDate)
	}
	end, err := time.ParseInLocation("2006-01-02", c.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrInvalidInput, "invalid INGEST_END_DATE %q", c.EndDate)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.Wrapf(errors.ErrInvalidInput, "end date %q not after start date %q", c.EndDate, c.StartDate)
	}
	return start, end, nil
}

// SentimentConfig holds normalization and blending parameters.
// Thresholds are deliberately configurable rather than hard-coded.
type SentimentConfig struct {
	MinVolumeReddit     int `envconfig:"SENTIMENT_MIN_VOLUME_REDDIT" default:"3"`
	MinVolumeStocktwits int `envconfig:"SENTIMENT_MIN_VOLUME_STOCKTWITS" default:"5"`
	MinVolumeNews       int `envconfig:"SENTIMENT_MIN_VOLUME_NEWS" default:"2"`
	MinVolumeYoutube    int `envconfig:"SENTIMENT_MIN_VOLUME_YOUTUBE" default:"10"`

	BaseConfidence float64 `envconfig:"SENTIMENT_BASE_CONFIDENCE" default:"0.7"`

	QualityMinSources    int     `envconfig:"SENTIMENT_QUALITY_MIN_SOURCES" default:"2"`
	QualityMinConfidence float64 `envconfig:"SENTIMENT_QUALITY_MIN_CONFIDENCE" default:"0.3"`

	DefaultRedditWeight     float64 `envconfig:"SENTIMENT_DEFAULT_REDDIT_WEIGHT" default:"0.6"`
	DefaultStocktwitsWeight float64 `envconfig:"SENTIMENT_DEFAULT_STOCKTWITS_WEIGHT" default:"0.4"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9091"`
}

// WorkerConfig contains intervals and batch limits for background workers
type WorkerConfig struct {
	// Ingestion workers
	RedditIngestInterval time.Duration `envconfig:"WORKER_REDDIT_INGEST_INTERVAL" default:"1h"`

	// Mention refresh
	MentionRefreshInterval time.Duration `envconfig:"WORKER_MENTION_REFRESH_INTERVAL" default:"30m"`
	MentionChunkSize       time.Duration `envconfig:"WORKER_MENTION_CHUNK_SIZE" default:"6h"`
	MentionLookback        time.Duration `envconfig:"WORKER_MENTION_LOOKBACK" default:"24h"`

	// Job queue
	QueueCycleInterval time.Duration `envconfig:"WORKER_QUEUE_CYCLE_INTERVAL" default:"1m"`
	QueueMaxJobs       int           `envconfig:"WORKER_QUEUE_MAX_JOBS" default:"5"`

	// Sentiment snapshots
	SnapshotInterval time.Duration `envconfig:"WORKER_SNAPSHOT_INTERVAL" default:"15m"`
	SnapshotWindow   time.Duration `envconfig:"WORKER_SNAPSHOT_WINDOW" default:"1h"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}

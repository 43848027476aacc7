package events

import (
	"context"
	"time"

	"hypewatch/internal/adapters/kafka"
	"hypewatch/internal/metrics"
	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

// WindowIngestedEvent is emitted after a daily window fetch finishes
type WindowIngestedEvent struct {
	SourceForum string    `json:"source_forum"`
	Day         string    `json:"day"`
	Items       int       `json:"items"`
	Partial     bool      `json:"partial"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// MentionsRefreshedEvent is emitted after a mention refresh completes
type MentionsRefreshedEvent struct {
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	CashtagRows     int64     `json:"cashtag_rows"`
	KeywordRows     int64     `json:"keyword_rows"`
	TotalRows       int64     `json:"total_rows"`
	ChunksCompleted int       `json:"chunks_completed"`
	ChunksTotal     int       `json:"chunks_total"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// JobFinishedEvent is emitted for every import job that reaches a terminal
// state
type JobFinishedEvent struct {
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	Scanned    int       `json:"scanned"`
	Queued     int       `json:"queued"`
	Analyzed   int       `json:"analyzed"`
	Inserted   int       `json:"inserted"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SnapshotWrittenEvent is emitted after a sentiment snapshot is stored
type SnapshotWrittenEvent struct {
	Symbol        string    `json:"symbol"`
	ActiveSources int       `json:"active_sources"`
	BlendedScore  *float64  `json:"blended_score,omitempty"`
	Velocity      *float64  `json:"velocity,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher publishes pipeline events to Kafka
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "event_publisher"),
	}
}

// PublishWindowIngested publishes a window ingested event keyed by source
func (p *Publisher) PublishWindowIngested(ctx context.Context, event WindowIngestedEvent) error {
	return p.publish(ctx, kafka.TopicWindowIngested, event.SourceForum, event)
}

// PublishMentionsRefreshed publishes a mentions refreshed event
func (p *Publisher) PublishMentionsRefreshed(ctx context.Context, event MentionsRefreshedEvent) error {
	key := event.WindowStart.UTC().Format(time.RFC3339)
	return p.publish(ctx, kafka.TopicMentionsRefreshed, key, event)
}

// PublishJobFinished publishes a job finished event keyed by run id
func (p *Publisher) PublishJobFinished(ctx context.Context, event JobFinishedEvent) error {
	return p.publish(ctx, kafka.TopicJobFinished, event.RunID, event)
}

// PublishSnapshotWritten publishes a snapshot written event keyed by symbol
func (p *Publisher) PublishSnapshotWritten(ctx context.Context, event SnapshotWrittenEvent) error {
	return p.publish(ctx, kafka.TopicSnapshotWritten, event.Symbol, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		metrics.KafkaMessages.WithLabelValues(topic, "error").Inc()
		p.log.Error("Failed to publish event",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return errors.Wrap(err, "send to kafka")
	}

	metrics.KafkaMessages.WithLabelValues(topic, "success").Inc()
	return nil
}

package kafka

// Topic definitions for Kafka event streaming
const (
	// Ingestion events
	TopicWindowIngested = "ingest.windows"

	// Mention pipeline events
	TopicMentionsRefreshed = "mentions.refreshed"

	// Job queue events
	TopicJobFinished = "jobs.finished"

	// Sentiment events
	TopicSnapshotWritten = "sentiment.snapshots"
)

package ingest

import (
	"context"
	"encoding/json"
	"time"

	"hypewatch/internal/domain/job"
	"hypewatch/internal/domain/listing"
	"hypewatch/pkg/errors"
)

// FilterParams is the JSON payload carried by an import job
type FilterParams struct {
	SourceForum string `json:"source_forum"`
	Day         string `json:"day"` // UTC calendar date, 2006-01-02
}

// Compile-time check
var _ job.Processor = (*Processor)(nil)

// Processor executes import jobs by ingesting the window named in the job's
// filter params
type Processor struct {
	svc *Service
}

// NewProcessor creates a job processor over the ingest service
func NewProcessor(svc *Service) *Processor {
	return &Processor{svc: svc}
}

// Process ingests one window for the claimed job
func (p *Processor) Process(ctx context.Context, j *job.ImportJob) (job.Counters, error) {
	var params FilterParams
	if err := json.Unmarshal([]byte(j.FilterParams), &params); err != nil {
		return job.Counters{}, errors.Wrapf(errors.ErrInvalidInput, "run %s: malformed filter params: %v", j.RunID, err)
	}
	if params.SourceForum == "" {
		return job.Counters{}, errors.Wrapf(errors.ErrInvalidInput, "run %s: filter params missing source_forum", j.RunID)
	}

	day, err := time.ParseInLocation("2006-01-02", params.Day, time.UTC)
	if err != nil {
		return job.Counters{}, errors.Wrapf(errors.ErrInvalidInput, "run %s: invalid day %q", j.RunID, params.Day)
	}

	window := listing.NewWindow(params.SourceForum, day)
	result, err := p.svc.IngestWindowLimit(ctx, window, j.MaxItems)
	if err != nil {
		return job.Counters{}, err
	}

	return job.Counters{
		Scanned:  result.Items,
		Queued:   result.Items,
		Inserted: result.Items,
	}, nil
}

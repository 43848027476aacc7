package job

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypewatch/pkg/errors"
)

// fakeRepo is an in-memory job repository with FIFO claiming
type fakeRepo struct {
	pending  []*ImportJob
	done     []uuid.UUID
	errored  map[uuid.UUID]string
	claimErr error
	markErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{errored: make(map[uuid.UUID]string)}
}

func (r *fakeRepo) Create(ctx context.Context, j *ImportJob) error {
	for _, existing := range r.pending {
		if existing.RunID == j.RunID {
			return errors.Wrapf(errors.ErrAlreadyExists, "import job %s", j.RunID)
		}
	}
	r.pending = append(r.pending, j)
	return nil
}

func (r *fakeRepo) ClaimNextPending(ctx context.Context) (*ImportJob, error) {
	if r.claimErr != nil {
		return nil, r.claimErr
	}
	if len(r.pending) == 0 {
		return nil, errors.Wrap(errors.ErrNotFound, "no pending import jobs")
	}
	claimed := r.pending[0]
	r.pending = r.pending[1:]
	claimed.Status = StatusProcessing
	return claimed, nil
}

func (r *fakeRepo) MarkDone(ctx context.Context, id uuid.UUID, counters Counters) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.done = append(r.done, id)
	return nil
}

func (r *fakeRepo) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	r.errored[id] = message
	return nil
}

func (r *fakeRepo) GetByRunID(ctx context.Context, runID string) (*ImportJob, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "import job %s", runID)
}

// scriptedProcessor returns per-run-id results
type scriptedProcessor struct {
	fail      map[string]error
	processed []string
}

func (p *scriptedProcessor) Process(ctx context.Context, j *ImportJob) (Counters, error) {
	p.processed = append(p.processed, j.RunID)
	if err, ok := p.fail[j.RunID]; ok {
		return Counters{}, err
	}
	return Counters{Scanned: 10, Queued: 10, Inserted: 10}, nil
}

func enqueue(t *testing.T, q *Queue, runID string) *ImportJob {
	t.Helper()
	j, err := q.Enqueue(context.Background(), EnqueueParams{
		RunID:        runID,
		SourceURL:    "https://oauth.reddit.com/r/wallstreetbets/new",
		FilterParams: `{"source_forum":"wallstreetbets","day":"2026-08-01"}`,
	})
	require.NoError(t, err)
	return j
}

func TestEnqueue_PendingAndImmediate(t *testing.T) {
	repo := newFakeRepo()
	q := NewQueue(repo, &scriptedProcessor{})

	j := enqueue(t, q, "run-1")

	assert.Equal(t, StatusPending, j.Status)
	assert.NotEqual(t, uuid.Nil, j.ID)
	require.Len(t, repo.pending, 1)
	// Enqueue is a handoff: nothing processed yet
	assert.Empty(t, repo.done)
}

func TestEnqueue_Validation(t *testing.T) {
	q := NewQueue(newFakeRepo(), &scriptedProcessor{})

	_, err := q.Enqueue(context.Background(), EnqueueParams{SourceURL: "x"})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput), "missing run id")

	_, err = q.Enqueue(context.Background(), EnqueueParams{RunID: "r"})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput), "missing source url")

	_, err = q.Enqueue(context.Background(), EnqueueParams{RunID: "r", SourceURL: "x", BatchSize: -1})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput), "negative batch size")
}

func TestRunCycle_DrainsQueue(t *testing.T) {
	repo := newFakeRepo()
	proc := &scriptedProcessor{}
	q := NewQueue(repo, proc)

	enqueue(t, q, "run-1")
	enqueue(t, q, "run-2")

	outcomes, err := q.RunCycle(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{"run-1", "run-2"}, proc.processed)
	assert.Len(t, repo.done, 2)
	for _, outcome := range outcomes {
		assert.Equal(t, StatusDone, outcome.Job.Status)
		assert.NoError(t, outcome.Err)
		assert.Equal(t, 10, outcome.Job.InsertedCount)
	}
}

func TestRunCycle_StopsOnFirstError(t *testing.T) {
	repo := newFakeRepo()
	proc := &scriptedProcessor{fail: map[string]error{"run-1": errors.ErrUpstream}}
	q := NewQueue(repo, proc)

	enqueue(t, q, "run-1")
	enqueue(t, q, "run-2")
	enqueue(t, q, "run-3")

	outcomes, err := q.RunCycle(context.Background(), 5)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrJobFailed))

	// The failure ends the cycle: jobs 2 and 3 were never claimed
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusError, outcomes[0].Job.Status)
	assert.Equal(t, []string{"run-1"}, proc.processed)
	assert.Len(t, repo.pending, 2)

	// The failed job was marked errored
	assert.Contains(t, repo.errored, outcomes[0].Job.ID)
}

func TestRunCycle_RespectsMaxJobs(t *testing.T) {
	repo := newFakeRepo()
	proc := &scriptedProcessor{}
	q := NewQueue(repo, proc)

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		enqueue(t, q, id)
	}

	outcomes, err := q.RunCycle(context.Background(), 2)
	require.NoError(t, err)

	assert.Len(t, outcomes, 2)
	assert.Len(t, repo.pending, 1)
}

func TestRunCycle_EmptyQueue(t *testing.T) {
	q := NewQueue(newFakeRepo(), &scriptedProcessor{})

	outcomes, err := q.RunCycle(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestRunCycle_InvalidMaxJobs(t *testing.T) {
	q := NewQueue(newFakeRepo(), &scriptedProcessor{})

	_, err := q.RunCycle(context.Background(), 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusError.Terminal())
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/news-comb/app/pipeline"
)

const DefaultMaxRetries = 3

// Trigger records what started an ingestion task.
type Trigger string

const (
	// TriggerSeed fills an empty article store before the server starts.
	TriggerSeed Trigger = "seed"
	// TriggerSchedule is a periodic cron run.
	TriggerSchedule Trigger = "schedule"
)

// IngestTask is one ingestion cycle together with its retry state. Seed tasks
// may walk every search page, scheduled tasks read only the first one.
type IngestTask struct {
	ID         string
	Trigger    Trigger
	ManyPages  bool
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time

	// Outcome of the latest attempt. A strict cycle that aborts still
	// reports what it got through.
	Stats   pipeline.CycleStats
	LastErr error

	runner CycleRunner
}

// NewSeedTask builds the one-off task run against an empty store. It is never retried.
func NewSeedTask(runner CycleRunner, manyPages bool) *IngestTask {
	return newIngestTask(runner, TriggerSeed, manyPages, 0)
}

// NewScheduledTask builds a single-page cycle for the background workers.
func NewScheduledTask(runner CycleRunner, maxRetries int) *IngestTask {
	return newIngestTask(runner, TriggerSchedule, false, maxRetries)
}

func newIngestTask(runner CycleRunner, trigger Trigger, manyPages bool, maxRetries int) *IngestTask {
	return &IngestTask{
		ID:         uuid.NewString(),
		Trigger:    trigger,
		ManyPages:  manyPages,
		MaxRetries: maxRetries,
		runner:     runner,
	}
}

func (t *IngestTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stats, err := t.runner.RunCycle(ctx, t.ManyPages)
	t.Stats = stats
	t.LastErr = err
	if err != nil {
		return fmt.Errorf("failed to run %s ingestion cycle: %w", t.Trigger, err)
	}

	slog.Info("Task completed", t.logAttrs("duration", t.Duration())...)

	return nil
}

func (t *IngestTask) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *IngestTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func (t *IngestTask) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// NextRetry counts one more retry and returns the delay before it: base,
// doubled per retry, capped at limit.
func (t *IngestTask) NextRetry(base, limit time.Duration) time.Duration {
	t.RetryCount++

	delay := base << uint(t.RetryCount-1)
	if delay <= 0 || delay > limit {
		delay = limit
	}
	return delay
}

func (t *IngestTask) logAttrs(extra ...any) []any {
	attrs := []any{
		"id", t.ID,
		"trigger", string(t.Trigger),
		"many_pages", t.ManyPages,
		"retry_count", t.RetryCount,
		"candidates", t.Stats.Candidates,
		"stored", t.Stats.Stored,
		"failed", t.Stats.Failed,
	}
	return append(attrs, extra...)
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"
)

const (
	defaultTaskTimeout = 30 * time.Minute
	maxRetryDelay      = 30 * time.Second
	taskQueueSize      = 300
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Options struct {
	Schedule      string // cron spec, e.g. "@every 1h40m0s"
	WorkerCount   int
	MaxRetries    int
	SeedManyPages bool
	TaskTimeout   time.Duration
	// Hub receives tasks that fail for good. Defaults to the global hub.
	Hub *sentry.Hub
}

type Scheduler struct {
	runner        CycleRunner
	articles      ArticleCounter
	cron          *cron.Cron
	schedule      string
	workerCount   int
	maxRetries    int
	seedManyPages bool
	taskTimeout   time.Duration
	retryDelay    time.Duration
	hub           *sentry.Hub
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan *IngestTask
}

func NewScheduler(runner CycleRunner, articles ArticleCounter, opts Options) (*Scheduler, error) {
	if opts.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", opts.WorkerCount)
	}

	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = defaultTaskTimeout
	}

	if opts.Hub == nil {
		opts.Hub = sentry.CurrentHub()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		runner:        runner,
		articles:      articles,
		cron:          cron.New(),
		schedule:      opts.Schedule,
		workerCount:   opts.WorkerCount,
		maxRetries:    opts.MaxRetries,
		seedManyPages: opts.SeedManyPages,
		taskTimeout:   opts.TaskTimeout,
		retryDelay:    time.Second,
		hub:           opts.Hub,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan *IngestTask, taskQueueSize),
	}

	if _, err := s.cron.AddFunc(opts.Schedule, s.enqueueIngest); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to add ingestion schedule %q: %w", opts.Schedule, err)
	}

	return s, nil
}

// Seed runs one ingestion cycle synchronously when the article store is empty.
// It is meant to be called before the scheduler starts.
func (s *Scheduler) Seed(ctx context.Context) error {
	count, err := s.articles.GetArticleCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to check article count: %w", err)
	}

	if count > 0 {
		slog.Debug("Article store not empty, skipping seed", "articles", count)
		return nil
	}

	slog.Info("Article store empty, seeding", "many_pages", s.seedManyPages)

	task := NewSeedTask(s.runner, s.seedManyPages)
	task.Start()

	if err := task.Execute(ctx); err != nil {
		if ctx.Err() == nil {
			s.report(task, err)
		}
		return fmt.Errorf("failed to seed article store: %w", err)
	}

	return nil
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.cron.Start()

	slog.Info("Scheduler started", "schedule", s.schedule, "workers", s.workerCount)
}

// Stop halts the cron trigger, cancels running tasks and waits for every worker
// and pending retry to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task *IngestTask) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueIngest() {
	task := NewScheduledTask(s.runner, s.maxRetries)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue ingestion task", "error", err)
		return
	}
	slog.Debug("Ingestion task enqueued", "id", task.ID)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task *IngestTask) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", task.logAttrs("worker_id", workerID, "error", err)...)

	if s.ctx.Err() != nil {
		return
	}

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", task.logAttrs("max_retries", task.MaxRetries, "last_error", err)...)
		s.report(task, err)
		return
	}

	retryDelay := task.NextRetry(s.retryDelay, maxRetryDelay)

	slog.Warn("Task retry scheduled", task.logAttrs("max_retries", task.MaxRetries, "delay", retryDelay.String())...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "id", task.ID)
		case <-time.After(retryDelay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", task.logAttrs("error", retryErr)...)
			}
		}
	}()
}

// report sends a task that will not run again to Sentry, tagged with what
// triggered it and what its last cycle got through.
func (s *Scheduler) report(task *IngestTask, err error) {
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("task_trigger", string(task.Trigger))
		scope.SetTag("task_id", task.ID)
		scope.SetContext("ingestion", sentry.Context{
			"many_pages":  task.ManyPages,
			"retry_count": task.RetryCount,
			"candidates":  task.Stats.Candidates,
			"stored":      task.Stats.Stored,
			"failed":      task.Stats.Failed,
		})
		s.hub.CaptureException(err)
	})
}

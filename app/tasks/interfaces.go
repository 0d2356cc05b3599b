package tasks

import (
	"context"

	"github.com/lysyi3m/news-comb/app/pipeline"
)

// TaskSchedulerInterface is what the main application needs from the scheduler:
// a one-off seeding run before serving, then periodic ingestion in the background.
//
//	scheduler, err := NewScheduler(ingestor, articleRepo, options)
//	if err := scheduler.Seed(ctx); err != nil { ... }
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Seed(ctx context.Context) error
	Start()
	Stop()
	EnqueueTask(task *IngestTask) error
}

type CycleRunner interface {
	RunCycle(ctx context.Context, manyPages bool) (pipeline.CycleStats, error)
}

type ArticleCounter interface {
	GetArticleCount(ctx context.Context) (int, error)
}

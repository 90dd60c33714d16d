package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

type CheckJobsUseCase struct {
	queue   ports.JobQueue
	checker ports.PaperChecker
	now     func() time.Time
}

func NewCheckJobsUseCase(queue ports.JobQueue, checker ports.PaperChecker) *CheckJobsUseCase {
	return &CheckJobsUseCase{queue: queue, checker: checker, now: time.Now}
}

// Submit enqueues one job per item and returns the job ids in item order.
func (uc *CheckJobsUseCase) Submit(ctx context.Context, items []domain.CheckItem) ([]string, error) {
	if len(items) == 0 {
		return nil, domain.InvalidInputf("submit checks", "no items")
	}
	for i, item := range items {
		if strings.TrimSpace(item.Abstract) == "" {
			return nil, domain.InvalidInputf("submit checks", "item %d has an empty abstract", i)
		}
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		job := domain.CheckJob{
			JobID:      uuid.NewString(),
			Abstract:   item.Abstract,
			Metadata:   item.Metadata,
			EnqueuedAt: uc.now().UTC(),
		}
		if err := uc.queue.PublishCheckJob(ctx, job); err != nil {
			return ids, fmt.Errorf("publish check job: %w", err)
		}
		ids = append(ids, job.JobID)
	}
	return ids, nil
}

// Handle runs a queued job. The job id is carried into the result metadata.
func (uc *CheckJobsUseCase) Handle(ctx context.Context, job domain.CheckJob) error {
	ctx = WithJobID(ctx, job.JobID)
	callbacks := domain.CheckCallbacks{
		Progress: func(step string, fraction float64) {
			slog.Debug("check_job_progress", "job_id", job.JobID, "step", step, "fraction", fraction)
		},
	}
	if _, err := uc.checker.CheckAbstract(ctx, job.Abstract, job.Metadata, callbacks); err != nil {
		return fmt.Errorf("check job %s: %w", job.JobID, err)
	}
	return nil
}

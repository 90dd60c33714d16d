package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

type fakeQueue struct {
	jobs []domain.CheckJob
	err  error
}

func (q *fakeQueue) PublishCheckJob(_ context.Context, job domain.CheckJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) SubscribeCheckJobs(context.Context, func(context.Context, domain.CheckJob) error) error {
	return nil
}

func TestSubmitEnqueuesOneJobPerItem(t *testing.T) {
	queue := &fakeQueue{}
	uc := NewCheckJobsUseCase(queue, nil)

	ids, err := uc.Submit(context.Background(), []domain.CheckItem{
		{Abstract: testAbstract, Metadata: domain.SourceMetadata{Title: "a"}},
		{Abstract: testAbstract, Metadata: domain.SourceMetadata{Title: "b"}},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(ids) != 2 || ids[0] == ids[1] || ids[0] == "" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if queue.jobs[1].JobID != ids[1] || queue.jobs[1].Metadata.Title != "b" || queue.jobs[0].EnqueuedAt.IsZero() {
		t.Fatalf("unexpected job %+v", queue.jobs[1])
	}
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	uc := NewCheckJobsUseCase(&fakeQueue{}, nil)
	if _, err := uc.Submit(context.Background(), nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := uc.Submit(context.Background(), []domain.CheckItem{{Abstract: " "}}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSubmitPropagatesQueueError(t *testing.T) {
	uc := NewCheckJobsUseCase(&fakeQueue{err: errors.New("nats down")}, nil)
	if _, err := uc.Submit(context.Background(), []domain.CheckItem{{Abstract: testAbstract}}); err == nil {
		t.Fatalf("expected queue error")
	}
}

func TestHandleRunsCheckWithJobID(t *testing.T) {
	f := newFixture("Statins reduce mortality by 20%")
	uc := NewCheckJobsUseCase(&fakeQueue{}, f.service())

	if err := uc.Handle(context.Background(), domain.CheckJob{JobID: "job-1", Abstract: testAbstract}); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(f.store.saved) != 1 || f.store.saved[0].Metadata.JobID != "job-1" {
		t.Fatalf("job id not persisted")
	}

	if err := uc.Handle(context.Background(), domain.CheckJob{JobID: "job-2", Abstract: "short"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

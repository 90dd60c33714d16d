package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PaperCheckQueries is the read side over persisted checks.
type PaperCheckQueries struct {
	store ports.PaperCheckStore
}

func NewPaperCheckQueries(store ports.PaperCheckStore) *PaperCheckQueries {
	return &PaperCheckQueries{store: store}
}

func (q *PaperCheckQueries) GetByID(ctx context.Context, id string) (*domain.PaperCheckResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.InvalidInputf("get paper check", "empty id")
	}
	return q.store.GetByID(ctx, id)
}

func (q *PaperCheckQueries) List(ctx context.Context, limit, offset int) ([]domain.PaperCheckSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)
	return q.store.List(ctx, limit, offset)
}

func (q *PaperCheckQueries) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.InvalidInputf("delete paper check", "empty id")
	}
	return q.store.Delete(ctx, id)
}

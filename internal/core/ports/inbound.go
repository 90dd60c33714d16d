package ports

import (
	"context"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// PaperChecker is the inbound contract for running claim checks.
type PaperChecker interface {
	CheckAbstract(ctx context.Context, abstract string, meta domain.SourceMetadata, callbacks domain.CheckCallbacks) (*domain.PaperCheckResult, error)
	CheckAbstractsBatch(ctx context.Context, items []domain.CheckItem, progress domain.ProgressFunc) ([]*domain.PaperCheckResult, error)
	TestConnection(ctx context.Context) domain.ConnectionReport
}

// PaperCheckReader is the inbound read model over persisted checks.
type PaperCheckReader interface {
	GetByID(ctx context.Context, id string) (*domain.PaperCheckResult, error)
	List(ctx context.Context, limit, offset int) ([]domain.PaperCheckSummary, error)
	Delete(ctx context.Context, id string) error
}

// JobSubmitter enqueues checks for asynchronous processing.
type JobSubmitter interface {
	Submit(ctx context.Context, items []domain.CheckItem) ([]string, error)
}

// CorpusIngestor loads literature records for later search.
type CorpusIngestor interface {
	Ingest(ctx context.Context, docs []domain.Document) (int, error)
}

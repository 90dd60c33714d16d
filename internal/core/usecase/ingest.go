package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

const ingestBatchSize = 64

type IngestCorpusUseCase struct {
	indexer ports.LiteratureIndexer
	cleaner func(string) string
}

// NewIngestCorpusUseCase builds a corpus loader. cleaner, when set, normalizes
// titles and abstracts (for example stripping markup) before validation.
func NewIngestCorpusUseCase(indexer ports.LiteratureIndexer, cleaner func(string) string) *IngestCorpusUseCase {
	if cleaner == nil {
		cleaner = strings.TrimSpace
	}
	return &IngestCorpusUseCase{indexer: indexer, cleaner: cleaner}
}

// Ingest validates and indexes docs in batches. Invalid records are skipped;
// the count of indexed records is returned.
func (uc *IngestCorpusUseCase) Ingest(ctx context.Context, docs []domain.Document) (int, error) {
	valid := make([]domain.Document, 0, len(docs))
	for i, doc := range docs {
		doc.Title = uc.cleaner(doc.Title)
		doc.Abstract = uc.cleaner(doc.Abstract)
		if strings.TrimSpace(doc.ID) == "" {
			doc.ID = uuid.NewString()
		}
		if err := doc.Validate(); err != nil {
			slog.Warn("corpus_record_skipped", "index", i, "error", err)
			continue
		}
		valid = append(valid, doc)
	}

	indexed := 0
	for start := 0; start < len(valid); start += ingestBatchSize {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		end := min(start+ingestBatchSize, len(valid))
		if err := uc.indexer.Index(ctx, valid[start:end]); err != nil {
			return indexed, fmt.Errorf("index corpus batch %d-%d: %w", start, end, err)
		}
		indexed = end
	}
	return indexed, nil
}

package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/core/structured"
)

type passagePayload struct {
	Passage   string  `json:"passage"`
	Relevance float64 `json:"relevance" validate:"min=0,max=1"`
}

// CitationExtractor asks for one verbatim passage per eligible document and
// keeps only passages that really occur in the document abstract.
type CitationExtractor struct {
	gen         ports.TextGenerator
	temperature float64
	concurrency int
}

func NewCitationExtractor(gen ports.TextGenerator, temperature float64, concurrency int) *CitationExtractor {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &CitationExtractor{gen: gen, temperature: temperature, concurrency: concurrency}
}

func (e *CitationExtractor) Extract(
	ctx context.Context,
	question string,
	docs []domain.ScoredDocument,
	scoreThreshold int,
	minRelevance float64,
) ([]domain.CitationCandidate, error) {
	eligible := make([]domain.ScoredDocument, 0, len(docs))
	for _, d := range docs {
		if d.Score >= scoreThreshold {
			eligible = append(eligible, d)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	found := make([]*domain.CitationCandidate, len(eligible))
	errs := make([]error, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, doc := range eligible {
		g.Go(func() error {
			candidate, err := e.extractOne(gctx, question, doc.Document, minRelevance)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("passage_extraction_failed", "doc_id", doc.DocID, "error", err)
				errs[i] = err
				return nil
			}
			found[i] = candidate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.CitationCandidate, 0, len(found))
	failed := 0
	for i, c := range found {
		if errs[i] != nil {
			failed++
			continue
		}
		if c != nil {
			out = append(out, *c)
		}
	}
	if failed == len(eligible) {
		return nil, fmt.Errorf("extract citations: %w", errors.Join(errs...))
	}
	return out, nil
}

func (e *CitationExtractor) extractOne(ctx context.Context, question string, doc domain.Document, minRelevance float64) (*domain.CitationCandidate, error) {
	raw, err := e.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      buildPassagePrompt(question, doc),
		Temperature: e.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	var payload passagePayload
	if err := structured.Decode(raw, &payload); err != nil {
		return nil, err
	}

	passage := strings.Trim(strings.TrimSpace(payload.Passage), `"`)
	if passage == "" || payload.Relevance < minRelevance {
		return nil, nil
	}
	if !containsVerbatim(doc.Abstract, passage) {
		slog.Warn("passage_not_verbatim", "doc_id", doc.ID)
		return nil, nil
	}
	return &domain.CitationCandidate{
		DocumentID: doc.ID,
		Passage:    passage,
		Relevance:  payload.Relevance,
	}, nil
}

// containsVerbatim compares with whitespace collapsed and case folded.
func containsVerbatim(source, passage string) bool {
	return strings.Contains(
		strings.ToLower(collapseSpace(source)),
		strings.ToLower(collapseSpace(passage)),
	)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (e *CitationExtractor) Ping(ctx context.Context) error {
	if p, ok := e.gen.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

// ScoringOutcome is the result of scoring one statement's candidate set.
type ScoringOutcome struct {
	Fetched      int
	Scored       int
	Retained     []domain.ScoredDocument
	EarlyStopped bool
}

// CitationOutcome holds the citations kept for a report and how many were dropped.
type CitationOutcome struct {
	Citations []domain.ExtractedCitation
	Dropped   int
}

// EvidenceScorer fetches candidates, scores them in batches with early
// stopping, and extracts citations from the strongest documents.
type EvidenceScorer struct {
	fetcher   ports.DocumentFetcher
	scorer    ports.RelevanceScorer
	citations ports.CitationExtractor
	cfg       domain.ScoringConfig
}

func NewEvidenceScorer(
	fetcher ports.DocumentFetcher,
	scorer ports.RelevanceScorer,
	citations ports.CitationExtractor,
	cfg domain.ScoringConfig,
) *EvidenceScorer {
	return &EvidenceScorer{
		fetcher:   fetcher,
		scorer:    scorer,
		citations: citations,
		cfg:       cfg,
	}
}

func (s *EvidenceScorer) Score(ctx context.Context, counter domain.CounterStatement, results domain.SearchResults) (ScoringOutcome, error) {
	out := ScoringOutcome{Retained: []domain.ScoredDocument{}}
	if len(results.DeduplicatedDocs) == 0 {
		return out, nil
	}

	records, err := s.fetcher.FetchByIDs(ctx, results.DeduplicatedDocs)
	if err != nil {
		return out, fmt.Errorf("fetch documents: %w", err)
	}

	candidates := make([]domain.Document, 0, len(records))
	for _, id := range results.DeduplicatedDocs {
		if doc, ok := records[id]; ok {
			candidates = append(candidates, doc)
		}
	}
	out.Fetched = len(candidates)
	if len(candidates) < len(results.DeduplicatedDocs) {
		slog.Info("documents_missing",
			"requested", len(results.DeduplicatedDocs),
			"fetched", len(candidates),
		)
	}

	question := buildScoringQuestion(counter)
	for start := 0; start < len(candidates); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		end := min(start+s.cfg.BatchSize, len(candidates))

		batch := s.scoreBatch(ctx, question, candidates[start:end], results)
		for _, sd := range batch {
			if sd == nil {
				continue
			}
			out.Scored++
			if sd.SupportsCounter {
				out.Retained = append(out.Retained, *sd)
			}
		}

		if len(out.Retained) >= s.cfg.EarlyStopCount && end < len(candidates) {
			out.EarlyStopped = true
			slog.Info("scoring_early_stop",
				"retained", len(out.Retained),
				"skipped", len(candidates)-end,
			)
			break
		}
	}

	sort.SliceStable(out.Retained, func(i, j int) bool {
		return out.Retained[i].Score > out.Retained[j].Score
	})
	return out, nil
}

// scoreBatch evaluates documents concurrently and returns results in input
// order. Failed documents are nil.
func (s *EvidenceScorer) scoreBatch(ctx context.Context, question string, docs []domain.Document, results domain.SearchResults) []*domain.ScoredDocument {
	scored := make([]*domain.ScoredDocument, len(docs))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			assessment, err := s.scorer.Evaluate(ctx, question, doc)
			if err != nil {
				slog.Warn("document_scoring_failed", "doc_id", doc.ID, "error", err)
				return nil
			}
			sd, err := domain.NewScoredDocument(doc, assessment, s.cfg.Threshold, results.FoundBy(doc.ID))
			if err != nil {
				slog.Warn("document_scoring_failed", "doc_id", doc.ID, "error", err)
				return nil
			}
			scored[i] = &sd
			return nil
		})
	}
	_ = g.Wait()
	return scored
}

// ExtractCitations asks the citation service for passages from documents at or
// above the citation score and keeps only those bound to an eligible document.
func (s *EvidenceScorer) ExtractCitations(ctx context.Context, counter domain.CounterStatement, retained []domain.ScoredDocument) (CitationOutcome, error) {
	out := CitationOutcome{Citations: []domain.ExtractedCitation{}}

	eligible := make([]domain.ScoredDocument, 0, len(retained))
	byID := make(map[string]domain.ScoredDocument, len(retained))
	for _, sd := range retained {
		if sd.Score >= s.cfg.MinCitationScore {
			eligible = append(eligible, sd)
			byID[sd.DocID] = sd
		}
	}
	if len(eligible) == 0 {
		return out, nil
	}

	candidates, err := s.citations.Extract(ctx, buildScoringQuestion(counter), eligible, s.cfg.MinCitationScore, s.cfg.MinRelevance)
	if err != nil {
		if domain.IsKind(err, domain.ErrValidation) {
			slog.Warn("citation_extraction_failed", "error", err)
			return out, nil
		}
		return out, fmt.Errorf("extract citations: %w", err)
	}

	for _, candidate := range candidates {
		if len(out.Citations) >= s.cfg.MaxCitations {
			break
		}
		sd, ok := byID[candidate.DocumentID]
		if !ok {
			out.Dropped++
			slog.Warn("citation_dropped",
				"doc_id", candidate.DocumentID,
				"error", domain.WrapError(domain.ErrReferenceIntegrity, "bind citation", fmt.Errorf("document %q not in eligible set", candidate.DocumentID)),
			)
			continue
		}
		if strings.TrimSpace(candidate.Passage) == "" {
			out.Dropped++
			slog.Warn("citation_dropped", "doc_id", candidate.DocumentID, "reason", "empty_passage")
			continue
		}
		out.Citations = append(out.Citations, domain.NewExtractedCitation(sd, candidate.Passage, len(out.Citations)+1))
	}
	return out, nil
}

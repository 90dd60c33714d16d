package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

// ReportSynthesizer turns citations into a validated counter-evidence narrative.
type ReportSynthesizer struct {
	gen              ports.TextGenerator
	cfg              domain.ReportConfig
	minCitationScore int
	now              func() time.Time
}

func NewReportSynthesizer(gen ports.TextGenerator, cfg domain.ReportConfig, minCitationScore int) *ReportSynthesizer {
	return &ReportSynthesizer{
		gen:              gen,
		cfg:              cfg,
		minCitationScore: minCitationScore,
		now:              time.Now,
	}
}

func (s *ReportSynthesizer) Synthesize(
	ctx context.Context,
	counter domain.CounterStatement,
	citations []domain.ExtractedCitation,
	stats domain.SearchStats,
) (domain.CounterReport, error) {
	if len(citations) == 0 {
		return s.emptyReport(counter, stats), nil
	}

	raw, err := s.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      buildReportPrompt(counter, citations),
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return domain.CounterReport{}, fmt.Errorf("generate report: %w", err)
	}

	check, err := validateReport(raw, s.cfg, len(citations))
	if err != nil {
		return domain.CounterReport{}, err
	}
	for _, w := range check.Warnings {
		slog.Warn("report_validation_warning", "statement_order", counter.Original.Order, "warning", w)
	}

	report := domain.CounterReport{
		Summary:      check.Text,
		NumCitations: len(citations),
		Citations:    citations,
		SearchStats:  stats,
		Metadata:     generationMetadata(s.gen, s.cfg.Temperature, s.now()),
	}
	if err := report.Validate(); err != nil {
		return domain.CounterReport{}, err
	}
	return report, nil
}

func (s *ReportSynthesizer) emptyReport(counter domain.CounterStatement, stats domain.SearchStats) domain.CounterReport {
	summary := fmt.Sprintf(
		"No counter-evidence was found for the claim %q. "+
			"The literature search returned %d unique candidate documents (semantic: %d, HyDE: %d, keyword: %d), "+
			"of which %d were retrieved and %d were scored. "+
			"%d documents reached the relevance threshold, but none cleared the citation score of %d/5 with an extractable supporting passage.",
		counter.Original.Text,
		stats.DeduplicatedCount,
		stats.SemanticCount,
		stats.HyDECount,
		stats.KeywordCount,
		stats.FetchedCount,
		stats.ScoredCount,
		stats.AboveThresholdCount,
		s.minCitationScore,
	)
	return domain.CounterReport{
		Summary:      summary,
		NumCitations: 0,
		Citations:    []domain.ExtractedCitation{},
		SearchStats:  stats,
		Metadata:     domain.GenerationMetadata{GeneratedAt: s.now().UTC()},
	}
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

const (
	stepInit           = "init"
	stepExtracting     = "extracting"
	stepCounter        = "counter_statement"
	stepHyDE           = "hyde"
	stepSearching      = "searching"
	stepScoring        = "scoring"
	stepCitations      = "citation_extraction"
	stepReport         = "report_synthesis"
	stepVerdict        = "verdict_analysis"
	stepAggregating    = "aggregating"
	stepPersisting     = "persisting"
	stepDone           = "done"
	statementSubSteps  = 7
	statementRangeLow  = 0.1
	statementRangeHigh = 0.9
	previewLength      = 200
)

// PaperCheckDeps are the collaborators of a PaperCheckService. Store, Graph,
// Events and Observer are optional.
type PaperCheckDeps struct {
	Generator ports.TextGenerator
	Searcher  ports.LiteratureSearcher
	Fetcher   ports.DocumentFetcher
	Scorer    ports.RelevanceScorer
	Citations ports.CitationExtractor
	Store     ports.PaperCheckStore
	Graph     ports.EvidenceGraph
	Events    ports.EventPublisher
	Observer  ports.CheckObserver
}

// PaperCheckService runs the claim-to-verdict pipeline for abstracts.
type PaperCheckService struct {
	cfg  domain.PaperCheckConfig
	deps PaperCheckDeps

	extractor *StatementExtractor
	counter   *CounterStatementGenerator
	hyde      *HyDEGenerator
	search    *SearchCoordinator
	evidence  *EvidenceScorer
	synth     *ReportSynthesizer
	verdicts  *VerdictAnalyzer
	observer  ports.CheckObserver
	pingers   []namedPinger
	now       func() time.Time
}

func NewPaperCheckService(cfg domain.PaperCheckConfig, deps PaperCheckDeps) *PaperCheckService {
	cfg = cfg.Normalize()
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &PaperCheckService{
		cfg:       cfg,
		deps:      deps,
		extractor: NewStatementExtractor(deps.Generator, cfg.Extraction),
		counter:   NewCounterStatementGenerator(deps.Generator, cfg.Counter),
		hyde:      NewHyDEGenerator(deps.Generator, cfg.HyDE),
		search:    NewSearchCoordinator(deps.Searcher, cfg.Search),
		evidence:  NewEvidenceScorer(deps.Fetcher, deps.Scorer, deps.Citations, cfg.Scoring),
		synth:     NewReportSynthesizer(deps.Generator, cfg.Report, cfg.Scoring.MinCitationScore),
		verdicts:  NewVerdictAnalyzer(deps.Generator, cfg.Verdict),
		observer:  observer,
		pingers:   collectPingers(deps),
		now:       time.Now,
	}
}

func (s *PaperCheckService) CheckAbstract(
	ctx context.Context,
	abstract string,
	meta domain.SourceMetadata,
	callbacks domain.CheckCallbacks,
) (*domain.PaperCheckResult, error) {
	started := s.now()
	s.observer.StartCheck()
	result, err := s.check(ctx, abstract, meta, callbacks, started)
	s.observer.FinishCheck(s.now().Sub(started), err)
	if err != nil {
		slog.Warn("paper_check_failed", "source", meta.Ref(), "error", err)
		return nil, err
	}
	slog.Info("paper_check_completed",
		"check_id", result.Metadata.CheckID,
		"source", meta.Ref(),
		"statements", len(result.Statements),
		"duration_ms", result.Metadata.DurationMS,
	)
	return result, nil
}

func (s *PaperCheckService) check(
	ctx context.Context,
	abstract string,
	meta domain.SourceMetadata,
	callbacks domain.CheckCallbacks,
	started time.Time,
) (*domain.PaperCheckResult, error) {
	progress := &progressTracker{fn: callbacks.Progress}
	emit := dataEmitter(callbacks.Data)

	if err := s.extractor.CheckAbstract(abstract); err != nil {
		return nil, err
	}
	progress.report(stepInit, 0)

	statements, err := timedStage(s, stepExtracting, func() ([]domain.Statement, error) {
		return s.extractor.Extract(ctx, abstract)
	})
	if err != nil {
		return nil, fmt.Errorf("extract statements: %w", err)
	}
	progress.report(stepExtracting, 0.05)
	emit(stepExtracting, map[string]any{"count": len(statements), "statements": statements})

	result := &domain.PaperCheckResult{
		Abstract:          abstract,
		SourceMetadata:    meta,
		Statements:        statements,
		CounterStatements: make([]domain.CounterStatement, 0, len(statements)),
		SearchResults:     make([]domain.SearchResults, 0, len(statements)),
		ScoredDocuments:   make([][]domain.ScoredDocument, 0, len(statements)),
		CounterReports:    make([]domain.CounterReport, 0, len(statements)),
		Verdicts:          make([]domain.Verdict, 0, len(statements)),
	}

	for i, stmt := range statements {
		tracker := statementProgress{tracker: progress, index: i, total: len(statements)}
		row, err := s.checkStatement(ctx, stmt, tracker, emit)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", stmt.Order, err)
		}
		result.CounterStatements = append(result.CounterStatements, row.counter)
		result.SearchResults = append(result.SearchResults, row.search)
		result.ScoredDocuments = append(result.ScoredDocuments, row.scored)
		result.CounterReports = append(result.CounterReports, row.report)
		result.Verdicts = append(result.Verdicts, row.verdict)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", stepAggregating, err)
	}
	result.OverallAssessment = GenerateOverallAssessment(result.Verdicts)
	progress.report(stepAggregating, 0.92)
	emit(stepAggregating, map[string]any{
		"verdict_counts":     result.VerdictCounts(),
		"overall_assessment": result.OverallAssessment,
	})

	completed := s.now()
	result.Metadata = domain.ProcessingMetadata{
		JobID:       JobIDFromContext(ctx),
		Model:       s.deps.Generator.Model(),
		StartedAt:   started.UTC(),
		CompletedAt: completed.UTC(),
		DurationMS:  completed.Sub(started).Milliseconds(),
		Config:      s.cfg.Snapshot(),
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("assemble result: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", stepPersisting, err)
	}
	if err := s.persist(ctx, result); err != nil {
		return nil, err
	}
	progress.report(stepPersisting, 0.96)
	emit(stepPersisting, map[string]any{"check_id": result.Metadata.CheckID})

	s.publish(ctx, result)
	progress.report(stepDone, 1)
	return result, nil
}

type statementRow struct {
	counter domain.CounterStatement
	search  domain.SearchResults
	scored  []domain.ScoredDocument
	report  domain.CounterReport
	verdict domain.Verdict
}

func (s *PaperCheckService) checkStatement(
	ctx context.Context,
	stmt domain.Statement,
	progress statementProgress,
	emit domain.DataFunc,
) (statementRow, error) {
	var row statementRow

	if err := ctx.Err(); err != nil {
		return row, fmt.Errorf("%s: %w", stepCounter, err)
	}
	progress.report(stepCounter, 0)
	type negation struct {
		text string
		meta domain.GenerationMetadata
	}
	neg, err := timedStage(s, stepCounter, func() (negation, error) {
		text, meta, err := s.counter.Negate(ctx, stmt)
		return negation{text: text, meta: meta}, err
	})
	if err != nil {
		return row, fmt.Errorf("generate counter statement: %w", err)
	}
	emit(stepCounter, map[string]any{"statement_order": stmt.Order, "negated_text": neg.text})

	if err := ctx.Err(); err != nil {
		return row, fmt.Errorf("%s: %w", stepHyDE, err)
	}
	progress.report(stepHyDE, 1)
	hyde, err := timedStage(s, stepHyDE, func() (domain.HyDEOutput, error) {
		return s.hyde.Generate(ctx, stmt, neg.text)
	})
	if err != nil {
		return row, fmt.Errorf("generate hyde material: %w", err)
	}
	row.counter = domain.CounterStatement{
		Original:      stmt,
		NegatedText:   neg.text,
		HyDEAbstracts: hyde.Abstracts,
		Keywords:      hyde.Keywords,
		Metadata:      neg.meta,
	}
	if err := row.counter.Validate(); err != nil {
		return row, fmt.Errorf("build counter statement: %w", err)
	}
	emit(stepHyDE, map[string]any{
		"statement_order": stmt.Order,
		"abstracts":       len(hyde.Abstracts),
		"keywords":        hyde.Keywords,
	})

	if err := ctx.Err(); err != nil {
		return row, fmt.Errorf("%s: %w", stepSearching, err)
	}
	progress.report(stepSearching, 2)
	row.search, err = timedStage(s, stepSearching, func() (domain.SearchResults, error) {
		return s.search.Search(ctx, row.counter)
	})
	if err != nil {
		return row, fmt.Errorf("search literature: %w", err)
	}
	for _, failed := range row.search.FailedStrategies {
		s.observer.ObserveStrategyFailure(failed)
	}
	emit(stepSearching, map[string]any{
		"statement_order":   stmt.Order,
		"strategy_counts":   row.search.StrategyCounts(),
		"deduplicated":      len(row.search.DeduplicatedDocs),
		"provenance":        row.search.ProvenanceSummary(),
		"failed_strategies": row.search.FailedStrategies,
	})

	if err := ctx.Err(); err != nil {
		return row, fmt.Errorf("%s: %w", stepScoring, err)
	}
	progress.report(stepScoring, 3)
	scoring, err := timedStage(s, stepScoring, func() (ScoringOutcome, error) {
		return s.evidence.Score(ctx, row.counter, row.search)
	})
	if err != nil {
		return row, fmt.Errorf("score documents: %w", err)
	}
	row.scored = scoring.Retained
	emit(stepScoring, map[string]any{
		"statement_order": stmt.Order,
		"fetched":         scoring.Fetched,
		"scored":          scoring.Scored,
		"above_threshold": len(scoring.Retained),
		"early_stopped":   scoring.EarlyStopped,
		"top_scores":      topScores(scoring.Retained, 5),
	})

	if err := ctx.Err(); err != nil {
		return row, fmt.Errorf("%s: %w", stepCitations, err)
	}
	progress.report(stepCitations, 4)
	cites, err := timedStage(s, stepCitations, func() (CitationOutcome, error) {
		return s.evidence.ExtractCitations(ctx, row.counter, scoring.Retained)
	})
	if err != nil {
		return row, fmt.Errorf("extract citations: %w", err)
	}
	if cites.Dropped > 0 {
		s.observer.ObserveDroppedCitations(cites.Dropped)
	}
	emit(stepCitations, map[string]any{
		"statement_order": stmt.Order,
		"citations":       len(cites.Citations),
		"dropped":         cites.Dropped,
	})

	if err := ctx.Err(); err != nil {
		return row, fmt.Errorf("%s: %w", stepReport, err)
	}
	progress.report(stepReport, 5)
	stats := buildSearchStats(row.search, scoring, cites)
	row.report, err = timedStage(s, stepReport, func() (domain.CounterReport, error) {
		return s.synth.Synthesize(ctx, row.counter, cites.Citations, stats)
	})
	if err != nil {
		return row, fmt.Errorf("synthesize report: %w", err)
	}
	emit(stepReport, map[string]any{
		"statement_order": stmt.Order,
		"num_citations":   row.report.NumCitations,
		"preview":         truncateRunes(row.report.Summary, previewLength),
	})

	if err := ctx.Err(); err != nil {
		return row, fmt.Errorf("%s: %w", stepVerdict, err)
	}
	progress.report(stepVerdict, 6)
	row.verdict, err = timedStage(s, stepVerdict, func() (domain.Verdict, error) {
		return s.verdicts.Analyze(ctx, stmt, row.report)
	})
	if err != nil {
		return row, fmt.Errorf("analyze verdict: %w", err)
	}
	s.observer.ObserveVerdict(row.verdict)
	emit(stepVerdict, map[string]any{
		"statement_order": stmt.Order,
		"verdict":         row.verdict.Verdict,
		"confidence":      row.verdict.Confidence,
	})
	return row, nil
}

func (s *PaperCheckService) persist(ctx context.Context, result *domain.PaperCheckResult) error {
	if s.deps.Store == nil {
		return nil
	}
	started := s.now()
	id, err := s.deps.Store.Save(ctx, result)
	s.observer.ObserveStage(stepPersisting, s.now().Sub(started))
	if err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	result.Metadata.CheckID = id
	return nil
}

// publish records the evidence graph and announces completion. Failures here
// never fail the check.
func (s *PaperCheckService) publish(ctx context.Context, result *domain.PaperCheckResult) {
	if s.deps.Graph != nil {
		if err := s.deps.Graph.RecordCheck(ctx, result); err != nil {
			slog.Warn("evidence_graph_record_failed", "check_id", result.Metadata.CheckID, "error", err)
		}
	}
	if s.deps.Events != nil {
		event := domain.CheckCompletedEvent{
			CheckID:        result.Metadata.CheckID,
			JobID:          result.Metadata.JobID,
			SourceRef:      result.SourceMetadata.Ref(),
			StatementCount: len(result.Statements),
			VerdictCounts:  result.VerdictCounts(),
			CompletedAt:    result.Metadata.CompletedAt,
		}
		if err := s.deps.Events.PublishCheckCompleted(ctx, event); err != nil {
			slog.Warn("check_completed_publish_failed", "check_id", result.Metadata.CheckID, "error", err)
		}
	}
}

// CheckAbstractsBatch checks each item in turn. Failed items are logged and
// skipped; only cancellation stops the batch.
func (s *PaperCheckService) CheckAbstractsBatch(
	ctx context.Context,
	items []domain.CheckItem,
	progress domain.ProgressFunc,
) ([]*domain.PaperCheckResult, error) {
	results := make([]*domain.PaperCheckResult, 0, len(items))
	tracker := &progressTracker{fn: progress}
	total := float64(len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		base := float64(i)
		inner := domain.CheckCallbacks{
			Progress: func(step string, fraction float64) {
				tracker.report(fmt.Sprintf("abstract %d/%d: %s", i+1, len(items), step), (base+fraction)/total)
			},
		}
		result, err := s.CheckAbstract(ctx, item.Abstract, item.Metadata, inner)
		if err != nil {
			slog.Warn("batch_item_failed", "index", i, "source", item.Metadata.Ref(), "error", err)
			tracker.report(fmt.Sprintf("abstract %d/%d: failed", i+1, len(items)), (base+1)/total)
			continue
		}
		results = append(results, result)
	}
	tracker.report(stepDone, 1)
	return results, nil
}

// TestConnection pings every collaborator that can be pinged.
func (s *PaperCheckService) TestConnection(ctx context.Context) domain.ConnectionReport {
	report := domain.ConnectionReport{
		OK:       true,
		Services: map[string]bool{},
		Errors:   map[string]string{},
	}
	for _, target := range s.pingers {
		if err := pingSafely(ctx, target.name, target.pinger); err != nil {
			report.OK = false
			report.Services[target.name] = false
			report.Errors[target.name] = err.Error()
			continue
		}
		report.Services[target.name] = true
	}
	return report
}

type namedPinger struct {
	name   string
	pinger ports.Pinger
}

func collectPingers(deps PaperCheckDeps) []namedPinger {
	candidates := []struct {
		name string
		dep  any
	}{
		{"generator", deps.Generator},
		{"literature", deps.Searcher},
		{"store", deps.Store},
		{"scorer", deps.Scorer},
		{"citations", deps.Citations},
	}
	out := make([]namedPinger, 0, len(candidates))
	for _, c := range candidates {
		if c.dep == nil {
			continue
		}
		if p, ok := c.dep.(ports.Pinger); ok {
			out = append(out, namedPinger{name: c.name, pinger: p})
		}
	}
	return out
}

// pingSafely turns a panic from an interface holding a nil pointer into an
// unavailable report entry.
func pingSafely(ctx context.Context, name string, p ports.Pinger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrResourceUnavailable, "ping "+name, fmt.Errorf("not configured: %v", r))
		}
	}()
	return p.Ping(ctx)
}

func timedStage[T any](s *PaperCheckService, stage string, fn func() (T, error)) (T, error) {
	started := s.now()
	out, err := fn()
	s.observer.ObserveStage(stage, s.now().Sub(started))
	return out, err
}

func buildSearchStats(search domain.SearchResults, scoring ScoringOutcome, cites CitationOutcome) domain.SearchStats {
	counts := search.StrategyCounts()
	return domain.SearchStats{
		SemanticCount:       counts[domain.StrategySemantic],
		HyDECount:           counts[domain.StrategyHyDE],
		KeywordCount:        counts[domain.StrategyKeyword],
		DeduplicatedCount:   len(search.DeduplicatedDocs),
		FetchedCount:        scoring.Fetched,
		ScoredCount:         scoring.Scored,
		AboveThresholdCount: len(scoring.Retained),
		CitationCount:       len(cites.Citations),
		DroppedCitations:    cites.Dropped,
		EarlyStopped:        scoring.EarlyStopped,
		FailedStrategies:    search.FailedStrategies,
	}
}

func topScores(docs []domain.ScoredDocument, n int) []int {
	out := make([]int, 0, min(n, len(docs)))
	for _, d := range docs[:min(n, len(docs))] {
		out = append(out, d.Score)
	}
	return out
}

// progressTracker clamps reported fractions to a non-decreasing sequence in [0,1].
type progressTracker struct {
	fn   domain.ProgressFunc
	last float64
}

func (p *progressTracker) report(step string, fraction float64) {
	fraction = max(p.last, min(fraction, 1))
	p.last = fraction
	if p.fn != nil {
		p.fn(step, fraction)
	}
}

// statementProgress maps a statement's sub-steps into its slice of [0.1, 0.9).
type statementProgress struct {
	tracker *progressTracker
	index   int
	total   int
}

func (p statementProgress) report(step string, subStep int) {
	width := (statementRangeHigh - statementRangeLow) / float64(p.total)
	fraction := statementRangeLow + width*float64(p.index) + width*float64(subStep)/statementSubSteps
	p.tracker.report(fmt.Sprintf("statement %d/%d: %s", p.index+1, p.total, step), fraction)
}

func dataEmitter(fn domain.DataFunc) domain.DataFunc {
	if fn == nil {
		return func(string, map[string]any) {}
	}
	return fn
}

type jobIDKey struct{}

// WithJobID tags ctx with the queue job that triggered a check.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, jobID)
}

func JobIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(jobIDKey{}).(string)
	return id
}

type noopObserver struct{}

func (noopObserver) StartCheck()                                  {}
func (noopObserver) FinishCheck(time.Duration, error)             {}
func (noopObserver) ObserveStage(string, time.Duration)           {}
func (noopObserver) ObserveVerdict(domain.Verdict)                {}
func (noopObserver) ObserveStrategyFailure(domain.SearchStrategy) {}
func (noopObserver) ObserveDroppedCitations(int)                  {}

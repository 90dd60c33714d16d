package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

// SearchCoordinator runs the semantic, HyDE and keyword strategies concurrently
// and merges their ids with provenance. No ranking is applied here.
type SearchCoordinator struct {
	searcher ports.LiteratureSearcher
	cfg      domain.SearchConfig
}

func NewSearchCoordinator(searcher ports.LiteratureSearcher, cfg domain.SearchConfig) *SearchCoordinator {
	return &SearchCoordinator{searcher: searcher, cfg: cfg}
}

type strategyOutcome struct {
	ids      []string
	err      error
	duration time.Duration
}

func (c *SearchCoordinator) Search(ctx context.Context, counter domain.CounterStatement) (domain.SearchResults, error) {
	runs := map[domain.SearchStrategy]func(context.Context) ([]string, error){
		domain.StrategySemantic: func(ctx context.Context) ([]string, error) {
			return c.searcher.SearchSemantic(ctx, counter.NegatedText, c.cfg.SemanticLimit)
		},
		domain.StrategyHyDE: func(ctx context.Context) ([]string, error) {
			return c.searcher.SearchHyDE(ctx, counter.HyDEAbstracts, c.cfg.HyDELimit)
		},
		domain.StrategyKeyword: func(ctx context.Context) ([]string, error) {
			return c.searcher.SearchKeyword(ctx, counter.Keywords, c.cfg.KeywordLimit)
		},
	}

	outcomes := make([]strategyOutcome, len(domain.SearchStrategies))
	var g errgroup.Group
	for i, strategy := range domain.SearchStrategies {
		run := runs[strategy]
		g.Go(func() error {
			outcomes[i] = c.runStrategy(ctx, run)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.SearchResults{}, err
	}

	var (
		failed []domain.SearchStrategy
		errs   []error
	)
	ids := make(map[domain.SearchStrategy][]string, len(outcomes))
	for i, strategy := range domain.SearchStrategies {
		out := outcomes[i]
		if out.err != nil {
			slog.Warn("search_strategy_failed",
				"strategy", string(strategy),
				"duration_ms", out.duration.Milliseconds(),
				"error", out.err,
			)
			failed = append(failed, strategy)
			errs = append(errs, fmt.Errorf("%s: %w", strategy, out.err))
			continue
		}
		ids[strategy] = out.ids
	}
	if len(failed) == len(domain.SearchStrategies) {
		return domain.SearchResults{}, domain.WrapError(domain.ErrResourceUnavailable, "search literature", errors.Join(errs...))
	}

	results := domain.MergeSearchResults(
		ids[domain.StrategySemantic],
		ids[domain.StrategyHyDE],
		ids[domain.StrategyKeyword],
	)
	results.FailedStrategies = failed
	return results, nil
}

func (c *SearchCoordinator) runStrategy(ctx context.Context, run func(context.Context) ([]string, error)) strategyOutcome {
	started := time.Now()
	sctx, cancel := context.WithTimeout(ctx, c.cfg.StrategyTimeout)
	defer cancel()

	ids, err := run(sctx)
	if err == nil && sctx.Err() != nil {
		err = sctx.Err()
	}
	return strategyOutcome{ids: ids, err: err, duration: time.Since(started)}
}

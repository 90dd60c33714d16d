package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

var searchCounter = domain.CounterStatement{
	Original:      hydeStatement,
	NegatedText:   "Statins do not reduce mortality",
	HyDEAbstracts: []string{longHyDE},
	Keywords:      []string{"statins", "mortality"},
}

func TestSearchCoordinatorMergesWithProvenance(t *testing.T) {
	searcher := &fakeSearcher{
		semantic: func(query string) ([]string, error) {
			if query != searchCounter.NegatedText {
				t.Errorf("semantic query = %q", query)
			}
			return []string{"a", "b"}, nil
		},
		hyde:    func([]string) ([]string, error) { return []string{"b", "c"}, nil },
		keyword: func([]string) ([]string, error) { return []string{"c", "a", "d"}, nil },
	}
	got, err := NewSearchCoordinator(searcher, testConfig().Search).Search(context.Background(), searchCounter)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(got.DeduplicatedDocs, want) {
		t.Fatalf("deduplicated = %v, want %v", got.DeduplicatedDocs, want)
	}
	if want := []domain.SearchStrategy{domain.StrategySemantic, domain.StrategyKeyword}; !reflect.DeepEqual(got.Provenance["a"], want) {
		t.Fatalf("provenance[a] = %v", got.Provenance["a"])
	}
	if len(got.FailedStrategies) != 0 {
		t.Fatalf("unexpected failed strategies %v", got.FailedStrategies)
	}
}

func TestSearchCoordinatorDegradesFailedStrategy(t *testing.T) {
	searcher := &fakeSearcher{
		semantic: func(string) ([]string, error) { return nil, errors.New("qdrant down") },
		keyword:  func([]string) ([]string, error) { return []string{"k1"}, nil },
	}
	got, err := NewSearchCoordinator(searcher, testConfig().Search).Search(context.Background(), searchCounter)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(got.FailedStrategies, []domain.SearchStrategy{domain.StrategySemantic}) {
		t.Fatalf("failed = %v", got.FailedStrategies)
	}
	if len(got.SemanticDocs) != 0 || !reflect.DeepEqual(got.DeduplicatedDocs, []string{"k1"}) {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestSearchCoordinatorFailsWhenAllStrategiesFail(t *testing.T) {
	boom := func() ([]string, error) { return nil, errors.New("boom") }
	searcher := &fakeSearcher{
		semantic: func(string) ([]string, error) { return boom() },
		hyde:     func([]string) ([]string, error) { return boom() },
		keyword:  func([]string) ([]string, error) { return boom() },
	}
	_, err := NewSearchCoordinator(searcher, testConfig().Search).Search(context.Background(), searchCounter)
	if !domain.IsKind(err, domain.ErrResourceUnavailable) {
		t.Fatalf("expected resource unavailable, got %v", err)
	}
}

func TestSearchCoordinatorTimesOutSlowStrategy(t *testing.T) {
	cfg := testConfig().Search
	cfg.StrategyTimeout = 20 * time.Millisecond
	searcher := &slowSearcher{}

	got, err := NewSearchCoordinator(searcher, cfg).Search(context.Background(), searchCounter)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(got.FailedStrategies, []domain.SearchStrategy{domain.StrategyHyDE}) {
		t.Fatalf("expected hyde timeout, got %v", got.FailedStrategies)
	}
	if !reflect.DeepEqual(got.DeduplicatedDocs, []string{"s1", "k1"}) {
		t.Fatalf("deduplicated = %v", got.DeduplicatedDocs)
	}
}

func TestSearchCoordinatorRunsStrategiesConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	enter := func() {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
	}
	searcher := &fakeSearcher{
		semantic: func(string) ([]string, error) { enter(); return []string{"a"}, nil },
		hyde:     func([]string) ([]string, error) { enter(); return []string{"b"}, nil },
		keyword:  func([]string) ([]string, error) { enter(); return []string{"c"}, nil },
	}
	if _, err := NewSearchCoordinator(searcher, testConfig().Search).Search(context.Background(), searchCounter); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if peak.Load() < 2 {
		t.Fatalf("expected concurrent strategies, peak in-flight = %d", peak.Load())
	}
}

// slowSearcher blocks the HyDE strategy until its context expires.
type slowSearcher struct{}

func (slowSearcher) SearchSemantic(context.Context, string, int) ([]string, error) {
	return []string{"s1"}, nil
}

func (slowSearcher) SearchHyDE(ctx context.Context, _ []string, _ int) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowSearcher) SearchKeyword(context.Context, []string, int) ([]string, error) {
	return []string{"k1"}, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

const testAbstract = "Background: statins are widely prescribed. Methods: randomized trial of 4000 adults. " +
	"Results: statins reduced all-cause mortality by 20% and lowered LDL cholesterol. Conclusion: statins improve survival."

// scriptedGenerator answers by prompt kind. Unset kinds return an error.
type scriptedGenerator struct {
	mu        sync.Mutex
	calls     int
	prompts   []string
	extract   string
	negate    func(prompt string) string
	hyde      string
	report    func(prompt string) (string, error)
	verdict   func(prompt string) (string, error)
	errByKind map[string]error
}

func (g *scriptedGenerator) Model() string { return "test-model" }

func (g *scriptedGenerator) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, req.Prompt)
	g.mu.Unlock()

	kind := promptKind(req.Prompt)
	if err := g.errByKind[kind]; err != nil {
		return "", err
	}
	switch kind {
	case "extract":
		return g.extract, nil
	case "negate":
		if g.negate != nil {
			return g.negate(req.Prompt), nil
		}
		return "Negation: Statins do not reduce all-cause mortality.", nil
	case "hyde":
		if g.hyde != "" {
			return g.hyde, nil
		}
		return defaultHyDEResponse, nil
	case "report":
		if g.report != nil {
			return g.report(req.Prompt)
		}
		return defaultReport, nil
	case "verdict":
		if g.verdict != nil {
			return g.verdict(req.Prompt)
		}
		return `{"verdict":"undecided","confidence":"low","rationale":"The evidence found was insufficient to decide."}`, nil
	}
	return "", fmt.Errorf("unexpected prompt: %.40s", req.Prompt)
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func promptKind(prompt string) string {
	switch {
	case strings.Contains(prompt, "extract testable claims"):
		return "extract"
	case strings.Contains(prompt, "precise counter-claim"):
		return "negate"
	case strings.Contains(prompt, "hypothetical medical research abstracts"):
		return "hyde"
	case strings.Contains(prompt, "professional evidence summary"):
		return "report"
	case strings.Contains(prompt, "judge a research claim"):
		return "verdict"
	}
	return "unknown"
}

var longHyDE = strings.TrimSpace(strings.Repeat("Background: hypothetical cohort. Methods: 1200 adults followed. Results: no mortality benefit. ", 2))

var defaultHyDEResponse = fmt.Sprintf(`{"abstracts":[%q,%q],"keywords":["statins","mortality","cohort"]}`, longHyDE, longHyDE)

const defaultReport = "Several trials found no mortality benefit from statin therapy in elderly adults [1]. " +
	"A large cohort reported that cardiovascular outcomes were unchanged after five years of follow-up [2]. " +
	"Together these studies suggest that the claimed survival benefit may not generalize to all populations."

func extractionJSON(texts ...string) string {
	items := make([]string, 0, len(texts))
	for _, t := range texts {
		items = append(items, fmt.Sprintf(`{"text":%q,"context":"results","statement_type":"result","confidence":0.9}`, t))
	}
	return `{"statements":[` + strings.Join(items, ",") + `]}`
}

type fakeSearcher struct {
	semantic func(query string) ([]string, error)
	hyde     func(abstracts []string) ([]string, error)
	keyword  func(keywords []string) ([]string, error)
	pingErr  error
}

func (f *fakeSearcher) SearchSemantic(ctx context.Context, query string, _ int) ([]string, error) {
	if f.semantic == nil {
		return nil, nil
	}
	return f.semantic(query)
}

func (f *fakeSearcher) SearchHyDE(ctx context.Context, abstracts []string, _ int) ([]string, error) {
	if f.hyde == nil {
		return nil, nil
	}
	return f.hyde(abstracts)
}

func (f *fakeSearcher) SearchKeyword(ctx context.Context, keywords []string, _ int) ([]string, error) {
	if f.keyword == nil {
		return nil, nil
	}
	return f.keyword(keywords)
}

func (f *fakeSearcher) Ping(context.Context) error { return f.pingErr }

type fakeFetcher struct {
	docs  map[string]domain.Document
	calls int
}

func (f *fakeFetcher) FetchByIDs(_ context.Context, ids []string) (map[string]domain.Document, error) {
	f.calls++
	out := make(map[string]domain.Document, len(ids))
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

type fakeScorer struct {
	mu      sync.Mutex
	scores  map[string]int
	errs    map[string]error
	scored  []string
	pingErr error
}

func (f *fakeScorer) Evaluate(_ context.Context, _ string, doc domain.Document) (domain.RelevanceAssessment, error) {
	f.mu.Lock()
	f.scored = append(f.scored, doc.ID)
	f.mu.Unlock()
	if err := f.errs[doc.ID]; err != nil {
		return domain.RelevanceAssessment{}, err
	}
	score, ok := f.scores[doc.ID]
	if !ok {
		score = 1
	}
	return domain.RelevanceAssessment{Score: score, Reasoning: "scored " + doc.ID}, nil
}

func (f *fakeScorer) Ping(context.Context) error { return f.pingErr }

type fakeCitations struct {
	calls    int
	extra    []domain.CitationCandidate
	lastDocs []domain.ScoredDocument
	err      error
}

func (f *fakeCitations) Extract(_ context.Context, _ string, docs []domain.ScoredDocument, _ int, _ float64) ([]domain.CitationCandidate, error) {
	f.calls++
	f.lastDocs = docs
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.CitationCandidate, 0, len(docs)+len(f.extra))
	for _, d := range docs {
		out = append(out, domain.CitationCandidate{DocumentID: d.DocID, Passage: "passage from " + d.DocID, Relevance: 0.9})
	}
	return append(out, f.extra...), nil
}

type fakeStore struct {
	saved   []*domain.PaperCheckResult
	saveErr error
	pingErr error
}

func (f *fakeStore) Save(_ context.Context, r *domain.PaperCheckResult) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved = append(f.saved, r)
	return fmt.Sprintf("check-%d", len(f.saved)), nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*domain.PaperCheckResult, error) {
	for i, r := range f.saved {
		if fmt.Sprintf("check-%d", i+1) == id {
			return r, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get paper check", errors.New(id))
}

func (f *fakeStore) List(_ context.Context, limit, offset int) ([]domain.PaperCheckSummary, error) {
	return []domain.PaperCheckSummary{{ID: fmt.Sprintf("%d/%d", limit, offset)}}, nil
}

func (f *fakeStore) Delete(context.Context, string) error { return nil }

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakeEvents struct {
	events []domain.CheckCompletedEvent
	err    error
}

func (f *fakeEvents) PublishCheckCompleted(_ context.Context, e domain.CheckCompletedEvent) error {
	f.events = append(f.events, e)
	return f.err
}

type fakeGraph struct {
	recorded int
	err      error
}

func (f *fakeGraph) RecordCheck(context.Context, *domain.PaperCheckResult) error {
	f.recorded++
	return f.err
}

type recordingObserver struct {
	started  int
	finished []error
	stages   map[string]int
	verdicts []domain.Verdict
	failed   []domain.SearchStrategy
	dropped  int
}

func (o *recordingObserver) StartCheck() { o.started++ }
func (o *recordingObserver) FinishCheck(_ time.Duration, err error) {
	o.finished = append(o.finished, err)
}
func (o *recordingObserver) ObserveStage(stage string, _ time.Duration) {
	if o.stages == nil {
		o.stages = map[string]int{}
	}
	o.stages[stage]++
}
func (o *recordingObserver) ObserveVerdict(v domain.Verdict) { o.verdicts = append(o.verdicts, v) }
func (o *recordingObserver) ObserveStrategyFailure(s domain.SearchStrategy) {
	o.failed = append(o.failed, s)
}
func (o *recordingObserver) ObserveDroppedCitations(n int) { o.dropped += n }

func corpusDoc(id string) domain.Document {
	published := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Document{
		ID:              id,
		Title:           "Study " + id,
		Abstract:        "Abstract of " + id,
		Authors:         []string{"Author A"},
		PublicationDate: &published,
		Journal:         domain.Ptr("BMJ"),
		PMID:            domain.Ptr("pm-" + id),
		Source:          "pubmed",
	}
}

func corpus(ids ...string) map[string]domain.Document {
	out := make(map[string]domain.Document, len(ids))
	for _, id := range ids {
		out[id] = corpusDoc(id)
	}
	return out
}

func idRange(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func testConfig() domain.PaperCheckConfig {
	cfg := domain.DefaultPaperCheckConfig()
	cfg.Search.StrategyTimeout = time.Second
	return cfg
}

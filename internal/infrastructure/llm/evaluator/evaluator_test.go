package evaluator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

// titleGenerator answers according to the document title found in the prompt.
type titleGenerator struct {
	mu      sync.Mutex
	byTitle map[string]string
	errs    map[string]error
	calls   []string
}

func (g *titleGenerator) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for title, resp := range g.byTitle {
		if strings.Contains(req.Prompt, "Title: "+title+"\n") {
			g.calls = append(g.calls, title)
			if err := g.errs[title]; err != nil {
				return "", err
			}
			return resp, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

func (g *titleGenerator) Model() string { return "fake" }

func scored(id, title, abstract string, score int) domain.ScoredDocument {
	sd, err := domain.NewScoredDocument(
		domain.Document{ID: id, Title: title, Abstract: abstract},
		domain.RelevanceAssessment{Score: score},
		3,
		[]domain.SearchStrategy{domain.StrategySemantic},
	)
	if err != nil {
		panic(err)
	}
	return sd
}

func TestRelevanceScorerDecodesScore(t *testing.T) {
	gen := &titleGenerator{byTitle: map[string]string{"A": "```json\n{\"score\":4,\"reasoning\":\" strong \"}\n```"}}
	got, err := NewRelevanceScorer(gen, 0).Evaluate(context.Background(), "q", domain.Document{ID: "a", Title: "A"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got.Score != 4 || got.Reasoning != "strong" {
		t.Fatalf("unexpected assessment %+v", got)
	}
}

func TestRelevanceScorerRejectsOutOfRangeScore(t *testing.T) {
	gen := &titleGenerator{byTitle: map[string]string{"A": `{"score":7,"reasoning":"x"}`}}
	_, err := NewRelevanceScorer(gen, 0).Evaluate(context.Background(), "q", domain.Document{ID: "a", Title: "A"})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCitationExtractorKeepsVerbatimPassages(t *testing.T) {
	gen := &titleGenerator{byTitle: map[string]string{
		"Verbatim":   `{"passage":"mortality was   not reduced","relevance":0.9}`,
		"Invented":   `{"passage":"statins cure everything","relevance":0.95}`,
		"Weak":       `{"passage":"a small effect","relevance":0.2}`,
		"Empty":      `{"passage":"","relevance":0.9}`,
		"LowScoring": `{"passage":"ignored","relevance":1}`,
	}}
	docs := []domain.ScoredDocument{
		scored("d1", "Verbatim", "In this cohort, Mortality was not reduced by statins.", 5),
		scored("d2", "Invented", "Statins had no effect on stroke.", 4),
		scored("d3", "Weak", "We saw a small effect on LDL.", 4),
		scored("d4", "Empty", "Nothing to see.", 4),
		scored("d5", "LowScoring", "ignored", 3),
	}

	got, err := NewCitationExtractor(gen, 0, 2).Extract(context.Background(), "q", docs, 4, 0.7)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != "d1" || got[0].Passage != "mortality was   not reduced" {
		t.Fatalf("unexpected candidates %+v", got)
	}
	for _, title := range gen.calls {
		if title == "LowScoring" {
			t.Fatalf("document below the score threshold was sent to the backend")
		}
	}
}

func TestCitationExtractorSkipsFailedDocuments(t *testing.T) {
	gen := &titleGenerator{
		byTitle: map[string]string{
			"Good": `{"passage":"no benefit","relevance":0.8}`,
			"Bad":  `{}`,
		},
		errs: map[string]error{"Bad": domain.WrapError(domain.ErrTemporary, "gen", errors.New("boom"))},
	}
	docs := []domain.ScoredDocument{
		scored("g", "Good", "There was no benefit.", 5),
		scored("b", "Bad", "whatever", 5),
	}
	got, err := NewCitationExtractor(gen, 0, 0).Extract(context.Background(), "q", docs, 4, 0.7)
	if err != nil || len(got) != 1 || got[0].DocumentID != "g" {
		t.Fatalf("Extract() = %+v, %v", got, err)
	}
}

func TestCitationExtractorFailsWhenEveryDocumentFails(t *testing.T) {
	gen := &titleGenerator{
		byTitle: map[string]string{"Bad": `{}`},
		errs:    map[string]error{"Bad": domain.WrapError(domain.ErrTemporary, "gen", errors.New("boom"))},
	}
	_, err := NewCitationExtractor(gen, 0, 1).Extract(context.Background(), "q", []domain.ScoredDocument{scored("b", "Bad", "x", 5)}, 4, 0.7)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestCitationExtractorNoEligibleDocuments(t *testing.T) {
	gen := &titleGenerator{}
	got, err := NewCitationExtractor(gen, 0, 1).Extract(context.Background(), "q", []domain.ScoredDocument{scored("x", "X", "x", 3)}, 4, 0.7)
	if err != nil || len(got) != 0 || len(gen.calls) != 0 {
		t.Fatalf("expected no calls and no candidates, got %+v %v", got, err)
	}
}

func TestContainsVerbatim(t *testing.T) {
	if !containsVerbatim("Line one.\nLine   two ends here.", "one. line two") {
		t.Fatalf("expected whitespace and case insensitive match")
	}
	if containsVerbatim("abc", "abd") {
		t.Fatalf("unexpected match")
	}
}

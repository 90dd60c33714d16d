// Package evaluator implements document relevance scoring and passage
// extraction on top of a text generation backend.
package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/core/structured"
)

type relevancePayload struct {
	Score     int    `json:"score" validate:"min=1,max=5"`
	Reasoning string `json:"reasoning"`
}

type RelevanceScorer struct {
	gen         ports.TextGenerator
	temperature float64
}

func NewRelevanceScorer(gen ports.TextGenerator, temperature float64) *RelevanceScorer {
	return &RelevanceScorer{gen: gen, temperature: temperature}
}

func (s *RelevanceScorer) Evaluate(ctx context.Context, question string, doc domain.Document) (domain.RelevanceAssessment, error) {
	raw, err := s.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      buildRelevancePrompt(question, doc),
		Temperature: s.temperature,
		JSON:        true,
	})
	if err != nil {
		return domain.RelevanceAssessment{}, fmt.Errorf("score document %s: %w", doc.ID, err)
	}
	var payload relevancePayload
	if err := structured.Decode(raw, &payload); err != nil {
		return domain.RelevanceAssessment{}, fmt.Errorf("score document %s: %w", doc.ID, err)
	}
	return domain.RelevanceAssessment{
		Score:     payload.Score,
		Reasoning: strings.TrimSpace(payload.Reasoning),
	}, nil
}

func (s *RelevanceScorer) Ping(ctx context.Context) error {
	if p, ok := s.gen.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

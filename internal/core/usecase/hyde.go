package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/core/structured"
)

type hydePayload struct {
	Abstracts []string `json:"abstracts" validate:"required"`
	Keywords  []string `json:"keywords" validate:"required"`
}

// HyDEGenerator produces hypothetical abstracts and search keywords for a counter-claim.
type HyDEGenerator struct {
	gen ports.TextGenerator
	cfg domain.HyDEConfig
}

func NewHyDEGenerator(gen ports.TextGenerator, cfg domain.HyDEConfig) *HyDEGenerator {
	return &HyDEGenerator{gen: gen, cfg: cfg}
}

func (g *HyDEGenerator) Generate(ctx context.Context, stmt domain.Statement, negated string) (domain.HyDEOutput, error) {
	raw, err := g.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      buildHyDEPrompt(stmt, negated, g.cfg.NumAbstracts, g.cfg.MaxKeywords),
		Temperature: g.cfg.Temperature,
		JSON:        true,
	})
	if err != nil {
		return domain.HyDEOutput{}, fmt.Errorf("generate hyde: %w", err)
	}

	var payload hydePayload
	if err := structured.Decode(raw, &payload); err != nil {
		return domain.HyDEOutput{}, fmt.Errorf("decode hyde: %w", err)
	}

	out := domain.HyDEOutput{
		Abstracts: g.keepAbstracts(payload.Abstracts),
		Keywords:  g.keepKeywords(payload.Keywords),
	}
	if len(out.Abstracts) == 0 {
		return domain.HyDEOutput{}, domain.Validationf("generate hyde", "no hypothetical abstract reached %d characters", g.cfg.MinAbstractLength)
	}
	if len(out.Keywords) == 0 {
		return domain.HyDEOutput{}, domain.Validationf("generate hyde", "no keywords")
	}
	return out, nil
}

func (g *HyDEGenerator) keepAbstracts(items []string) []string {
	out := make([]string, 0, g.cfg.NumAbstracts)
	for _, item := range items {
		if len(out) >= g.cfg.NumAbstracts {
			break
		}
		text := strings.TrimSpace(item)
		if n := utf8.RuneCountInString(text); n < g.cfg.MinAbstractLength {
			slog.Warn("hyde_abstract_dropped", "length", n, "min_length", g.cfg.MinAbstractLength)
			continue
		}
		out = append(out, text)
	}
	return out
}

func (g *HyDEGenerator) keepKeywords(items []string) []string {
	out := make([]string, 0, g.cfg.MaxKeywords)
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if len(out) >= g.cfg.MaxKeywords {
			break
		}
		kw := strings.TrimSpace(item)
		key := strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

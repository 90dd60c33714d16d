package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
)

var negationPrefix = regexp.MustCompile(`(?i)^\s*(negation|negated statement|negated claim|counter[- ]?statement|counter[- ]?claim|answer|output)\s*:\s*`)

// CounterStatementGenerator writes the semantically precise negation of a claim.
type CounterStatementGenerator struct {
	gen ports.TextGenerator
	cfg domain.CounterConfig
	now func() time.Time
}

func NewCounterStatementGenerator(gen ports.TextGenerator, cfg domain.CounterConfig) *CounterStatementGenerator {
	return &CounterStatementGenerator{gen: gen, cfg: cfg, now: time.Now}
}

func (g *CounterStatementGenerator) Negate(ctx context.Context, stmt domain.Statement) (string, domain.GenerationMetadata, error) {
	raw, err := g.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      buildNegationPrompt(stmt),
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", domain.GenerationMetadata{}, fmt.Errorf("generate negation: %w", err)
	}

	text := cleanNegation(raw)
	if n := utf8.RuneCountInString(text); n < g.cfg.MinLength {
		return "", domain.GenerationMetadata{}, domain.Validationf("generate negation", "negation has %d characters, minimum is %d", n, g.cfg.MinLength)
	}
	return text, generationMetadata(g.gen, g.cfg.Temperature, g.now()), nil
}

// cleanNegation strips boilerplate prefixes and wrapping quotes.
func cleanNegation(raw string) string {
	text := strings.TrimSpace(raw)
	for {
		stripped := negationPrefix.ReplaceAllString(text, "")
		stripped = trimWrappingQuotes(strings.TrimSpace(stripped))
		if stripped == text {
			return text
		}
		text = stripped
	}
}

func trimWrappingQuotes(s string) string {
	pairs := [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}, {"`", "`"}}
	for _, p := range pairs {
		if len(s) >= len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
			return strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
		}
	}
	return s
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/core/structured"
)

type extractedStatement struct {
	Text       string   `json:"text"`
	Context    string   `json:"context"`
	Type       string   `json:"statement_type"`
	Confidence *float64 `json:"confidence"`
}

type extractionPayload struct {
	Statements []extractedStatement `json:"statements" validate:"required"`
}

const defaultStatementConfidence = 0.5

// StatementExtractor turns an abstract into ordered, validated claims.
type StatementExtractor struct {
	gen ports.TextGenerator
	cfg domain.ExtractionConfig
}

func NewStatementExtractor(gen ports.TextGenerator, cfg domain.ExtractionConfig) *StatementExtractor {
	return &StatementExtractor{gen: gen, cfg: cfg}
}

// CheckAbstract rejects abstracts that are empty or shorter than the configured minimum.
func (e *StatementExtractor) CheckAbstract(abstract string) error {
	trimmed := strings.TrimSpace(abstract)
	if trimmed == "" {
		return domain.InvalidInputf("extract statements", "abstract is empty")
	}
	if n := utf8.RuneCountInString(trimmed); n < e.cfg.MinAbstractLength {
		return domain.InvalidInputf("extract statements", "abstract has %d characters, minimum is %d", n, e.cfg.MinAbstractLength)
	}
	return nil
}

func (e *StatementExtractor) Extract(ctx context.Context, abstract string) ([]domain.Statement, error) {
	if err := e.CheckAbstract(abstract); err != nil {
		return nil, err
	}

	raw, err := e.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      buildExtractionPrompt(strings.TrimSpace(abstract), e.cfg.MaxStatements),
		Temperature: e.cfg.Temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate statements: %w", err)
	}

	var payload extractionPayload
	if err := structured.Decode(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode statements: %w", err)
	}

	statements := e.normalize(payload.Statements)
	if len(statements) == 0 {
		return nil, domain.Validationf("extract statements", "no valid statements in %d candidates", len(payload.Statements))
	}
	return statements, nil
}

func (e *StatementExtractor) normalize(items []extractedStatement) []domain.Statement {
	out := make([]domain.Statement, 0, min(len(items), e.cfg.MaxStatements))
	for _, item := range items {
		if len(out) >= e.cfg.MaxStatements {
			break
		}
		stmtType, ok := domain.ParseStatementType(item.Type)
		if !ok {
			slog.Warn("statement_dropped", "reason", "unknown_type", "statement_type", item.Type)
			continue
		}
		confidence := defaultStatementConfidence
		if item.Confidence != nil {
			confidence = *item.Confidence
		}
		stmt := domain.Statement{
			Text:       strings.TrimSpace(item.Text),
			Context:    strings.TrimSpace(item.Context),
			Type:       stmtType,
			Confidence: confidence,
			Order:      len(out) + 1,
		}
		if err := stmt.Validate(); err != nil {
			slog.Warn("statement_dropped", "reason", "invalid", "error", err)
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func generationMetadata(gen ports.TextGenerator, temperature float64, at time.Time) domain.GenerationMetadata {
	return domain.GenerationMetadata{
		Model:       gen.Model(),
		Temperature: temperature,
		GeneratedAt: at.UTC(),
	}
}

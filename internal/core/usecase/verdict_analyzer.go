package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/paper-checker/internal/core/domain"
	"github.com/kirillkom/paper-checker/internal/core/ports"
	"github.com/kirillkom/paper-checker/internal/core/structured"
)

type verdictPayload struct {
	Verdict    string `json:"verdict" validate:"required,oneof=supports contradicts undecided"`
	Confidence string `json:"confidence" validate:"required,oneof=high medium low"`
	Rationale  string `json:"rationale" validate:"required"`
}

// VerdictAnalyzer classifies a statement against its counter report.
// Out-of-contract output fails; nothing is coerced.
type VerdictAnalyzer struct {
	gen ports.TextGenerator
	cfg domain.VerdictConfig
}

func NewVerdictAnalyzer(gen ports.TextGenerator, cfg domain.VerdictConfig) *VerdictAnalyzer {
	return &VerdictAnalyzer{gen: gen, cfg: cfg}
}

func (a *VerdictAnalyzer) Analyze(ctx context.Context, stmt domain.Statement, report domain.CounterReport) (domain.Verdict, error) {
	raw, err := a.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      buildVerdictPrompt(stmt, report),
		Temperature: a.cfg.Temperature,
		JSON:        true,
	})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("generate verdict: %w", err)
	}

	var payload verdictPayload
	if err := structured.Decode(raw, &payload); err != nil {
		return domain.Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}

	rationale := strings.TrimSpace(payload.Rationale)
	if n := utf8.RuneCountInString(rationale); n < a.cfg.MinRationaleLength {
		return domain.Verdict{}, domain.Validationf("analyze verdict", "rationale has %d characters, minimum is %d", n, a.cfg.MinRationaleLength)
	}

	v := domain.Verdict{
		Verdict:        domain.VerdictLabel(payload.Verdict),
		Confidence:     domain.ConfidenceLevel(payload.Confidence),
		Rationale:      rationale,
		StatementOrder: stmt.Order,
		NumCitations:   report.NumCitations,
	}
	if err := v.Validate(); err != nil {
		return domain.Verdict{}, err
	}
	return v, nil
}

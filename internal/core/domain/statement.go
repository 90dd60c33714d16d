package domain

import (
	"strings"
	"time"
)

type StatementType string

const (
	StatementHypothesis StatementType = "hypothesis"
	StatementFinding    StatementType = "finding"
	StatementConclusion StatementType = "conclusion"
)

var statementTypeSynonyms = map[string]StatementType{
	"hypothesis":     StatementHypothesis,
	"hypotheses":     StatementHypothesis,
	"hypothesized":   StatementHypothesis,
	"aim":            StatementHypothesis,
	"objective":      StatementHypothesis,
	"prediction":     StatementHypothesis,
	"finding":        StatementFinding,
	"findings":       StatementFinding,
	"result":         StatementFinding,
	"results":        StatementFinding,
	"outcome":        StatementFinding,
	"observation":    StatementFinding,
	"conclusion":     StatementConclusion,
	"conclusions":    StatementConclusion,
	"implication":    StatementConclusion,
	"interpretation": StatementConclusion,
	"claim":          StatementConclusion,
}

// ParseStatementType normalizes common synonyms ("result" -> finding).
// The boolean is false for unrecognized types.
func ParseStatementType(raw string) (StatementType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.Trim(key, ".:\"' ")
	t, ok := statementTypeSynonyms[key]
	return t, ok
}

func (t StatementType) Valid() bool {
	switch t {
	case StatementHypothesis, StatementFinding, StatementConclusion:
		return true
	default:
		return false
	}
}

// Statement is one claim extracted from an abstract.
type Statement struct {
	Text       string        `json:"text"`
	Context    string        `json:"context"`
	Type       StatementType `json:"statement_type"`
	Confidence float64       `json:"confidence"`
	Order      int           `json:"statement_order"`
}

func (s Statement) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return Validationf("validate statement", "empty text")
	}
	if !s.Type.Valid() {
		return Validationf("validate statement", "unknown statement type %q", s.Type)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return Validationf("validate statement", "confidence %.3f outside [0,1]", s.Confidence)
	}
	if s.Order < 1 {
		return Validationf("validate statement", "statement order %d < 1", s.Order)
	}
	return nil
}

// GenerationMetadata describes the model call that produced a record.
type GenerationMetadata struct {
	Model       string    `json:"model,omitempty"`
	Temperature float64   `json:"temperature"`
	GeneratedAt time.Time `json:"generated_at"`
}

// CounterStatement pairs a statement with its negation and HyDE material.
type CounterStatement struct {
	Original      Statement          `json:"original"`
	NegatedText   string             `json:"negated_text"`
	HyDEAbstracts []string           `json:"hyde_abstracts"`
	Keywords      []string           `json:"keywords"`
	Metadata      GenerationMetadata `json:"metadata"`
}

func (c CounterStatement) Validate() error {
	if err := c.Original.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.NegatedText) == "" {
		return Validationf("validate counter statement", "empty negated text")
	}
	if len(c.HyDEAbstracts) == 0 {
		return Validationf("validate counter statement", "no hypothetical abstracts")
	}
	if len(c.Keywords) == 0 {
		return Validationf("validate counter statement", "no keywords")
	}
	return nil
}

// HyDEOutput is the raw material produced by the HyDE generator.
type HyDEOutput struct {
	Abstracts []string `json:"abstracts"`
	Keywords  []string `json:"keywords"`
}

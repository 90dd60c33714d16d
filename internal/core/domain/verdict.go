package domain

import "strings"

type VerdictLabel string

const (
	VerdictSupports    VerdictLabel = "supports"
	VerdictContradicts VerdictLabel = "contradicts"
	VerdictUndecided   VerdictLabel = "undecided"
)

func (v VerdictLabel) Valid() bool {
	switch v {
	case VerdictSupports, VerdictContradicts, VerdictUndecided:
		return true
	default:
		return false
	}
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// Verdict classifies one statement against its counter report.
// StatementOrder is the reference to that report: it names the statement
// whose slot in PaperCheckResult holds the report, and NumCitations mirrors
// the report's count. PaperCheckResult.ReportFor resolves it.
type Verdict struct {
	Verdict        VerdictLabel    `json:"verdict"`
	Confidence     ConfidenceLevel `json:"confidence"`
	Rationale      string          `json:"rationale"`
	StatementOrder int             `json:"statement_order"`
	NumCitations   int             `json:"num_citations"`
}

func (v Verdict) Validate() error {
	if !v.Verdict.Valid() {
		return Validationf("validate verdict", "unknown verdict %q", v.Verdict)
	}
	if !v.Confidence.Valid() {
		return Validationf("validate verdict", "unknown confidence %q", v.Confidence)
	}
	if strings.TrimSpace(v.Rationale) == "" {
		return Validationf("validate verdict", "empty rationale")
	}
	return nil
}

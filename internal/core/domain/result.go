package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceMetadata describes where a checked abstract came from.
type SourceMetadata struct {
	Title   string            `json:"title,omitempty"`
	Source  string            `json:"source,omitempty"`
	PMID    string            `json:"pmid,omitempty"`
	DOI     string            `json:"doi,omitempty"`
	Journal string            `json:"journal,omitempty"`
	Authors []string          `json:"authors,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Ref returns the most specific external identifier available.
func (m SourceMetadata) Ref() string {
	switch {
	case m.PMID != "":
		return "pmid:" + m.PMID
	case m.DOI != "":
		return "doi:" + m.DOI
	default:
		return m.Source
	}
}

// ProcessingMetadata records how and when a check ran.
type ProcessingMetadata struct {
	CheckID     string         `json:"check_id,omitempty"`
	JobID       string         `json:"job_id,omitempty"`
	Model       string         `json:"model,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	DurationMS  int64          `json:"duration_ms"`
	Config      map[string]any `json:"config,omitempty"`
}

// PaperCheckResult is the aggregate output of one abstract check. The
// per-statement lists are parallel and share the length of Statements.
type PaperCheckResult struct {
	Abstract          string             `json:"abstract"`
	SourceMetadata    SourceMetadata     `json:"source_metadata"`
	Statements        []Statement        `json:"statements"`
	CounterStatements []CounterStatement `json:"counter_statements"`
	SearchResults     []SearchResults    `json:"search_results"`
	ScoredDocuments   [][]ScoredDocument `json:"scored_documents"`
	CounterReports    []CounterReport    `json:"counter_reports"`
	Verdicts          []Verdict          `json:"verdicts"`
	OverallAssessment string             `json:"overall_assessment"`
	Metadata          ProcessingMetadata `json:"metadata"`
}

func (r *PaperCheckResult) Validate() error {
	n := len(r.Statements)
	lengths := map[string]int{
		"counter_statements": len(r.CounterStatements),
		"search_results":     len(r.SearchResults),
		"scored_documents":   len(r.ScoredDocuments),
		"counter_reports":    len(r.CounterReports),
		"verdicts":           len(r.Verdicts),
	}
	for name, l := range lengths {
		if l != n {
			return Validationf("validate paper check result", "%s has length %d, expected %d", name, l, n)
		}
	}
	for i := range r.Statements {
		if err := r.Statements[i].Validate(); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
		if err := r.SearchResults[i].Validate(); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
		for _, sd := range r.ScoredDocuments[i] {
			if err := sd.Validate(); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		if err := r.CounterReports[i].Validate(); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
		if err := r.Verdicts[i].Validate(); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
		if v := r.Verdicts[i]; v.StatementOrder != r.Statements[i].Order || v.NumCitations != r.CounterReports[i].NumCitations {
			return Validationf("validate paper check result",
				"verdict %d references statement %d with %d citations, report has %d",
				i+1, v.StatementOrder, v.NumCitations, r.CounterReports[i].NumCitations)
		}
	}
	return nil
}

// ReportFor returns the counter report a verdict was reached against.
func (r *PaperCheckResult) ReportFor(v Verdict) (CounterReport, bool) {
	for i, stmt := range r.Statements {
		if stmt.Order == v.StatementOrder && i < len(r.CounterReports) {
			return r.CounterReports[i], true
		}
	}
	return CounterReport{}, false
}

// VerdictCounts counts statements per verdict label.
func (r *PaperCheckResult) VerdictCounts() map[VerdictLabel]int {
	out := map[VerdictLabel]int{
		VerdictSupports:    0,
		VerdictContradicts: 0,
		VerdictUndecided:   0,
	}
	for _, v := range r.Verdicts {
		out[v.Verdict]++
	}
	return out
}

// TotalCitations sums citations across all counter reports.
func (r *PaperCheckResult) TotalCitations() int {
	total := 0
	for _, rep := range r.CounterReports {
		total += rep.NumCitations
	}
	return total
}

func (r *PaperCheckResult) ToJSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal paper check result: %w", err)
	}
	return data, nil
}

// DecodePaperCheckResult reconstructs a result and re-checks its invariants.
func DecodePaperCheckResult(data []byte) (*PaperCheckResult, error) {
	var r PaperCheckResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, WrapError(ErrValidation, "decode paper check result", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// PaperCheckSummary is the list view of a persisted check.
type PaperCheckSummary struct {
	ID                string               `json:"id"`
	SourceTitle       string               `json:"source_title"`
	SourceRef         string               `json:"source_ref"`
	StatementCount    int                  `json:"statement_count"`
	VerdictCounts     map[VerdictLabel]int `json:"verdict_counts"`
	OverallAssessment string               `json:"overall_assessment"`
	CreatedAt         time.Time            `json:"created_at"`
}

package domain

import "strings"

// SearchStats summarizes the retrieval and scoring funnel behind a report.
type SearchStats struct {
	SemanticCount       int              `json:"semantic_count"`
	HyDECount           int              `json:"hyde_count"`
	KeywordCount        int              `json:"keyword_count"`
	DeduplicatedCount   int              `json:"deduplicated_count"`
	FetchedCount        int              `json:"fetched_count"`
	ScoredCount         int              `json:"scored_count"`
	AboveThresholdCount int              `json:"above_threshold_count"`
	CitationCount       int              `json:"citation_count"`
	DroppedCitations    int              `json:"dropped_citations"`
	EarlyStopped        bool             `json:"early_stopped"`
	FailedStrategies    []SearchStrategy `json:"failed_strategies,omitempty"`
}

// CounterReport is the synthesized evidence narrative for one counter statement.
type CounterReport struct {
	Summary      string              `json:"summary"`
	NumCitations int                 `json:"num_citations"`
	Citations    []ExtractedCitation `json:"citations"`
	SearchStats  SearchStats         `json:"search_stats"`
	Metadata     GenerationMetadata  `json:"metadata"`
}

// IsEmpty reports whether the report was produced without any evidence.
func (r CounterReport) IsEmpty() bool {
	return r.NumCitations == 0
}

func (r CounterReport) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return Validationf("validate counter report", "empty summary")
	}
	if r.NumCitations != len(r.Citations) {
		return Validationf("validate counter report", "num_citations=%d but %d citations", r.NumCitations, len(r.Citations))
	}
	for i, c := range r.Citations {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.Order != i+1 {
			return Validationf("validate counter report", "citation %d has order %d", i+1, c.Order)
		}
	}
	return nil
}

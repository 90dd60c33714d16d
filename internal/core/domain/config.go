package domain

import "time"

// PaperCheckConfig carries every threshold and model setting of the pipeline.
// One value is passed to the orchestrator and threaded to its components.
type PaperCheckConfig struct {
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`
	Counter    CounterConfig    `yaml:"counter" json:"counter"`
	HyDE       HyDEConfig       `yaml:"hyde" json:"hyde"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Scoring    ScoringConfig    `yaml:"scoring" json:"scoring"`
	Report     ReportConfig     `yaml:"report" json:"report"`
	Verdict    VerdictConfig    `yaml:"verdict" json:"verdict"`
}

type ExtractionConfig struct {
	MinAbstractLength int     `yaml:"min_abstract_length" json:"min_abstract_length"`
	MaxStatements     int     `yaml:"max_statements" json:"max_statements"`
	Temperature       float64 `yaml:"temperature" json:"temperature"`
}

type CounterConfig struct {
	MinLength   int     `yaml:"min_length" json:"min_length"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

type HyDEConfig struct {
	NumAbstracts      int     `yaml:"num_abstracts" json:"num_abstracts"`
	MaxKeywords       int     `yaml:"max_keywords" json:"max_keywords"`
	MinAbstractLength int     `yaml:"min_abstract_length" json:"min_abstract_length"`
	Temperature       float64 `yaml:"temperature" json:"temperature"`
}

type SearchConfig struct {
	SemanticLimit   int           `yaml:"semantic_limit" json:"semantic_limit"`
	HyDELimit       int           `yaml:"hyde_limit" json:"hyde_limit"`
	KeywordLimit    int           `yaml:"keyword_limit" json:"keyword_limit"`
	StrategyTimeout time.Duration `yaml:"strategy_timeout" json:"strategy_timeout"`
}

type ScoringConfig struct {
	Threshold        int     `yaml:"threshold" json:"threshold"`
	BatchSize        int     `yaml:"batch_size" json:"batch_size"`
	EarlyStopCount   int     `yaml:"early_stop_count" json:"early_stop_count"`
	MaxConcurrency   int     `yaml:"max_concurrency" json:"max_concurrency"`
	MinCitationScore int     `yaml:"min_citation_score" json:"min_citation_score"`
	MaxCitations     int     `yaml:"max_citations" json:"max_citations"`
	MinRelevance     float64 `yaml:"min_relevance" json:"min_relevance"`
}

type ReportConfig struct {
	MinLength                 int     `yaml:"min_length" json:"min_length"`
	MinSentenceLength         int     `yaml:"min_sentence_length" json:"min_sentence_length"`
	LexicalDiversityThreshold float64 `yaml:"lexical_diversity_threshold" json:"lexical_diversity_threshold"`
	DiversityMinWords         int     `yaml:"diversity_min_words" json:"diversity_min_words"`
	Temperature               float64 `yaml:"temperature" json:"temperature"`
}

type VerdictConfig struct {
	MinRationaleLength int     `yaml:"min_rationale_length" json:"min_rationale_length"`
	Temperature        float64 `yaml:"temperature" json:"temperature"`
}

func DefaultPaperCheckConfig() PaperCheckConfig {
	return PaperCheckConfig{
		Extraction: ExtractionConfig{
			MinAbstractLength: 50,
			MaxStatements:     5,
			Temperature:       0.1,
		},
		Counter: CounterConfig{
			MinLength:   10,
			Temperature: 0.3,
		},
		HyDE: HyDEConfig{
			NumAbstracts:      2,
			MaxKeywords:       10,
			MinAbstractLength: 100,
			Temperature:       0.3,
		},
		Search: SearchConfig{
			SemanticLimit:   50,
			HyDELimit:       50,
			KeywordLimit:    50,
			StrategyTimeout: 30 * time.Second,
		},
		Scoring: ScoringConfig{
			Threshold:        3,
			BatchSize:        20,
			EarlyStopCount:   20,
			MaxConcurrency:   4,
			MinCitationScore: 4,
			MaxCitations:     10,
			MinRelevance:     0.7,
		},
		Report: ReportConfig{
			MinLength:                 100,
			MinSentenceLength:         20,
			LexicalDiversityThreshold: 0.3,
			DiversityMinWords:         50,
			Temperature:               0.3,
		},
		Verdict: VerdictConfig{
			MinRationaleLength: 20,
			Temperature:        0.1,
		},
	}
}

// Normalize replaces unset or out-of-range values with defaults.
func (c PaperCheckConfig) Normalize() PaperCheckConfig {
	out := c
	def := DefaultPaperCheckConfig()

	if out.Extraction.MinAbstractLength <= 0 {
		out.Extraction.MinAbstractLength = def.Extraction.MinAbstractLength
	}
	if out.Extraction.MaxStatements <= 0 {
		out.Extraction.MaxStatements = def.Extraction.MaxStatements
	}
	if out.Counter.MinLength <= 0 {
		out.Counter.MinLength = def.Counter.MinLength
	}
	if out.HyDE.NumAbstracts <= 0 {
		out.HyDE.NumAbstracts = def.HyDE.NumAbstracts
	}
	if out.HyDE.MaxKeywords <= 0 {
		out.HyDE.MaxKeywords = def.HyDE.MaxKeywords
	}
	if out.HyDE.MinAbstractLength <= 0 {
		out.HyDE.MinAbstractLength = def.HyDE.MinAbstractLength
	}
	if out.Search.SemanticLimit <= 0 {
		out.Search.SemanticLimit = def.Search.SemanticLimit
	}
	if out.Search.HyDELimit <= 0 {
		out.Search.HyDELimit = def.Search.HyDELimit
	}
	if out.Search.KeywordLimit <= 0 {
		out.Search.KeywordLimit = def.Search.KeywordLimit
	}
	if out.Search.StrategyTimeout <= 0 {
		out.Search.StrategyTimeout = def.Search.StrategyTimeout
	}
	if out.Scoring.Threshold < MinRelevanceScore || out.Scoring.Threshold > MaxRelevanceScore {
		out.Scoring.Threshold = def.Scoring.Threshold
	}
	if out.Scoring.BatchSize <= 0 {
		out.Scoring.BatchSize = def.Scoring.BatchSize
	}
	if out.Scoring.EarlyStopCount <= 0 {
		out.Scoring.EarlyStopCount = def.Scoring.EarlyStopCount
	}
	if out.Scoring.MaxConcurrency <= 0 {
		out.Scoring.MaxConcurrency = def.Scoring.MaxConcurrency
	}
	if out.Scoring.MinCitationScore < MinRelevanceScore || out.Scoring.MinCitationScore > MaxRelevanceScore {
		out.Scoring.MinCitationScore = def.Scoring.MinCitationScore
	}
	if out.Scoring.MaxCitations <= 0 {
		out.Scoring.MaxCitations = def.Scoring.MaxCitations
	}
	if out.Scoring.MinRelevance < 0 || out.Scoring.MinRelevance > 1 {
		out.Scoring.MinRelevance = def.Scoring.MinRelevance
	}
	if out.Report.MinLength <= 0 {
		out.Report.MinLength = def.Report.MinLength
	}
	if out.Report.MinSentenceLength <= 0 {
		out.Report.MinSentenceLength = def.Report.MinSentenceLength
	}
	if out.Report.LexicalDiversityThreshold <= 0 || out.Report.LexicalDiversityThreshold > 1 {
		out.Report.LexicalDiversityThreshold = def.Report.LexicalDiversityThreshold
	}
	if out.Report.DiversityMinWords <= 0 {
		out.Report.DiversityMinWords = def.Report.DiversityMinWords
	}
	if out.Verdict.MinRationaleLength <= 0 {
		out.Verdict.MinRationaleLength = def.Verdict.MinRationaleLength
	}
	return out
}

// Snapshot flattens the settings that explain a result, for its metadata.
func (c PaperCheckConfig) Snapshot() map[string]any {
	return map[string]any{
		"max_statements":     c.Extraction.MaxStatements,
		"num_hyde_abstracts": c.HyDE.NumAbstracts,
		"max_keywords":       c.HyDE.MaxKeywords,
		"semantic_limit":     c.Search.SemanticLimit,
		"hyde_limit":         c.Search.HyDELimit,
		"keyword_limit":      c.Search.KeywordLimit,
		"score_threshold":    c.Scoring.Threshold,
		"batch_size":         c.Scoring.BatchSize,
		"early_stop_count":   c.Scoring.EarlyStopCount,
		"min_citation_score": c.Scoring.MinCitationScore,
		"max_citations":      c.Scoring.MaxCitations,
	}
}

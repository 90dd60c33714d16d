package domain

import "fmt"

type SearchStrategy string

const (
	StrategySemantic SearchStrategy = "semantic"
	StrategyHyDE     SearchStrategy = "hyde"
	StrategyKeyword  SearchStrategy = "keyword"
)

// SearchStrategies lists the strategies in their canonical order.
var SearchStrategies = []SearchStrategy{StrategySemantic, StrategyHyDE, StrategyKeyword}

func (s SearchStrategy) Valid() bool {
	switch s {
	case StrategySemantic, StrategyHyDE, StrategyKeyword:
		return true
	default:
		return false
	}
}

// SearchResults holds per-strategy hits and their union with provenance.
type SearchResults struct {
	SemanticDocs     []string                    `json:"semantic_docs"`
	HyDEDocs         []string                    `json:"hyde_docs"`
	KeywordDocs      []string                    `json:"keyword_docs"`
	DeduplicatedDocs []string                    `json:"deduplicated_docs"`
	Provenance       map[string][]SearchStrategy `json:"provenance"`
	FailedStrategies []SearchStrategy            `json:"failed_strategies,omitempty"`
}

// MergeSearchResults unions the three id lists. Ids keep first-seen order
// (semantic, then hyde, then keyword) and provenance lists use canonical order.
func MergeSearchResults(semantic, hyde, keyword []string) SearchResults {
	out := SearchResults{
		SemanticDocs: dedupeIDs(semantic),
		HyDEDocs:     dedupeIDs(hyde),
		KeywordDocs:  dedupeIDs(keyword),
		Provenance:   make(map[string][]SearchStrategy),
	}

	add := func(ids []string, strategy SearchStrategy) {
		for _, id := range ids {
			if _, seen := out.Provenance[id]; !seen {
				out.DeduplicatedDocs = append(out.DeduplicatedDocs, id)
			}
			out.Provenance[id] = append(out.Provenance[id], strategy)
		}
	}
	add(out.SemanticDocs, StrategySemantic)
	add(out.HyDEDocs, StrategyHyDE)
	add(out.KeywordDocs, StrategyKeyword)

	if out.DeduplicatedDocs == nil {
		out.DeduplicatedDocs = []string{}
	}
	return out
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// FoundBy returns the strategies that surfaced id.
func (r SearchResults) FoundBy(id string) []SearchStrategy {
	found := r.Provenance[id]
	out := make([]SearchStrategy, len(found))
	copy(out, found)
	return out
}

// Validate checks that the union and the provenance keys describe the same set.
func (r SearchResults) Validate() error {
	if len(r.DeduplicatedDocs) != len(r.Provenance) {
		return Validationf("validate search results", "%d deduplicated docs but %d provenance entries", len(r.DeduplicatedDocs), len(r.Provenance))
	}
	seen := make(map[string]struct{}, len(r.DeduplicatedDocs))
	for _, id := range r.DeduplicatedDocs {
		if _, dup := seen[id]; dup {
			return Validationf("validate search results", "duplicate id %s", id)
		}
		seen[id] = struct{}{}
		strategies, ok := r.Provenance[id]
		if !ok || len(strategies) == 0 {
			return Validationf("validate search results", "id %s has no provenance", id)
		}
		for _, s := range strategies {
			if !s.Valid() {
				return Validationf("validate search results", "id %s has unknown strategy %q", id, s)
			}
		}
	}
	return nil
}

// StrategyCounts returns the number of hits per strategy.
func (r SearchResults) StrategyCounts() map[SearchStrategy]int {
	return map[SearchStrategy]int{
		StrategySemantic: len(r.SemanticDocs),
		StrategyHyDE:     len(r.HyDEDocs),
		StrategyKeyword:  len(r.KeywordDocs),
	}
}

// ProvenanceSummary counts documents per strategy combination, e.g. "hyde+keyword".
func (r SearchResults) ProvenanceSummary() map[string]int {
	out := make(map[string]int)
	for _, strategies := range r.Provenance {
		key := ""
		for i, s := range strategies {
			if i > 0 {
				key += "+"
			}
			key += string(s)
		}
		out[key]++
	}
	return out
}

func (r SearchResults) String() string {
	return fmt.Sprintf("semantic=%d hyde=%d keyword=%d unique=%d", len(r.SemanticDocs), len(r.HyDEDocs), len(r.KeywordDocs), len(r.DeduplicatedDocs))
}

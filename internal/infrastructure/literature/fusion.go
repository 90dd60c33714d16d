package literature

import (
	"sort"

	"github.com/kirillkom/paper-checker/internal/infrastructure/vector/qdrant"
)

const defaultRRFK = 60

// fuseRRF merges ranked hit lists with reciprocal rank fusion. Ties break
// by document id so the order is deterministic.
func fuseRRF(lists [][]qdrant.Hit, rrfK int) []string {
	if rrfK <= 0 {
		rrfK = defaultRRFK
	}
	scores := make(map[string]float64)
	for _, hits := range lists {
		seen := make(map[string]struct{}, len(hits))
		rank := 0
		for _, hit := range hits {
			if _, dup := seen[hit.DocID]; dup {
				continue
			}
			seen[hit.DocID] = struct{}{}
			scores[hit.DocID] += 1.0 / float64(rrfK+rank+1)
			rank++
		}
	}

	out := make([]string, 0, len(scores))
	for id := range scores {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if scores[out[i]] != scores[out[j]] {
			return scores[out[i]] > scores[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func trimIDs(ids []string, limit int) []string {
	if limit <= 0 || len(ids) <= limit {
		return ids
	}
	return ids[:limit]
}

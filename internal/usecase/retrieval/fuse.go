package retrieval

import (
	"sort"

	"github.com/vimo-cloud/ragstore/internal/domain/record"
)

// Fuse merges the semantic and keyword legs into one ranking. Records are
// identified by (content, source); a record present in both legs gets
// alpha*semantic + (1-alpha)*keyword, a record in one leg keeps its single
// weighted score. The two score scales are combined as-is. Semantic entries
// are inserted first, so ties resolve in favour of the semantic leg.
func Fuse(semantic, keyword []record.Record, alpha float64) []record.Record {
	index := make(map[record.Key]int, len(semantic)+len(keyword))
	fused := make([]record.Record, 0, len(semantic)+len(keyword))

	for _, r := range semantic {
		r.Score *= alpha
		index[record.KeyOf(r)] = len(fused)
		fused = append(fused, r)
	}

	for _, r := range keyword {
		key := record.KeyOf(r)
		if i, ok := index[key]; ok {
			fused[i].Score += (1 - alpha) * r.Score
			continue
		}
		r.Score *= 1 - alpha
		index[key] = len(fused)
		fused = append(fused, r)
	}

	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}

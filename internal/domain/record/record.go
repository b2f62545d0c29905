// Package record defines the unit returned to callers after retrieval and fusion.
package record

// SearchType labels which retrieval leg produced a record.
type SearchType string

const (
	// Semantic marks records retrieved by vector similarity.
	Semantic SearchType = "semantic"
	// Keyword marks records retrieved by full-text relevance.
	Keyword SearchType = "keyword"
)

// Record is a single retrieval hit. Score scale depends on SearchType:
// cosine similarity for semantic hits, text-rank for keyword hits. The
// scales are deliberately not normalized before fusion.
type Record struct {
	Content    string     `json:"content"`
	Title      string     `json:"title,omitempty"`
	Source     string     `json:"source,omitempty"`
	Type       string     `json:"type,omitempty"`
	Score      float64    `json:"score"`
	SearchType SearchType `json:"search_type"`
}

// Key identifies a record across retrieval legs: two records are the same
// item when both content and source match.
type Key struct {
	Content string
	Source  string
}

// KeyOf returns the fusion key for a record.
func KeyOf(r Record) Key {
	return Key{Content: r.Content, Source: r.Source}
}

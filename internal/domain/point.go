package domain

// Point is one stored (id, embedding, payload) triple inside a collection.
// The embedding length must equal the owning collection's dimension; the
// point repository enforces this on every write.
type Point struct {
	ID        string
	Embedding []float32
	Payload   map[string]any
}

// PayloadString returns the payload value at key if it is a string.
func (p Point) PayloadString(key string) string {
	if v, ok := p.Payload[key].(string); ok {
		return v
	}
	return ""
}

// ScoredPoint pairs a point with its cosine similarity for a query.
type ScoredPoint struct {
	Point
	Score float64
}

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

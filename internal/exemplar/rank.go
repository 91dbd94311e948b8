package exemplar

import (
	"sort"
	"strings"

	"lexdraft/api/internal/embed"
	"lexdraft/api/internal/store"
)

const (
	titleMatchBoost = 0.25
	textMatchBoost  = 0.15
)

// Scored pairs an exemplar with its relevance to a query.
type Scored struct {
	store.Exemplar
	Score float64
}

// Rank scores items against query. A blank query scores everything 0 and
// keeps the input order. Otherwise the score is the cosine similarity of the
// embeddings (when both exist) plus boosts for a case-insensitive match in
// the title and in the extracted text, sorted by score then recency.
func Rank(query string, queryEmbedding []float32, items []store.Exemplar) []Scored {
	out := make([]Scored, len(items))
	for i, item := range items {
		out[i] = Scored{Exemplar: item}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return out
	}

	lowered := strings.ToLower(query)
	for i := range out {
		score := 0.0
		if len(queryEmbedding) > 0 && len(out[i].Embedding) > 0 {
			score += embed.Cosine(queryEmbedding, out[i].Embedding)
		}
		if strings.Contains(strings.ToLower(out[i].Title), lowered) {
			score += titleMatchBoost
		}
		if strings.Contains(strings.ToLower(out[i].ExtractedText), lowered) {
			score += textMatchBoost
		}
		out[i].Score = score
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].UpdatedAt.After(out[b].UpdatedAt)
	})
	return out
}

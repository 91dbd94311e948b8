package research

import "sort"

const (
	semanticWeight = 0.75
	keywordWeight  = 0.25
	maxSuggestions = 20
)

// Merge combines semantic and keyword matches by case. Semantic rows keep
// their order of first appearance; a keyword row for a case already present
// raises its keyword score to the larger value. Results are sorted by
// combined score, then citation count, and capped at 20.
func Merge(semantic, keyword []Suggestion) []Suggestion {
	merged := make([]Suggestion, 0, len(semantic)+len(keyword))
	index := make(map[int64]int, len(semantic)+len(keyword))

	for _, row := range semantic {
		if _, ok := index[row.DocumentID]; ok {
			continue
		}
		row.SemanticScore = row.Similarity
		row.KeywordScore = 0
		index[row.DocumentID] = len(merged)
		merged = append(merged, row)
	}

	for _, row := range keyword {
		if i, ok := index[row.DocumentID]; ok {
			if row.KeywordScore > merged[i].KeywordScore {
				merged[i].KeywordScore = row.KeywordScore
			}
			continue
		}
		row.Similarity = 0
		row.SemanticScore = 0
		index[row.DocumentID] = len(merged)
		merged = append(merged, row)
	}

	for i := range merged {
		merged[i].CombinedScore = merged[i].SemanticScore*semanticWeight + merged[i].KeywordScore*keywordWeight
	}

	sort.SliceStable(merged, func(a, b int) bool {
		if merged[a].CombinedScore != merged[b].CombinedScore {
			return merged[a].CombinedScore > merged[b].CombinedScore
		}
		return merged[a].CitedByCount > merged[b].CitedByCount
	})

	if len(merged) > maxSuggestions {
		merged = merged[:maxSuggestions]
	}
	return merged
}

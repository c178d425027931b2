package catalog

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// SuggestThreshold is the minimum Levenshtein similarity for a suggested term.
const SuggestThreshold = 0.5

type suggestion struct {
	term  string
	score float32
}

// SuggestTerms returns up to limit canonical dictionary terms close to text,
// most similar first. It is meant for queries that found no dictionary row.
func (e *Engine) SuggestTerms(text string, limit int) []string {
	st := e.snapshot()
	key := NormalizeText(text)
	if st.dict == nil || key == "" || limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var found []suggestion
	for r := 0; r < st.dict.Len(); r++ {
		term := st.dict.normalized(r, canonicalColumn)
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		score, err := edlib.StringsSimilarity(key, term, edlib.Levenshtein)
		if err != nil || score < SuggestThreshold {
			continue
		}
		found = append(found, suggestion{term: term, score: score})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].score != found[j].score {
			return found[i].score > found[j].score
		}
		return found[i].term < found[j].term
	})
	if len(found) > limit {
		found = found[:limit]
	}
	out := make([]string, len(found))
	for i, s := range found {
		out[i] = s.term
	}
	return out
}

package retriever

import (
	"sort"
	"strings"

	"github.com/kamusis/askrepo/internal/qa"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

// KeywordSearch ranks chunks by the fraction of distinct query words their
// normalized text contains. Chunks matching no word are dropped. Ties keep
// index order. It needs no embeddings provider.
func KeywordSearch(chunks []vectorindex.Chunk, query string, limit int) []Result {
	tokens := tokenize(query)
	if len(tokens) == 0 || limit <= 0 {
		return []Result{}
	}

	out := []Result{}
	for _, c := range chunks {
		blob := qa.Normalize(c.Path + " " + c.Text)
		var matched int
		for _, tok := range tokens {
			if strings.Contains(blob, tok) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		out = append(out, Result{Chunk: c, Score: float32(matched) / float32(len(tokens))})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tokenize returns the distinct normalized words of q, skipping words of
// fewer than three letters.
func tokenize(q string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Fields(qa.Normalize(q)) {
		if len([]rune(p)) < 3 || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

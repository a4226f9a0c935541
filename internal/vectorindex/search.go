package vectorindex

import "sort"

// Search returns the k rows with the highest inner product against query,
// by descending score with ties broken by ascending row. The result has
// min(k, Size()) entries; k <= 0 yields none.
func (idx *Index) Search(query []float32, k int) ([]Hit, error) {
	n := idx.Size()
	if k <= 0 || n == 0 {
		return nil, nil
	}
	if len(query) != idx.Header.Dim {
		return nil, ErrVectorLengthMismatch
	}

	hits := make([]Hit, n)
	for i := 0; i < n; i++ {
		s, _ := Dot(query, idx.Row(i))
		hits[i] = Hit{Row: i, Score: s}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Row < hits[b].Row
	})
	return hits[:min(k, n)], nil
}

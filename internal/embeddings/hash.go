package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashDim is the dimension of the hash embedder when none is given.
const DefaultHashDim = 256

// Hash is an offline embedder based on signed feature hashing of lower-cased
// words and their character trigrams. It needs no network and no model
// download, so it serves tests and air-gapped builds.
type Hash struct {
	dim int
}

// NewHash returns a hash embedder producing vectors of length dim.
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = DefaultHashDim
	}
	return &Hash{dim: dim}
}

func (h *Hash) ModelID() string { return fmt.Sprintf("hash-%d", h.dim) }
func (h *Hash) Dim() int        { return h.dim }

func (h *Hash) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float32, h.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, w := range words {
		h.add(v, "w:"+w, 1)
		r := []rune("^" + w + "$")
		for i := 0; i+3 <= len(r); i++ {
			h.add(v, "t:"+string(r[i:i+3]), 0.5)
		}
	}
	return v, nil
}

func (h *Hash) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, h, texts)
}

func (h *Hash) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

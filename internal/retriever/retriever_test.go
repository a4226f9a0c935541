package retriever

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/askrepo/internal/embeddings"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

func buildIndex(t *testing.T, dir string, p embeddings.Provider, chunks []vectorindex.Chunk) (string, string) {
	t.Helper()
	indexPath := filepath.Join(dir, "index.f32")
	metaPath := filepath.Join(dir, "meta.json")

	var vectors []float32
	for _, c := range chunks {
		v, err := p.Embed(context.Background(), c.Text)
		require.NoError(t, err)
		vectors = append(vectors, vectorindex.NormalizeL2(v)...)
	}
	idx := &vectorindex.Index{
		Header:  vectorindex.Header{Dim: p.Dim(), ModelID: p.ModelID()},
		Meta:    chunks,
		Vectors: vectors,
	}
	require.NoError(t, vectorindex.Write(indexPath, metaPath, idx))
	return indexPath, metaPath
}

var shopChunks = []vectorindex.Chunk{
	{Path: "README.md", Text: "instalação do projeto com pip install"},
	{Path: "shop/views.py", Text: "def checkout pagamento do carrinho"},
	{Path: "shop/models.py", Text: "class Produto preço estoque"},
	{Path: "docs/deploy.md", Text: "deploy com docker compose"},
}

func TestQuery_ReturnsMostSimilarFirst(t *testing.T) {
	p := embeddings.NewHash(256)
	indexPath, metaPath := buildIndex(t, t.TempDir(), p, shopChunks)
	r := New(p, indexPath, metaPath, time.Minute, nil)

	require.True(t, r.Exists())
	res, err := r.Query(context.Background(), "como fazer o pagamento do carrinho", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "shop/views.py", res[0].Chunk.Path)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	p := embeddings.NewHash(64)
	indexPath, metaPath := buildIndex(t, t.TempDir(), p, shopChunks)
	r := New(p, indexPath, metaPath, 0, nil)

	res, err := r.Query(context.Background(), "docker", 50)
	require.NoError(t, err)
	assert.Len(t, res, len(shopChunks))

	res, err = r.Query(context.Background(), "docker", 0)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestQuery_MissingIndex(t *testing.T) {
	dir := t.TempDir()
	r := New(embeddings.NewHash(8), filepath.Join(dir, "index.f32"), filepath.Join(dir, "meta.json"), 0, nil)

	assert.False(t, r.Exists())
	_, err := r.Query(context.Background(), "x", 3)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.True(t, IsNotBuilt(err))
}

func TestQuery_ModelMismatch(t *testing.T) {
	indexPath, metaPath := buildIndex(t, t.TempDir(), embeddings.NewHash(32), shopChunks)
	r := New(embeddings.NewHash(16), indexPath, metaPath, 0, nil)

	_, err := r.Query(context.Background(), "x", 3)
	assert.ErrorIs(t, err, vectorindex.ErrIndexMismatch)
}

func TestQuery_PicksUpRebuiltIndex(t *testing.T) {
	dir := t.TempDir()
	p := embeddings.NewHash(64)
	indexPath, metaPath := buildIndex(t, dir, p, shopChunks[:1])
	r := New(p, indexPath, metaPath, time.Hour, nil)

	res, err := r.Query(context.Background(), "deploy", 10)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	buildIndex(t, dir, p, shopChunks)
	// Make the stamp change observable even on coarse mtime filesystems.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(indexPath, future, future))

	res, err = r.Query(context.Background(), "deploy", 10)
	require.NoError(t, err)
	assert.Len(t, res, len(shopChunks))
}

func TestReload_FlushesCache(t *testing.T) {
	p := embeddings.NewHash(64)
	indexPath, metaPath := buildIndex(t, t.TempDir(), p, shopChunks)
	r := New(p, indexPath, metaPath, time.Hour, nil)

	_, err := r.Query(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.cache.ItemCount())

	r.Reload()
	assert.Equal(t, 0, r.cache.ItemCount())
}

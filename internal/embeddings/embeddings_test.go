package embeddings

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHash_DeterministicAndSimilar(t *testing.T) {
	h := NewHash(128)
	ctx := context.Background()

	a1, err := h.Embed(ctx, "Como instalar o projeto?")
	require.NoError(t, err)
	a2, err := h.Embed(ctx, "como INSTALAR o projeto")
	require.NoError(t, err)
	b, err := h.Embed(ctx, "função de pagamento do carrinho")
	require.NoError(t, err)

	assert.Len(t, a1, 128)
	assert.Equal(t, a1, a2)
	assert.Greater(t, cosine(a1, a2), cosine(a1, b))
	assert.Equal(t, "hash-128", h.ModelID())
}

func TestHash_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHash(8).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenAI_BatchMapsByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, []string{"first", "second"}, req.Input)

		// Out of order on purpose.
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0,1,0]},
			{"object":"embedding","index":0,"embedding":[1,0,0]}
		]}`))
	}))
	defer srv.Close()

	p := NewOpenAI(&Config{Provider: "openai", APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	out, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, out)
	assert.Equal(t, 3, p.Dim())
	assert.Equal(t, "openai:text-embedding-3-small", p.ModelID())
}

func TestOpenAI_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(&Config{APIKey: "k", BaseURL: srv.URL + "/v1"})
	_, err := p.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestOpenAI_RejectsEmptyText(t *testing.T) {
	p := NewOpenAI(&Config{APIKey: "k", BaseURL: "http://127.0.0.1:1/v1"})
	_, err := p.Embed(context.Background(), "  ")
	assert.Error(t, err)
}

func TestOllama_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		_, _ = w.Write([]byte(`{"embedding":[0.5,0.25]}`))
	}))
	defer srv.Close()

	p := NewOllama(&Config{BaseURL: srv.URL})
	out, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.25}, {0.5, 0.25}}, out)
	assert.Equal(t, 2, p.Dim())
}

func TestOllama_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllama(&Config{BaseURL: srv.URL}).Embed(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNewFromConfig(t *testing.T) {
	_, err := NewFromConfig(nil)
	assert.Error(t, err)

	_, err = NewFromConfig(&Config{})
	assert.Error(t, err)

	_, err = NewFromConfig(&Config{Provider: "openai"})
	assert.Error(t, err, "openai without key")

	p, err := NewFromConfig(&Config{Provider: "hash", Model: "hash-64"})
	require.NoError(t, err)
	assert.Equal(t, 64, p.Dim())

	_, err = NewFromConfig(&Config{Provider: "hash", Model: "big"})
	assert.Error(t, err)

	_, err = NewFromConfig(&Config{Provider: "cohere"})
	assert.Error(t, err)
}

func TestLoadConfig_FallsBackToOpenAIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ASKREPO_EMBEDDINGS_PROVIDER", "")
	t.Setenv("ASKREPO_EMBEDDINGS_MODEL", "")
	t.Setenv("ASKREPO_EMBEDDINGS_API_KEY", "")
	t.Setenv("ASKREPO_EMBEDDINGS_BASE_URL", "")
	t.Setenv("OPENAI_API_KEY", "sk-shared")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-shared", cfg.APIKey)
}

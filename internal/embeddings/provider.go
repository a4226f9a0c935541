package embeddings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kamusis/askrepo/internal/config"
)

// Provider embeds text into a fixed-length float vector.
//
// Implementations must be deterministic for the same input text and model.
// Dim reports 0 until the dimension is known.
type Provider interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config contains the resolved embeddings configuration.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// LoadConfig resolves embeddings config from environment variables first, then ~/.askrepo/.env.
func LoadConfig() (*Config, error) {
	get := func(keys ...string) (string, error) {
		for _, k := range keys {
			v, err := config.GetConfigValue(k)
			if err != nil {
				return "", err
			}
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
		return "", nil
	}

	provider, err := get("ASKREPO_EMBEDDINGS_PROVIDER")
	if err != nil {
		return nil, err
	}
	model, err := get("ASKREPO_EMBEDDINGS_MODEL")
	if err != nil {
		return nil, err
	}
	apiKey, err := get("ASKREPO_EMBEDDINGS_API_KEY", "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	baseURL, err := get("ASKREPO_EMBEDDINGS_BASE_URL")
	if err != nil {
		return nil, err
	}
	if provider == "" && apiKey != "" {
		provider = "openai"
	}

	return &Config{
		Provider: strings.ToLower(provider),
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
	}, nil
}

// NewFromConfig returns an embeddings provider.
func NewFromConfig(cfg *Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embeddings config is nil")
	}
	if cfg.Provider == "" {
		return nil, fmt.Errorf("embeddings provider is not configured (set ASKREPO_EMBEDDINGS_PROVIDER)")
	}
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embeddings API key is not configured (set ASKREPO_EMBEDDINGS_API_KEY)")
		}
		return NewOpenAI(cfg), nil
	case "ollama":
		return NewOllama(cfg), nil
	case "hash":
		dim := DefaultHashDim
		if cfg.Model != "" {
			n, err := strconv.Atoi(strings.TrimPrefix(cfg.Model, "hash-"))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid hash embeddings model %q (want hash-<dim>)", cfg.Model)
			}
			dim = n
		}
		return NewHash(dim), nil
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}

// embedEach embeds texts one at a time, for backends without a batch endpoint.
func embedEach(ctx context.Context, p Provider, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

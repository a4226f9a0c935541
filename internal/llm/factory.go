package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kamusis/askrepo/internal/config"
)

// ErrNotConfigured means the selected provider lacks its credentials, so no
// generator is available.
var ErrNotConfigured = errors.New("llm provider not configured")

// DefaultGeminiModels is the failover order for Gemini, cheapest and highest
// quota first.
var DefaultGeminiModels = []string{"gemini-1.5-flash", "gemini-1.0-pro", "gemini-1.5-pro"}

const (
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultOllamaModel = "llama3"
)

// Settings is the resolved provider configuration.
type Settings struct {
	Provider    string
	Models      []string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	CallTimeout time.Duration
}

// ResolveSettings combines the llm config section with secrets from the
// environment or ~/.askrepo/.env.
func ResolveSettings(cfg config.LLMConfig) (Settings, error) {
	s := Settings{
		Provider:    strings.ToLower(strings.TrimSpace(cfg.Provider)),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		CallTimeout: cfg.CallTimeout,
	}
	if s.Provider == "" {
		s.Provider = "openai"
	}

	var keyVar, urlVar string
	switch s.Provider {
	case "openai":
		keyVar, urlVar = "OPENAI_API_KEY", "OPENAI_BASE_URL"
		s.Models = []string{firstNonEmpty(cfg.Model, DefaultOpenAIModel)}
	case "gemini":
		keyVar, urlVar = "GEMINI_API_KEY", "GEMINI_BASE_URL"
		s.Models = cfg.Models
		if len(s.Models) == 0 {
			s.Models = DefaultGeminiModels
		}
	case "ollama":
		urlVar = "OLLAMA_BASE_URL"
		s.Models = []string{firstNonEmpty(cfg.Model, DefaultOllamaModel)}
	default:
		return s, fmt.Errorf("unsupported llm provider: %s", s.Provider)
	}

	if keyVar != "" {
		v, err := config.GetConfigValue(keyVar)
		if err != nil {
			return s, err
		}
		s.APIKey = strings.TrimSpace(v)
	}
	v, err := config.GetConfigValue(urlVar)
	if err != nil {
		return s, err
	}
	s.BaseURL = strings.TrimSpace(v)
	return s, nil
}

// NewGateway builds the gateway for s. It returns ErrNotConfigured when the
// provider needs an API key and none is set.
func NewGateway(s Settings, log *zap.Logger) (*Gateway, error) {
	var backend Backend
	switch s.Provider {
	case "openai":
		if s.APIKey == "" {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrNotConfigured)
		}
		backend = NewOpenAI(s.APIKey, s.BaseURL, s.MaxTokens, s.Temperature)
	case "gemini":
		if s.APIKey == "" {
			return nil, fmt.Errorf("%w: set GEMINI_API_KEY", ErrNotConfigured)
		}
		backend = NewGemini(s.APIKey, s.BaseURL, s.MaxTokens, s.Temperature)
	case "ollama":
		backend = NewOllama(s.BaseURL, s.MaxTokens, s.Temperature)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", s.Provider)
	}
	if len(s.Models) == 0 {
		return nil, fmt.Errorf("%w: no models for %s", ErrNotConfigured, s.Provider)
	}

	g := &Gateway{CallTimeout: s.CallTimeout, Logger: log}
	for _, m := range s.Models {
		g.Candidates = append(g.Candidates, Candidate{Backend: backend, Model: m})
	}
	return g, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// IndexConfig controls the offline index build.
type IndexConfig struct {
	Path        string   `yaml:"path"`
	MetaPath    string   `yaml:"meta_path"`
	BatchSize   int      `yaml:"batch_size"`
	Workers     int      `yaml:"workers"`
	Extensions  []string `yaml:"extensions,omitempty"`
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`
}

// RetrievalConfig controls query-time retrieval.
type RetrievalConfig struct {
	TopK     int           `yaml:"top_k"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ClassifierConfig points at the trained classifier artifacts.
type ClassifierConfig struct {
	Dir       string  `yaml:"dir"`
	Threshold float64 `yaml:"threshold"`
	MaxLen    int     `yaml:"max_len"`
	Epochs    int     `yaml:"epochs"`
}

// QAConfig describes where the exact-match question table comes from.
type QAConfig struct {
	APIURL    string        `yaml:"api_url,omitempty"`
	CachePath string        `yaml:"cache_path"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LLMConfig selects the generator provider and its call parameters.
type LLMConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model,omitempty"`
	Models        []string      `yaml:"models,omitempty"`
	MaxTokens     int           `yaml:"max_tokens"`
	Temperature   float32       `yaml:"temperature"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	ContextBudget int           `yaml:"context_budget"`
}

// ResolverConfig bounds a single resolution.
type ResolverConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls the structured log file.
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Config is the in-memory representation of ~/.askrepo/askrepo.yaml.
type Config struct {
	ProjectRoot string           `yaml:"project_root"`
	DataDir     string           `yaml:"data_dir"`
	Index       IndexConfig      `yaml:"index"`
	Retrieval   RetrievalConfig  `yaml:"retrieval"`
	Classifier  ClassifierConfig `yaml:"classifier"`
	QA          QAConfig         `yaml:"qa"`
	LLM         LLMConfig        `yaml:"llm"`
	Resolver    ResolverConfig   `yaml:"resolver"`
	Log         LogConfig        `yaml:"log"`
}

// AskrepoDir returns the absolute path to ~/.askrepo/.
func AskrepoDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".askrepo"), nil
}

// ConfigPath returns the absolute path to ~/.askrepo/askrepo.yaml.
func ConfigPath() (string, error) {
	dir, err := AskrepoDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "askrepo.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration used when no askrepo.yaml exists.
func DefaultConfig() (*Config, error) {
	dir, err := AskrepoDir()
	if err != nil {
		return nil, err
	}
	data := filepath.Join(dir, "data")

	return &Config{
		ProjectRoot: ".",
		DataDir:     data,
		Index: IndexConfig{
			Path:      filepath.Join(data, "index.f32"),
			MetaPath:  filepath.Join(data, "meta.json"),
			BatchSize: 32,
			Workers:   4,
		},
		Retrieval: RetrievalConfig{
			TopK:     3,
			CacheTTL: 10 * time.Minute,
		},
		Classifier: ClassifierConfig{
			Dir:       filepath.Join(data, "classifier"),
			Threshold: 0.75,
			MaxLen:    10,
			Epochs:    200,
		},
		QA: QAConfig{
			CachePath: filepath.Join(data, "qa_cache.json"),
			Timeout:   5 * time.Second,
		},
		LLM: LLMConfig{
			Provider:      "openai",
			MaxTokens:     300,
			Temperature:   0.1,
			CallTimeout:   45 * time.Second,
			ContextBudget: 4000,
		},
		Resolver: ResolverConfig{
			Timeout: 90 * time.Second,
		},
		Log: LogConfig{
			File:  filepath.Join(dir, "logs", "askrepo.log"),
			Level: "info",
		},
	}, nil
}

// Load reads and parses ~/.askrepo/askrepo.yaml, falling back to DefaultConfig
// when the file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save marshals cfg and writes it to ~/.askrepo/askrepo.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	lookup := func(key string) (string, error) {
		v, err := GetConfigValue(key)
		return strings.TrimSpace(v), err
	}

	if v, err := lookup("LLM_PROVIDER"); err != nil {
		return err
	} else if v != "" {
		c.LLM.Provider = strings.ToLower(v)
	}
	switch c.LLM.Provider {
	case "openai":
		if v, err := lookup("OPENAI_MODEL"); err != nil {
			return err
		} else if v != "" {
			c.LLM.Model = v
		}
	case "ollama":
		if v, err := lookup("OLLAMA_MODEL"); err != nil {
			return err
		} else if v != "" {
			c.LLM.Model = v
		}
	case "gemini":
		if v, err := lookup("GEMINI_MODELS"); err != nil {
			return err
		} else if v != "" {
			c.LLM.Models = splitList(v)
		}
	}
	if v, err := lookup("QA_API_URL"); err != nil {
		return err
	} else if v != "" {
		c.QA.APIURL = v
	}
	if v, err := lookup("ASKREPO_LOG_LEVEL"); err != nil {
		return err
	} else if v != "" {
		c.Log.Level = v
	}
	if v, err := lookup("ASKREPO_INDEX_WORKERS"); err != nil {
		return err
	} else if v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid ASKREPO_INDEX_WORKERS: %q", v)
		}
		c.Index.Workers = n
	}
	return nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.ProjectRoot, &c.DataDir, &c.Index.Path, &c.Index.MetaPath,
		&c.Classifier.Dir, &c.QA.CachePath, &c.Log.File,
	} {
		v, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kamusis/askrepo/internal/answer"
	"github.com/kamusis/askrepo/internal/classifier"
	"github.com/kamusis/askrepo/internal/config"
	"github.com/kamusis/askrepo/internal/embeddings"
	"github.com/kamusis/askrepo/internal/llm"
	"github.com/kamusis/askrepo/internal/logging"
	"github.com/kamusis/askrepo/internal/qa"
	"github.com/kamusis/askrepo/internal/retriever"
)

// loadConfig reads --config or ~/.askrepo/askrepo.yaml.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfigPath != "" {
		cfg, err = config.LoadFile(flagConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'askrepo init' first.", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the log section. --verbose adds
// a stderr sink.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	opts := logging.Options{File: cfg.Log.File, Level: cfg.Log.Level}
	if flagVerbose {
		opts.Console = true
	}
	log, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("cannot set up logging: %w", err)
	}
	return log, nil
}

// newEmbeddingsProvider resolves the embeddings provider. model, when set,
// overrides ASKREPO_EMBEDDINGS_MODEL.
func newEmbeddingsProvider(model string) (embeddings.Provider, error) {
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	if model != "" {
		embCfg.Model = model
	}
	return embeddings.NewFromConfig(embCfg)
}

func newQAStore(cfg *config.Config, log *zap.Logger) *qa.Store {
	return qa.NewStore(&qa.Source{
		APIURL:    cfg.QA.APIURL,
		CachePath: cfg.QA.CachePath,
		Timeout:   cfg.QA.Timeout,
		Logger:    log.Named("qa"),
	})
}

// newResolver wires every available answer source. Missing pieces (no
// classifier artifacts, no embeddings provider, no LLM key) are logged and
// left out; the resolver skips them.
func newResolver(ctx context.Context, cfg *config.Config, log *zap.Logger) (*answer.Resolver, error) {
	store := newQAStore(cfg, log)
	origin := store.Load(ctx)
	log.Info("qa table loaded", zap.String("origin", string(origin)), zap.Int("questions", store.Snapshot().Len()))

	r := &answer.Resolver{
		QA: store,
		Options: answer.Options{
			Threshold:     cfg.Classifier.Threshold,
			TopK:          cfg.Retrieval.TopK,
			ContextBudget: cfg.LLM.ContextBudget,
			Timeout:       cfg.Resolver.Timeout,
		},
		Logger: log.Named("resolver"),
	}

	cls, err := classifier.Load(cfg.Classifier.Dir)
	switch {
	case errors.Is(err, classifier.ErrArtifactsMissing):
		log.Info("classifier not trained; skipping", zap.String("dir", cfg.Classifier.Dir))
	case err != nil:
		return nil, fmt.Errorf("cannot load classifier: %w", err)
	default:
		r.Classifier = cls
	}

	prov, err := newEmbeddingsProvider("")
	if err != nil {
		log.Warn("embeddings provider unavailable; retrieval disabled", zap.Error(err))
	} else {
		r.Retriever = retriever.New(prov, cfg.Index.Path, cfg.Index.MetaPath, cfg.Retrieval.CacheTTL, log.Named("retriever"))
	}

	gen, err := newGateway(cfg, log)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Info("no generator configured", zap.Error(err))
	case err != nil:
		return nil, err
	default:
		r.Generator = gen
	}
	return r, nil
}

func newGateway(cfg *config.Config, log *zap.Logger) (*llm.Gateway, error) {
	settings, err := llm.ResolveSettings(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return llm.NewGateway(settings, log.Named("llm"))
}

// Package answer resolves a user question to an answer and follow-up
// suggestions, trying the cheapest source first.
package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kamusis/askrepo/internal/classifier"
	"github.com/kamusis/askrepo/internal/llm"
	"github.com/kamusis/askrepo/internal/retriever"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

// Apology is returned when no strategy produced an answer.
const Apology = "Desculpe, não tenho certeza de como responder a isso. Pode reformular a pergunta?"

const (
	DefaultThreshold      = 0.75
	DefaultTopK           = 3
	DefaultFallbackChunks = 2
	DefaultTimeout        = 90 * time.Second
)

// Source names the strategy that produced a Result.
type Source string

const (
	SourceExact      Source = "exact"
	SourceClassifier Source = "classifier"
	SourceGenerated  Source = "generated"
	SourceRetrieved  Source = "retrieved"
	SourceExtractive Source = "extractive"
	SourceDefault    Source = "default"
)

// QATable answers questions by exact normalized match.
type QATable interface {
	Lookup(question string) (string, bool)
}

// Classifier predicts the most likely QA answer for a question.
type Classifier interface {
	Predict(text string) (classifier.Prediction, error)
}

// Retriever finds the chunks most similar to a question.
type Retriever interface {
	Exists() bool
	Query(ctx context.Context, text string, k int) ([]retriever.Result, error)
}

// Generator produces a completion for a grounded prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*llm.Generation, error)
}

// Result is what the caller shows the user. Suggestions is never nil.
type Result struct {
	Answer      string
	Suggestions []string
	Source      Source
}

// Options tunes the resolver. Zero values select the defaults.
type Options struct {
	// Threshold is the classifier probability that must be exceeded.
	Threshold      float64
	TopK           int
	FallbackChunks int
	ContextBudget  int
	Timeout        time.Duration
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.FallbackChunks <= 0 {
		o.FallbackChunks = DefaultFallbackChunks
	}
	if o.ContextBudget <= 0 {
		o.ContextBudget = llm.DefaultContextBudget
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Resolver walks exact match, classifier, retrieval-augmented generation and
// the apology, in that order. Any nil dependency skips its step.
type Resolver struct {
	QA         QATable
	Classifier Classifier
	Retriever  Retriever
	Generator  Generator
	Options    Options
	Logger     *zap.Logger
}

// Resolve never fails: every error degrades to the next strategy and the
// apology is the last resort.
func (r *Resolver) Resolve(ctx context.Context, question string) (res Result) {
	opts := r.Options.withDefaults()
	log := r.logger().With(zap.String("request_id", uuid.NewString()))
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			log.Error("resolver panic", zap.String("panic", fmt.Sprint(p)), zap.Stack("stack"))
			res = apology()
		}
		log.Info("question resolved",
			zap.String("source", string(res.Source)),
			zap.Duration("elapsed", time.Since(start)))
	}()

	if r.QA != nil {
		if ans, ok := r.QA.Lookup(question); ok {
			return Result{Answer: ans, Suggestions: []string{}, Source: SourceExact}
		}
	}

	if r.Classifier != nil {
		pred, err := r.Classifier.Predict(question)
		switch {
		case err != nil:
			log.Warn("classifier failed", zap.Error(err))
		case pred.Probability > opts.Threshold:
			return Result{Answer: pred.Answer, Suggestions: []string{}, Source: SourceClassifier}
		default:
			log.Debug("classifier below threshold",
				zap.Int("class", pred.Index), zap.Float64("probability", pred.Probability))
		}
	}

	if r.Retriever == nil || !r.Retriever.Exists() {
		log.Debug("no index available")
		return apology()
	}
	results, err := r.Retriever.Query(ctx, question, opts.TopK)
	if err != nil {
		log.Warn("retrieval failed", zap.Error(err))
		return apology()
	}
	if len(results) == 0 {
		return apology()
	}
	chunks := make([]vectorindex.Chunk, len(results))
	for i, hit := range results {
		chunks[i] = hit.Chunk
	}

	if r.Generator == nil {
		return Result{Answer: echoChunks(chunks, opts.FallbackChunks), Suggestions: []string{}, Source: SourceRetrieved}
	}

	prompt := llm.BuildPrompt(llm.BuildContext(chunks, opts.ContextBudget), question)
	gen, err := r.Generator.Generate(ctx, prompt)
	if err != nil {
		log.Warn("generation failed, using extractive summary", zap.Error(err))
		return Result{Answer: summarize(chunks), Suggestions: []string{}, Source: SourceExtractive}
	}
	ans, suggestions := Parse(gen.Text)
	return Result{Answer: ans, Suggestions: suggestions, Source: SourceGenerated}
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func apology() Result {
	return Result{Answer: Apology, Suggestions: []string{}, Source: SourceDefault}
}

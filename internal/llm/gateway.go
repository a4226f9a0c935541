// Package llm talks to the text generation providers and assembles the
// grounded prompts sent to them.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultCallTimeout bounds a single backend call.
const DefaultCallTimeout = 45 * time.Second

// Backend is one provider API.
type Backend interface {
	Name() string
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Candidate is a backend and the model to ask it for.
type Candidate struct {
	Backend Backend
	Model   string
}

// Failure records why one candidate did not produce text.
type Failure struct {
	Provider string
	Model    string
	Err      error
}

// Generation is a successful completion.
type Generation struct {
	Text     string
	Provider string
	Model    string
	// Failures lists the candidates that failed before this one.
	Failures []Failure
}

// GenerationError means every candidate failed. It unwraps to the last
// underlying error.
type GenerationError struct {
	Failures []Failure
}

func (e *GenerationError) Error() string {
	if len(e.Failures) == 0 {
		return "generation failed: no candidates configured"
	}
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s/%s: %v", f.Provider, f.Model, f.Err)
	}
	return "generation failed: " + strings.Join(parts, "; ")
}

func (e *GenerationError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1].Err
}

// Gateway tries its candidates strictly in order until one answers.
type Gateway struct {
	Candidates  []Candidate
	CallTimeout time.Duration
	Logger      *zap.Logger
}

// Generate sends prompt to each candidate in turn, each under its own
// timeout. A failure moves on to the next candidate; only exhaustion (or a
// done ctx) returns *GenerationError.
func (g *Gateway) Generate(ctx context.Context, prompt string) (*Generation, error) {
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := g.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	var failures []Failure
	for _, c := range g.Candidates {
		if err := ctx.Err(); err != nil {
			failures = append(failures, Failure{Provider: c.Backend.Name(), Model: c.Model, Err: err})
			break
		}
		text, err := g.call(ctx, c, prompt, timeout)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty completion")
		}
		if err != nil {
			log.Warn("generation candidate failed",
				zap.String("provider", c.Backend.Name()), zap.String("model", c.Model), zap.Error(err))
			failures = append(failures, Failure{Provider: c.Backend.Name(), Model: c.Model, Err: err})
			continue
		}
		log.Info("generation succeeded", zap.String("provider", c.Backend.Name()), zap.String("model", c.Model))
		return &Generation{
			Text:     strings.TrimSpace(text),
			Provider: c.Backend.Name(),
			Model:    c.Model,
			Failures: failures,
		}, nil
	}
	return nil, &GenerationError{Failures: failures}
}

func (g *Gateway) call(ctx context.Context, c Candidate, prompt string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Backend.Complete(ctx, c.Model, prompt)
}

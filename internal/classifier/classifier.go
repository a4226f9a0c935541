// Package classifier trains and serves the intent classifier that maps a
// question to one of the QA table answers.
//
// Training happens offline and writes versioned artifacts; the request path
// only loads them.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
)

// ErrArtifactsMissing means no trained classifier exists at the given path.
var ErrArtifactsMissing = errors.New("classifier artifacts not found")

// Prediction is the arg-max class of one input and its probability.
type Prediction struct {
	Index       int
	Probability float64
	Answer      string
}

// Classifier bundles the tokenizer, the model and the answer of every class.
type Classifier struct {
	Tokenizer *Tokenizer
	Model     *Model
	Questions []string
	Answers   []string
}

// TrainOptions controls Train. Zero values select the defaults.
type TrainOptions struct {
	MaxLen       int
	EmbedDim     int
	Hidden       int
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         uint64
	// Progress, when set, receives the mean loss after every epoch.
	Progress func(epoch int, loss float64)
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.MaxLen <= 0 {
		o.MaxLen = 10
	}
	if o.EmbedDim <= 0 {
		o.EmbedDim = 8
	}
	if o.Hidden <= 0 {
		o.Hidden = 16
	}
	if o.Epochs <= 0 {
		o.Epochs = 200
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.LearningRate <= 0 {
		o.LearningRate = 0.001
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	return o
}

// Train fits a classifier with one class per question of pairs. Questions are
// ordered lexically so the same pairs and seed give the same model.
func Train(ctx context.Context, pairs map[string]string, opts TrainOptions) (*Classifier, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no QA pairs to train on")
	}
	opts = opts.withDefaults()

	questions := slices.Sorted(maps.Keys(pairs))
	answers := make([]string, len(questions))
	for i, q := range questions {
		answers[i] = pairs[q]
	}

	tok := FitTokenizer(questions)
	xs := make([][]int, len(questions))
	for i, q := range questions {
		xs[i] = tok.Encode(q, opts.MaxLen)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	model := newModel(tok.VocabSize(), opts.EmbedDim, opts.Hidden, len(questions), opts.MaxLen, rng)
	opt := newAdam(model, opts.LearningRate)

	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var total float64
		for start := 0; start < len(order); start += opts.BatchSize {
			batch := order[start:min(start+opts.BatchSize, len(order))]
			grads := model.zeroGrads()
			for _, i := range batch {
				total += model.backward(xs[i], i, grads)
			}
			opt.step(model, grads, len(batch))
		}
		if opts.Progress != nil {
			opts.Progress(epoch, total/float64(len(order)))
		}
	}

	return &Classifier{Tokenizer: tok, Model: model, Questions: questions, Answers: answers}, nil
}

// Predict encodes text and returns the most probable class.
func (c *Classifier) Predict(text string) (Prediction, error) {
	if c == nil || c.Tokenizer == nil || c.Model == nil {
		return Prediction{}, fmt.Errorf("classifier is not loaded")
	}
	probs := c.Model.Predict(c.Tokenizer.Encode(text, c.Model.MaxLen))
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	if best >= len(c.Answers) {
		return Prediction{}, fmt.Errorf("class %d has no answer", best)
	}
	return Prediction{Index: best, Probability: probs[best], Answer: c.Answers[best]}, nil
}

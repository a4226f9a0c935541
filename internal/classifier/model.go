package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Model is embedding -> global average pooling -> dense ReLU -> dense softmax.
// Matrices are stored row-major in flat slices.
type Model struct {
	Vocab    int `json:"vocab"`
	EmbedDim int `json:"embed_dim"`
	Hidden   int `json:"hidden"`
	Classes  int `json:"classes"`
	MaxLen   int `json:"max_len"`

	Embedding []float64 `json:"embedding"` // Vocab x EmbedDim
	W1        []float64 `json:"w1"`        // Hidden x EmbedDim
	B1        []float64 `json:"b1"`
	W2        []float64 `json:"w2"` // Classes x Hidden
	B2        []float64 `json:"b2"`
}

func newModel(vocab, embedDim, hidden, classes, maxLen int, rng *rand.Rand) *Model {
	m := &Model{
		Vocab: vocab, EmbedDim: embedDim, Hidden: hidden, Classes: classes, MaxLen: maxLen,
		Embedding: make([]float64, vocab*embedDim),
		W1:        make([]float64, hidden*embedDim),
		B1:        make([]float64, hidden),
		W2:        make([]float64, classes*hidden),
		B2:        make([]float64, classes),
	}
	for i := range m.Embedding {
		m.Embedding[i] = (rng.Float64()*2 - 1) * 0.05
	}
	glorot(m.W1, embedDim, hidden, rng)
	glorot(m.W2, hidden, classes, rng)
	return m
}

func glorot(w []float64, fanIn, fanOut int, rng *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

func (m *Model) validate() error {
	switch {
	case m.Vocab <= 0 || m.EmbedDim <= 0 || m.Hidden <= 0 || m.Classes <= 0 || m.MaxLen <= 0:
		return fmt.Errorf("invalid model shape %dx%d/%d/%d len %d", m.Vocab, m.EmbedDim, m.Hidden, m.Classes, m.MaxLen)
	case len(m.Embedding) != m.Vocab*m.EmbedDim:
		return fmt.Errorf("embedding has %d values, want %d", len(m.Embedding), m.Vocab*m.EmbedDim)
	case len(m.W1) != m.Hidden*m.EmbedDim || len(m.B1) != m.Hidden:
		return fmt.Errorf("hidden layer shape mismatch")
	case len(m.W2) != m.Classes*m.Hidden || len(m.B2) != m.Classes:
		return fmt.Errorf("output layer shape mismatch")
	}
	return nil
}

// activations holds the intermediate values of one forward pass.
type activations struct {
	pooled []float64
	z1     []float64
	h      []float64
	probs  []float64
}

func (m *Model) forward(seq []int) activations {
	a := activations{
		pooled: make([]float64, m.EmbedDim),
		z1:     make([]float64, m.Hidden),
		h:      make([]float64, m.Hidden),
		probs:  make([]float64, m.Classes),
	}
	for _, id := range seq {
		if id < 0 || id >= m.Vocab {
			id = 0
		}
		row := m.Embedding[id*m.EmbedDim : (id+1)*m.EmbedDim]
		for d, v := range row {
			a.pooled[d] += v
		}
	}
	for d := range a.pooled {
		a.pooled[d] /= float64(len(seq))
	}

	for j := 0; j < m.Hidden; j++ {
		z := m.B1[j]
		w := m.W1[j*m.EmbedDim : (j+1)*m.EmbedDim]
		for d, v := range a.pooled {
			z += w[d] * v
		}
		a.z1[j] = z
		a.h[j] = max(z, 0)
	}

	for c := 0; c < m.Classes; c++ {
		z := m.B2[c]
		w := m.W2[c*m.Hidden : (c+1)*m.Hidden]
		for j, v := range a.h {
			z += w[j] * v
		}
		a.probs[c] = z
	}
	softmax(a.probs)
	return a
}

// Predict returns the class probabilities for an encoded sequence.
func (m *Model) Predict(seq []int) []float64 {
	return m.forward(seq).probs
}

func softmax(z []float64) {
	top := math.Inf(-1)
	for _, v := range z {
		top = max(top, v)
	}
	var sum float64
	for i, v := range z {
		z[i] = math.Exp(v - top)
		sum += z[i]
	}
	for i := range z {
		z[i] /= sum
	}
}

// params returns the trainable slices in a fixed order.
func (m *Model) params() [][]float64 {
	return [][]float64{m.Embedding, m.W1, m.B1, m.W2, m.B2}
}

func (m *Model) zeroGrads() *Model {
	return &Model{
		Vocab: m.Vocab, EmbedDim: m.EmbedDim, Hidden: m.Hidden, Classes: m.Classes, MaxLen: m.MaxLen,
		Embedding: make([]float64, len(m.Embedding)),
		W1:        make([]float64, len(m.W1)),
		B1:        make([]float64, len(m.B1)),
		W2:        make([]float64, len(m.W2)),
		B2:        make([]float64, len(m.B2)),
	}
}

// backward accumulates the cross-entropy gradients of one example into g
// and returns its loss.
func (m *Model) backward(seq []int, label int, g *Model) float64 {
	a := m.forward(seq)
	loss := -math.Log(max(a.probs[label], 1e-12))

	dz2 := a.probs
	dz2[label] -= 1

	dh := make([]float64, m.Hidden)
	for c := 0; c < m.Classes; c++ {
		g.B2[c] += dz2[c]
		w := m.W2[c*m.Hidden : (c+1)*m.Hidden]
		gw := g.W2[c*m.Hidden : (c+1)*m.Hidden]
		for j, hv := range a.h {
			gw[j] += dz2[c] * hv
			dh[j] += dz2[c] * w[j]
		}
	}

	dPooled := make([]float64, m.EmbedDim)
	for j := 0; j < m.Hidden; j++ {
		if a.z1[j] <= 0 {
			continue
		}
		dz1 := dh[j]
		g.B1[j] += dz1
		w := m.W1[j*m.EmbedDim : (j+1)*m.EmbedDim]
		gw := g.W1[j*m.EmbedDim : (j+1)*m.EmbedDim]
		for d, pv := range a.pooled {
			gw[d] += dz1 * pv
			dPooled[d] += dz1 * w[d]
		}
	}

	scale := 1 / float64(len(seq))
	for _, id := range seq {
		if id < 0 || id >= m.Vocab {
			id = 0
		}
		ge := g.Embedding[id*m.EmbedDim : (id+1)*m.EmbedDim]
		for d, v := range dPooled {
			ge[d] += v * scale
		}
	}
	return loss
}

// adam is the Adam optimizer state for one model.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  [][]float64
}

func newAdam(model *Model, lr float64) *adam {
	o := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7}
	for _, p := range model.params() {
		o.m = append(o.m, make([]float64, len(p)))
		o.v = append(o.v, make([]float64, len(p)))
	}
	return o
}

func (o *adam) step(model, grads *Model, batch int) {
	o.t++
	c1 := 1 - math.Pow(o.beta1, float64(o.t))
	c2 := 1 - math.Pow(o.beta2, float64(o.t))
	gs := grads.params()
	for i, p := range model.params() {
		m, v, g := o.m[i], o.v[i], gs[i]
		for k := range p {
			gk := g[k] / float64(batch)
			m[k] = o.beta1*m[k] + (1-o.beta1)*gk
			v[k] = o.beta2*v[k] + (1-o.beta2)*gk*gk
			p[k] -= o.lr * (m[k] / c1) / (math.Sqrt(v[k]/c2) + o.eps)
		}
	}
}

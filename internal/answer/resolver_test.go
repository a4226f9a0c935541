package answer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/askrepo/internal/chunk"
	"github.com/kamusis/askrepo/internal/classifier"
	"github.com/kamusis/askrepo/internal/corpus"
	"github.com/kamusis/askrepo/internal/embeddings"
	"github.com/kamusis/askrepo/internal/llm"
	"github.com/kamusis/askrepo/internal/qa"
	"github.com/kamusis/askrepo/internal/retriever"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

type stubClassifier struct {
	pred  classifier.Prediction
	err   error
	calls int
}

func (s *stubClassifier) Predict(string) (classifier.Prediction, error) {
	s.calls++
	return s.pred, s.err
}

type stubRetriever struct {
	exists  bool
	results []retriever.Result
	err     error
	calls   int
}

func (s *stubRetriever) Exists() bool { return s.exists }

func (s *stubRetriever) Query(_ context.Context, _ string, k int) ([]retriever.Result, error) {
	s.calls++
	if len(s.results) > k {
		return s.results[:k], s.err
	}
	return s.results, s.err
}

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (*llm.Generation, error) {
	s.prompt = prompt
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Generation{Text: s.text, Provider: "stub", Model: "m"}, nil
}

type panicClassifier struct{}

func (panicClassifier) Predict(string) (classifier.Prediction, error) { panic("boom") }

func hits(chunks ...vectorindex.Chunk) []retriever.Result {
	out := make([]retriever.Result, len(chunks))
	for i, c := range chunks {
		out[i] = retriever.Result{Chunk: c, Score: float32(len(chunks) - i)}
	}
	return out
}

var docChunks = []vectorindex.Chunk{
	{Path: "docs/README.md", Text: "O sistema gerencia pedidos. Permite exportar relatórios. Tem login. Suporta temas."},
	{Path: "requirements.txt", Text: "Django==4.2\nflask>=2\nrequests"},
	{Path: "app/views.py", Text: "def export(): pass"},
}

func newTable() *qa.Table {
	return qa.NewTable(map[string]string{"Como faço login?": "Use o botão Entrar."})
}

func TestResolve_ExactMatchOutranksEverything(t *testing.T) {
	cls := &stubClassifier{pred: classifier.Prediction{Probability: 0.99, Answer: "classifier"}}
	ret := &stubRetriever{exists: true, results: hits(docChunks...)}
	r := &Resolver{QA: newTable(), Classifier: cls, Retriever: ret, Generator: &stubGenerator{text: "gen"}}

	res := r.Resolve(context.Background(), "  como FAÇO login ")
	assert.Equal(t, "Use o botão Entrar.", res.Answer)
	assert.Equal(t, []string{}, res.Suggestions)
	assert.Equal(t, SourceExact, res.Source)
	assert.Zero(t, cls.calls)
	assert.Zero(t, ret.calls)
}

func TestResolve_ThresholdIsExclusive(t *testing.T) {
	for _, tc := range []struct {
		prob float64
		want Source
	}{
		{0.75, SourceDefault},
		{0.7500001, SourceClassifier},
	} {
		cls := &stubClassifier{pred: classifier.Prediction{Probability: tc.prob, Answer: "resposta do classificador"}}
		r := &Resolver{QA: newTable(), Classifier: cls, Retriever: &stubRetriever{}}

		res := r.Resolve(context.Background(), "outra pergunta")
		assert.Equal(t, tc.want, res.Source, "probability %v", tc.prob)
		assert.Empty(t, res.Suggestions)
	}
}

func TestResolve_NoIndexReturnsApology(t *testing.T) {
	cls := &stubClassifier{pred: classifier.Prediction{Probability: 0.2}}
	ret := &stubRetriever{exists: false, results: hits(docChunks...)}
	r := &Resolver{QA: newTable(), Classifier: cls, Retriever: ret}

	res := r.Resolve(context.Background(), "pergunta desconhecida")
	assert.Equal(t, Result{Answer: Apology, Suggestions: []string{}, Source: SourceDefault}, res)
	assert.Zero(t, ret.calls)
}

func TestResolve_EmptyRetrievalReturnsApology(t *testing.T) {
	r := &Resolver{Retriever: &stubRetriever{exists: true}, Generator: &stubGenerator{text: "x"}}
	assert.Equal(t, SourceDefault, r.Resolve(context.Background(), "q").Source)
}

func TestResolve_RetrievalErrorReturnsApology(t *testing.T) {
	r := &Resolver{Retriever: &stubRetriever{exists: true, err: &retriever.Error{Op: "load", Err: vectorindex.ErrIndexMismatch}}}
	assert.Equal(t, Apology, r.Resolve(context.Background(), "q").Answer)
}

func TestResolve_EchoesFirstTwoChunksWithoutGenerator(t *testing.T) {
	r := &Resolver{Retriever: &stubRetriever{exists: true, results: hits(docChunks...)}}

	res := r.Resolve(context.Background(), "o que o sistema faz?")
	assert.Equal(t, SourceRetrieved, res.Source)
	assert.Equal(t, echoPrefix+
		"--- Trecho 1 do arquivo 'docs/README.md' ---\n"+docChunks[0].Text+"\n\n"+
		"--- Trecho 2 do arquivo 'requirements.txt' ---\n"+docChunks[1].Text, res.Answer)
	assert.NotContains(t, res.Answer, "app/views.py")
	assert.Equal(t, []string{}, res.Suggestions)
}

func TestResolve_GeneratedAnswerIsParsed(t *testing.T) {
	gen := &stubGenerator{text: "Clique em Exportar.\nSUGESTÕES:\n- Como filtrar?\n- Como imprimir?"}
	r := &Resolver{
		Classifier: &stubClassifier{pred: classifier.Prediction{Probability: 0.1}},
		Retriever:  &stubRetriever{exists: true, results: hits(docChunks...)},
		Generator:  gen,
	}

	res := r.Resolve(context.Background(), "Como exporto relatórios?")
	assert.Equal(t, Result{
		Answer:      "Clique em Exportar.",
		Suggestions: []string{"Como filtrar?", "Como imprimir?"},
		Source:      SourceGenerated,
	}, res)
	assert.Contains(t, gen.prompt, "Arquivo: docs/README.md\n")
	assert.Contains(t, gen.prompt, "Como exporto relatórios?")
}

func TestResolve_GenerationFailureUsesExtractiveSummary(t *testing.T) {
	failure := &llm.GenerationError{Failures: []llm.Failure{{Provider: "gemini", Model: "flash", Err: errors.New("quota")}}}
	r := &Resolver{
		Retriever: &stubRetriever{exists: true, results: hits(docChunks...)},
		Generator: &stubGenerator{err: failure},
	}

	res := r.Resolve(context.Background(), "sobre o que é o projeto?")
	assert.Equal(t, SourceExtractive, res.Source)
	assert.Equal(t, []string{}, res.Suggestions)
	assert.Equal(t, extractivePrefix+
		"Analisando o arquivo 'docs/README.md', parece que o projeto é sobre o seguinte: "+
		"\"O sistema gerencia pedidos.  Permite exportar relatórios.  Tem login...\"\n"+
		"Ele parece utilizar tecnologias como: Django, Flask.\n"+
		"Encontrei essas informações nos arquivos: docs/README.md, requirements.txt, app/views.py.", res.Answer)
}

func TestResolve_ClassifierErrorFallsThrough(t *testing.T) {
	r := &Resolver{
		Classifier: &stubClassifier{err: errors.New("not loaded")},
		Retriever:  &stubRetriever{exists: true, results: hits(docChunks[0])},
	}
	assert.Equal(t, SourceRetrieved, r.Resolve(context.Background(), "q").Source)
}

func TestResolve_PanicBecomesApology(t *testing.T) {
	r := &Resolver{Classifier: panicClassifier{}}
	res := r.Resolve(context.Background(), "q")
	assert.Equal(t, SourceDefault, res.Source)
	assert.Equal(t, Apology, res.Answer)
}

func TestResolve_AllDependenciesNil(t *testing.T) {
	assert.Equal(t, SourceDefault, (&Resolver{}).Resolve(context.Background(), "q").Source)
}

func TestResolve_DeadlineReachesGenerator(t *testing.T) {
	var deadline time.Time
	gen := generatorFunc(func(ctx context.Context, _ string) (*llm.Generation, error) {
		deadline, _ = ctx.Deadline()
		return &llm.Generation{Text: "ok"}, nil
	})
	r := &Resolver{
		Retriever: &stubRetriever{exists: true, results: hits(docChunks[0])},
		Generator: gen,
		Options:   Options{Timeout: time.Minute},
	}
	r.Resolve(context.Background(), "q")
	require.False(t, deadline.IsZero())
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

type generatorFunc func(ctx context.Context, prompt string) (*llm.Generation, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (*llm.Generation, error) {
	return f(ctx, prompt)
}

func TestResolve_EndToEndWithBuiltIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "guia.md"), "# Guia\n\n## Exportar\n\nPara exportar relatórios clique em Exportar no menu Relatórios.\n\n## Login\n\nUse o botão Entrar com seu e-mail.")
	writeFile(t, filepath.Join(root, "notas.txt"), "Notas gerais sobre temas e cores.")

	provider := embeddings.NewHash(128)
	data := t.TempDir()
	indexPath, metaPath := filepath.Join(data, "index.f32"), filepath.Join(data, "meta.json")
	b := &vectorindex.Builder{Reader: &corpus.Reader{}, Chunker: chunk.Chunker{}, Provider: provider}
	_, err := b.Build(context.Background(), root, indexPath, metaPath)
	require.NoError(t, err)

	r := &Resolver{
		QA:        qa.NewTable(qa.DefaultPairs()),
		Retriever: retriever.New(provider, indexPath, metaPath, time.Minute, nil),
		Options:   Options{TopK: 1},
	}

	res := r.Resolve(context.Background(), "bom dia!")
	assert.Equal(t, SourceExact, res.Source)

	res = r.Resolve(context.Background(), "como exportar relatórios no menu")
	assert.Equal(t, SourceRetrieved, res.Source)
	assert.Equal(t, 1, strings.Count(res.Answer, "--- Trecho"))
	assert.Contains(t, res.Answer, "Exportar")
}

func writeFile(t *testing.T, p, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

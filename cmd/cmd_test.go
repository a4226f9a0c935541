package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kamusis/askrepo/internal/answer"
	"github.com/kamusis/askrepo/internal/config"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

// isolate points HOME at a temp dir and clears provider settings.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "GEMINI_API_KEY", "GEMINI_MODELS",
		"QA_API_URL", "ASKREPO_EMBEDDINGS_PROVIDER", "ASKREPO_EMBEDDINGS_MODEL",
		"ASKREPO_EMBEDDINGS_API_KEY", "ASKREPO_EMBEDDINGS_BASE_URL", "ASKREPO_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.Execute()
}

func TestInitCommand_WritesConfigAndTemplate(t *testing.T) {
	home := isolate(t)

	require.NoError(t, execute(t, "init"))

	assert.FileExists(t, filepath.Join(home, ".askrepo", "askrepo.yaml"))
	assert.FileExists(t, filepath.Join(home, ".askrepo", ".env"))
	assert.DirExists(t, filepath.Join(home, ".askrepo", "data"))

	// A second run keeps the existing files.
	require.NoError(t, os.WriteFile(filepath.Join(home, ".askrepo", ".env"), []byte("LLM_PROVIDER=gemini\n"), 0o600))
	require.NoError(t, execute(t, "init"))
	b, err := os.ReadFile(filepath.Join(home, ".askrepo", ".env"))
	require.NoError(t, err)
	assert.Equal(t, "LLM_PROVIDER=gemini\n", string(b))
}

func TestIndexCommand_BuildsAlignedIndex(t *testing.T) {
	isolate(t)
	t.Setenv("ASKREPO_EMBEDDINGS_PROVIDER", "hash")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# App\n\n## Login\n\nUse o botão Entrar.\n\n## Exportar\n\nClique em Exportar."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	out := t.TempDir()
	indexPath, metaPath := filepath.Join(out, "index.f32"), filepath.Join(out, "meta.json")
	require.NoError(t, execute(t, "index", root, "--index", indexPath, "--meta", metaPath, "--model", "hash-64", "--workers", "2"))

	idx, err := vectorindex.Load(indexPath, metaPath)
	require.NoError(t, err)
	assert.Equal(t, len(idx.Meta), idx.Size())
	assert.Equal(t, "hash-64", idx.Header.ModelID)
	assert.Equal(t, 64, idx.Header.Dim)

	t.Setenv("ASKREPO_EMBEDDINGS_MODEL", "hash-64")
	require.NoError(t, execute(t, "query", "--index", indexPath, "--meta", metaPath, "--k", "2", "como", "exportar"))
	require.NoError(t, execute(t, "query", "--keyword", "--meta", metaPath, "exportar"))
	assert.Error(t, execute(t, "query", "--keyword", "--meta", filepath.Join(out, "missing.json"), "exportar"))
}

func TestIndexCommand_EmptyTreeFails(t *testing.T) {
	isolate(t)
	t.Setenv("ASKREPO_EMBEDDINGS_PROVIDER", "hash")

	out := t.TempDir()
	err := execute(t, "index", t.TempDir(), "--index", filepath.Join(out, "i"), "--meta", filepath.Join(out, "m"))
	assert.ErrorIs(t, err, vectorindex.ErrNoDocuments)
	assert.NoFileExists(t, filepath.Join(out, "i"))
}

func TestNewResolver_SkipsUnconfiguredSources(t *testing.T) {
	isolate(t)
	cfg, err := config.Load()
	require.NoError(t, err)

	r, err := newResolver(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, r.Classifier)
	assert.Nil(t, r.Retriever)
	assert.Nil(t, r.Generator)

	res := r.Resolve(context.Background(), "Bom dia")
	assert.Equal(t, answer.SourceExact, res.Source)
	res = r.Resolve(context.Background(), "como configuro o servidor de filas")
	assert.Equal(t, answer.Apology, res.Answer)
}

func TestNewResolver_WiresConfiguredSources(t *testing.T) {
	isolate(t)
	t.Setenv("ASKREPO_EMBEDDINGS_PROVIDER", "hash")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")
	cfg, err := config.Load()
	require.NoError(t, err)

	r, err := newResolver(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, r.Retriever)
	assert.NotNil(t, r.Generator)
	assert.Equal(t, 0.75, r.Options.Threshold)

	reloadSources(context.Background(), r)
	_, ok := r.QA.Lookup("obrigado")
	assert.True(t, ok)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b\t c", 10))
	assert.Equal(t, "ábc…", preview("ábcdef", 3))
}

func TestStatusLine(t *testing.T) {
	var b strings.Builder
	statusLine(&b, "✓", "", "done")
	statusLine(&b, "⚠", "index", "stale")
	assert.Equal(t, "  ✓  done\n  ⚠  [index] stale\n", b.String())
}

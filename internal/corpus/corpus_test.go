package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestRead_FiltersExtensionsAndDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Shop\n")
	writeFile(t, root, "app/views.py", "def index():\n    pass\n")
	writeFile(t, root, "app/logo.png", "binary")
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "Notes.TXT", "upper-case extension\n")
	writeFile(t, root, "node_modules/lib/index.md", "vendored\n")
	writeFile(t, root, ".venv/lib/site.py", "x = 1\n")
	writeFile(t, root, "__pycache__/views.py", "cached\n")

	docs, err := (&Reader{}).Read(root)
	require.NoError(t, err)

	var paths []string
	for _, d := range docs {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"Notes.TXT", "README.md", "app/views.py", "main.go"}, paths)
}

func TestRead_ExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "docs/guide.md", "guide\n")
	writeFile(t, root, "docs/draft.md", "draft\n")
	writeFile(t, root, "build/out.txt", "generated\n")

	r := &Reader{ExcludeGlobs: []string{"draft.*", "build"}}
	docs, err := r.Read(root)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "docs/guide.md", docs[0].Path)
}

func TestRead_DropsInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad.txt", "caf\xff\xfeé ok")

	docs, err := (&Reader{}).Read(root)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "café ok", docs[0].Text)
}

func TestRead_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "a")
	writeFile(t, root, "b.yaml", "b: 1")

	docs, err := (&Reader{Extensions: []string{"yaml"}}).Read(root)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.yaml", docs[0].Path)
}

func TestRead_BadRoot(t *testing.T) {
	root := t.TempDir()
	_, err := (&Reader{}).Read(filepath.Join(root, "missing"))
	assert.Error(t, err)

	writeFile(t, root, "file.txt", "x")
	_, err = (&Reader{}).Read(filepath.Join(root, "file.txt"))
	assert.Error(t, err)
}

func TestRead_EmptyTree(t *testing.T) {
	docs, err := (&Reader{}).Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

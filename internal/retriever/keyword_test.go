package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kamusis/askrepo/internal/vectorindex"
)

func TestKeywordSearch(t *testing.T) {
	chunks := []vectorindex.Chunk{
		{Path: "docs/login.md", Text: "Para entrar use o botão Entrar."},
		{Path: "docs/export.md", Text: "Para EXPORTAR relatórios abra o menu Relatórios."},
		{Path: "docs/temas.md", Text: "Temas e cores."},
		{Path: "docs/relatorios.md", Text: "Relatórios mensais."},
	}

	got := KeywordSearch(chunks, "Exportar os relatórios?", 5)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "docs/export.md", got[0].Chunk.Path)
		assert.InDelta(t, 1.0, got[0].Score, 1e-6)
		assert.Equal(t, "docs/relatorios.md", got[1].Chunk.Path)
		assert.InDelta(t, 0.5, got[1].Score, 1e-6)
	}

	assert.Len(t, KeywordSearch(chunks, "exportar relatórios", 1), 1)
	assert.Empty(t, KeywordSearch(chunks, "a o e", 5))
	assert.Empty(t, KeywordSearch(chunks, "exportar", 0))
}

package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		answer      string
		suggestions []string
	}{
		{"round trip", "Answer text\nSUGESTÕES:\n- Q1\n- Q2", "Answer text", []string{"Q1", "Q2"}},
		{"no marker", "  Just an answer.\n", "Just an answer.", []string{}},
		{"marker without suggestions", "Resposta.\nSUGESTÕES:\n\n  \n", "Resposta.", []string{}},
		{"lower case", "Resposta\nsugestões:\n* Como exportar?", "Resposta", []string{"Como exportar?"}},
		{"unaccented", "Resposta\nSUGESTOES:\n1. Primeira\n2) Segunda", "Resposta", []string{"Primeira", "Segunda"}},
		{"bold marker", "Resposta\n\n**SUGESTÕES:**\n• Uma\n+ Duas\n- Três", "Resposta", []string{"Uma", "Duas", "Três"}},
		{"inline suggestion", "Resposta SUGESTÕES: - Só uma", "Resposta", []string{"Só uma"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, sugg := Parse(tt.raw)
			assert.Equal(t, tt.answer, ans)
			assert.Equal(t, tt.suggestions, sugg)
		})
	}
}

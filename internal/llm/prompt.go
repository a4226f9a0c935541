package llm

import (
	"strings"
	"unicode/utf8"

	"github.com/kamusis/askrepo/internal/vectorindex"
)

// DefaultContextBudget is the maximum number of chunk text characters put
// into one prompt.
const DefaultContextBudget = 4000

// BuildContext renders chunks as "Arquivo: <path>\n<text>\n---\n" blocks
// joined by newlines. Only chunk text counts toward budget; assembly stops
// at the first chunk that would exceed it and never cuts a chunk.
func BuildContext(chunks []vectorindex.Chunk, budget int) string {
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	var (
		blocks []string
		total  int
	)
	for _, c := range chunks {
		n := utf8.RuneCountInString(c.Text)
		if total+n > budget {
			break
		}
		blocks = append(blocks, "Arquivo: "+c.Path+"\n"+c.Text+"\n---\n")
		total += n
	}
	return strings.Join(blocks, "\n")
}

const promptTemplate = `Você é um especialista em experiência do usuário e documentação de software.
Sua missão é ler trechos de um projeto e explicar, para um público sem conhecimento técnico,
o que o usuário consegue fazer e como fazer.

Instruções:
1. Identifique a ação principal que o usuário pode realizar a partir do contexto.
2. Explique em uma ou duas frases para que serve essa funcionalidade.
3. Monte um passo a passo numerado usando os nomes exatos de menus, botões e campos do contexto.
4. Responda somente com base no contexto. Se ele não tratar de uma funcionalidade visível ao usuário,
   diga educadamente que não encontrou informações para responder.
5. Não use jargão técnico e não mencione código ou programação.
6. Termine com uma linha "SUGESTÕES:" seguida de 2 ou 3 perguntas relacionadas, uma por linha,
   cada uma começando com "- ".

Contexto:
{context}

Pergunta:
{question}
`

// BuildPrompt fills the instruction template with context and question.
func BuildPrompt(context, question string) string {
	return strings.NewReplacer("{context}", context, "{question}", question).Replace(promptTemplate)
}

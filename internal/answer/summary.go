package answer

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/kamusis/askrepo/internal/vectorindex"
)

const (
	echoPrefix       = "O modelo de linguagem não está configurado, mas encontrei as seguintes informações relevantes no código:\n\n"
	extractivePrefix = "Não consegui consultar o modelo de linguagem, mas com base nos arquivos, posso te adiantar o seguinte:\n\n"
)

// manifests are dependency files scanned for technology names.
var manifests = map[string]bool{
	"requirements.txt": true,
	"pyproject.toml":   true,
	"pipfile":          true,
	"package.json":     true,
	"go.mod":           true,
}

// technologies maps a lower-case dependency token to its display name.
var technologies = map[string]string{
	"django":     "Django",
	"flask":      "Flask",
	"fastapi":    "FastAPI",
	"react":      "React",
	"vue":        "Vue",
	"express":    "Express",
	"tensorflow": "TensorFlow",
	"torch":      "PyTorch",
	"openai":     "OpenAI",
	"gin-gonic":  "Gin",
	"cobra":      "Cobra",
}

// echoChunks quotes the first n chunks verbatim with their paths.
func echoChunks(chunks []vectorindex.Chunk, n int) string {
	var sb strings.Builder
	sb.WriteString(echoPrefix)
	for i, c := range chunks[:min(n, len(chunks))] {
		fmt.Fprintf(&sb, "--- Trecho %d do arquivo '%s' ---\n%s\n\n", i+1, c.Path, c.Text)
	}
	return strings.TrimSpace(sb.String())
}

// summarize builds a deterministic answer from retrieved chunks: a quote of
// the first chunk, technologies named in any manifest chunk and every path
// touched.
func summarize(chunks []vectorindex.Chunk) string {
	var (
		parts []string
		paths []string
		techs []string
	)
	for _, c := range chunks {
		if !slices.Contains(paths, c.Path) {
			paths = append(paths, c.Path)
		}
		if manifests[strings.ToLower(path.Base(c.Path))] {
			for _, t := range detectTechnologies(c.Text) {
				if !slices.Contains(techs, t) {
					techs = append(techs, t)
				}
			}
		}
	}

	if len(chunks) > 0 {
		parts = append(parts, fmt.Sprintf("Analisando o arquivo '%s', parece que o projeto é sobre o seguinte: \"%s...\"",
			chunks[0].Path, leadingSentences(chunks[0].Text, 3)))
	}
	if len(techs) > 0 {
		slices.Sort(techs)
		parts = append(parts, fmt.Sprintf("Ele parece utilizar tecnologias como: %s.", strings.Join(techs, ", ")))
	}
	parts = append(parts, fmt.Sprintf("Encontrei essas informações nos arquivos: %s.", strings.Join(paths, ", ")))

	return extractivePrefix + strings.Join(parts, "\n")
}

func detectTechnologies(manifest string) []string {
	var out []string
	for _, line := range strings.Split(strings.ToLower(manifest), "\n") {
		for token, name := range technologies {
			if strings.Contains(line, token) && !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	return out
}

// leadingSentences returns the first n "."-separated pieces of text.
func leadingSentences(text string, n int) string {
	pieces := strings.Split(text, ".")
	return strings.TrimSpace(strings.Join(pieces[:min(n, len(pieces))], ". "))
}

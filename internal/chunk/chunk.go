// Package chunk splits documents into retrieval units.
package chunk

import (
	"path"
	"regexp"
	"strings"
)

const (
	DefaultWindowSize = 300
	DefaultOverlap    = 50
)

var headingSplit = regexp.MustCompile(`\n##+ `)

// Chunker splits a document according to its file type. The zero value uses
// DefaultWindowSize and DefaultOverlap for generic text.
type Chunker struct {
	WindowSize int
	Overlap    int
}

// Split chunks text with the default Chunker.
func Split(p, text string) []string {
	return Chunker{}.Split(p, text)
}

// Split returns the chunks of text, dispatching on the extension of p.
// No returned entry is blank.
func (c Chunker) Split(p, text string) []string {
	var chunks []string
	switch strings.ToLower(path.Ext(strings.ReplaceAll(p, "\\", "/"))) {
	case ".go":
		chunks = wholeIfEmpty(goUnits(text), text)
	case ".py":
		chunks = wholeIfEmpty(pythonUnits(text), text)
	case ".md", ".markdown", ".rst":
		chunks = headingSplit.Split(text, -1)
	default:
		chunks = c.windows(text)
	}
	return dropBlank(chunks)
}

// windows cuts text into overlapping word windows.
func (c Chunker) windows(text string) []string {
	size, overlap := c.WindowSize, c.Overlap
	if size <= 0 {
		size = DefaultWindowSize
		if overlap == 0 {
			overlap = DefaultOverlap
		}
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = 0
		}
	}
	stride := size - overlap

	words := strings.Fields(text)
	var out []string
	for i := 0; i < len(words); i += stride {
		end := min(i+size, len(words))
		out = append(out, strings.Join(words[i:end], " "))
	}
	return out
}

// wholeIfEmpty returns the whole text when no unit could be extracted.
func wholeIfEmpty(units []string, text string) []string {
	if len(units) == 0 {
		return []string{text}
	}
	return units
}

func dropBlank(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

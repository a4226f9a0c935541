package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kamusis/askrepo/internal/fsutil"
)

// ArtifactVersion is the current artifact format version.
const ArtifactVersion = 1

const (
	TokenizerFile = "tokenizer.json"
	ModelFile     = "model.json"
	AnswersFile   = "answers.json"
)

type tokenizerArtifact struct {
	ArtifactVersion int `json:"artifact_version"`
	Tokenizer
}

type modelArtifact struct {
	ArtifactVersion int `json:"artifact_version"`
	Model
}

type answersArtifact struct {
	ArtifactVersion int      `json:"artifact_version"`
	Questions       []string `json:"questions"`
	Answers         []string `json:"answers"`
}

// Save writes the three artifacts to dir. Each file is replaced atomically.
func (c *Classifier) Save(dir string) error {
	files := []struct {
		name string
		v    any
	}{
		{TokenizerFile, tokenizerArtifact{ArtifactVersion, *c.Tokenizer}},
		{ModelFile, modelArtifact{ArtifactVersion, *c.Model}},
		{AnswersFile, answersArtifact{ArtifactVersion, c.Questions, c.Answers}},
	}
	for _, f := range files {
		err := fsutil.WriteFileAtomic(filepath.Join(dir, f.name), 0o644, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			return enc.Encode(f.v)
		})
		if err != nil {
			return fmt.Errorf("cannot write %s: %w", f.name, err)
		}
	}
	return nil
}

// Exists reports whether every artifact is present in dir.
func Exists(dir string) bool {
	for _, name := range []string{TokenizerFile, ModelFile, AnswersFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Load reads the artifacts from dir. It returns ErrArtifactsMissing when any
// of them does not exist.
func Load(dir string) (*Classifier, error) {
	var (
		tok tokenizerArtifact
		mod modelArtifact
		ans answersArtifact
	)
	for _, f := range []struct {
		name    string
		v       any
		version *int
	}{
		{TokenizerFile, &tok, &tok.ArtifactVersion},
		{ModelFile, &mod, &mod.ArtifactVersion},
		{AnswersFile, &ans, &ans.ArtifactVersion},
	} {
		p := filepath.Join(dir, f.name)
		b, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactsMissing, p)
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if err := json.Unmarshal(b, f.v); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", p, err)
		}
		if *f.version != ArtifactVersion {
			return nil, fmt.Errorf("%s has artifact version %d, want %d", p, *f.version, ArtifactVersion)
		}
	}

	m := mod.Model
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ModelFile, err)
	}
	if len(ans.Answers) != m.Classes {
		return nil, fmt.Errorf("model has %d classes but %d answers", m.Classes, len(ans.Answers))
	}
	t := tok.Tokenizer
	if t.VocabSize() > m.Vocab {
		return nil, fmt.Errorf("tokenizer vocabulary (%d) exceeds model vocabulary (%d)", t.VocabSize(), m.Vocab)
	}
	return &Classifier{Tokenizer: &t, Model: &m, Questions: ans.Questions, Answers: ans.Answers}, nil
}

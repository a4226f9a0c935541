package vectorindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kamusis/askrepo/internal/chunk"
	"github.com/kamusis/askrepo/internal/corpus"
	"github.com/kamusis/askrepo/internal/embeddings"
	"github.com/kamusis/askrepo/internal/fsutil"
)

const (
	DefaultBatchSize = 32
	DefaultWorkers   = 4

	buildLockTimeout = 30 * time.Second
)

// Builder turns a project tree into a persisted index.
type Builder struct {
	Reader   *corpus.Reader
	Chunker  chunk.Chunker
	Provider embeddings.Provider

	BatchSize int
	Workers   int
	// Force disables reuse of vectors from an existing index built with the
	// same model.
	Force bool

	// Progress, when set, is called after every embedded batch. Calls may
	// come from several goroutines.
	Progress func(done, total int)
	Logger   *zap.Logger
}

// BuildResult summarizes a successful build.
type BuildResult struct {
	Documents int
	Chunks    int
	Embedded  int
	Reused    int
	Dim       int
	ModelID   string
}

// Build reads root, chunks every document, embeds the chunks and writes the
// index and metadata. ErrNoDocuments and ErrNoChunks are returned without
// touching the output paths; embedding and write failures are *BuildError.
func (b *Builder) Build(ctx context.Context, root, indexPath, metaPath string) (*BuildResult, error) {
	if b.Provider == nil {
		return nil, fmt.Errorf("embeddings provider is required")
	}
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reader := b.Reader
	if reader == nil {
		reader = &corpus.Reader{Logger: log}
	}

	docs, err := reader.Read(root)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	var meta []Chunk
	for _, d := range docs {
		for _, c := range b.Chunker.Split(d.Path, d.Text) {
			meta = append(meta, Chunk{Path: d.Path, Text: c})
		}
	}
	if len(meta) == 0 {
		return nil, ErrNoChunks
	}
	log.Info("corpus chunked", zap.Int("documents", len(docs)), zap.Int("chunks", len(meta)))

	release, err := fsutil.AcquireLock(ctx, indexPath+".lock", buildLockTimeout)
	if err != nil {
		return nil, &BuildError{Stage: "lock", Err: err}
	}
	defer release()

	rows := make([][]float32, len(meta))
	reused := 0
	if !b.Force {
		reused = b.reuse(indexPath, metaPath, meta, rows, log)
	}

	if err := b.embedMissing(ctx, meta, rows); err != nil {
		return nil, &BuildError{Stage: "embed", Err: err}
	}

	dim := len(rows[0])
	if dim == 0 {
		return nil, &BuildError{Stage: "embed", Err: fmt.Errorf("provider returned an empty vector")}
	}
	vectors := make([]float32, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, &BuildError{Stage: "embed", Err: fmt.Errorf("%w: row %d has %d values, want %d", ErrVectorLengthMismatch, i, len(r), dim)}
		}
		vectors = append(vectors, NormalizeL2(r)...)
	}

	idx := &Index{
		Header:  Header{Dim: dim, ModelID: b.Provider.ModelID()},
		Meta:    meta,
		Vectors: vectors,
	}
	if err := Write(indexPath, metaPath, idx); err != nil {
		return nil, &BuildError{Stage: "write", Err: err}
	}

	res := &BuildResult{
		Documents: len(docs),
		Chunks:    len(meta),
		Embedded:  len(meta) - reused,
		Reused:    reused,
		Dim:       dim,
		ModelID:   idx.Header.ModelID,
	}
	log.Info("index written",
		zap.String("index", indexPath),
		zap.Int("chunks", res.Chunks),
		zap.Int("reused", res.Reused),
		zap.Int("dim", dim),
		zap.String("model", res.ModelID))
	return res, nil
}

// reuse fills rows whose chunk text is unchanged since the previous build
// with the same model. It returns the number of rows filled.
func (b *Builder) reuse(indexPath, metaPath string, meta []Chunk, rows [][]float32, log *zap.Logger) int {
	h, err := ReadHeader(indexPath)
	if err != nil || h.ModelID != b.Provider.ModelID() {
		return 0
	}
	old, err := Load(indexPath, metaPath)
	if err != nil {
		log.Debug("previous index not reusable", zap.Error(err))
		return 0
	}
	prev := make(map[string][]float32, len(old.Meta))
	for i, c := range old.Meta {
		prev[TextHash(c.Text)] = old.Row(i)
	}
	n := 0
	for i, c := range meta {
		if v, ok := prev[TextHash(c.Text)]; ok {
			rows[i] = v
			n++
		}
	}
	return n
}

// embedMissing embeds every nil row in batches of BatchSize on at most
// Workers goroutines. Each batch writes only its own rows, so the result is
// in chunk order.
func (b *Builder) embedMissing(ctx context.Context, meta []Chunk, rows [][]float32) error {
	var todo []int
	for i, r := range rows {
		if r == nil {
			todo = append(todo, i)
		}
	}
	if len(todo) == 0 {
		return nil
	}

	batch := b.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	workers := b.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var done atomic.Int64
	for start := 0; start < len(todo); start += batch {
		ids := todo[start:min(start+batch, len(todo))]
		g.Go(func() error {
			texts := make([]string, len(ids))
			for j, id := range ids {
				texts[j] = meta[id].Text
			}
			vecs, err := b.Provider.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(ids) {
				return fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(ids))
			}
			for j, id := range ids {
				rows[id] = vecs[j]
			}
			if b.Progress != nil {
				b.Progress(int(done.Add(int64(len(ids)))), len(todo))
			}
			return nil
		})
	}
	return g.Wait()
}

// TextHash returns a sha256 hash (hex) of a chunk's text.
func TextHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

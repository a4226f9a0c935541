// Package retriever answers top-k similarity queries against a persisted
// vector index.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/kamusis/askrepo/internal/embeddings"
	"github.com/kamusis/askrepo/internal/vectorindex"
)

const DefaultCacheTTL = 10 * time.Minute

// Error is a retrieval failure: unreadable or mismatched index, or a failed
// query embedding.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("retrieval %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Result is one retrieved chunk and its similarity to the query.
type Result struct {
	Chunk vectorindex.Chunk
	Score float32
}

type stamp struct {
	size    int64
	modTime time.Time
}

type entry struct {
	idx         *vectorindex.Index
	index, meta stamp
}

// Retriever embeds queries and searches an index. Loaded indexes are cached
// and reused while both files keep the same size and modification time.
type Retriever struct {
	provider  embeddings.Provider
	indexPath string
	metaPath  string
	cache     *cache.Cache
	log       *zap.Logger
}

// New returns a Retriever whose Query and Exists use indexPath and metaPath.
func New(provider embeddings.Provider, indexPath, metaPath string, ttl time.Duration, log *zap.Logger) *Retriever {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{
		provider:  provider,
		indexPath: indexPath,
		metaPath:  metaPath,
		cache:     cache.New(ttl, 2*ttl),
		log:       log,
	}
}

// Exists reports whether both default index files are present.
func (r *Retriever) Exists() bool {
	return fileExists(r.indexPath) && fileExists(r.metaPath)
}

// Reload drops every cached index; the next query reads from disk.
func (r *Retriever) Reload() {
	r.cache.Flush()
}

// Query runs QueryAt on the default paths.
func (r *Retriever) Query(ctx context.Context, text string, k int) ([]Result, error) {
	return r.QueryAt(ctx, text, r.indexPath, r.metaPath, k)
}

// QueryAt returns at most k chunks ordered by descending similarity to text.
// An empty index or k <= 0 yields an empty result.
func (r *Retriever) QueryAt(ctx context.Context, text, indexPath, metaPath string, k int) ([]Result, error) {
	idx, err := r.load(indexPath, metaPath)
	if err != nil {
		return nil, err
	}
	if k <= 0 || idx.Size() == 0 {
		return nil, nil
	}
	if idx.Header.ModelID != r.provider.ModelID() {
		return nil, &Error{Op: "load", Err: fmt.Errorf("%w: index built with %q, query model is %q",
			vectorindex.ErrIndexMismatch, idx.Header.ModelID, r.provider.ModelID())}
	}
	if d := r.provider.Dim(); d != 0 && d != idx.Header.Dim {
		return nil, &Error{Op: "load", Err: fmt.Errorf("%w: index dim %d, query model dim %d",
			vectorindex.ErrIndexMismatch, idx.Header.Dim, d)}
	}

	q, err := r.provider.Embed(ctx, text)
	if err != nil {
		return nil, &Error{Op: "embed", Err: err}
	}
	hits, err := idx.Search(vectorindex.NormalizeL2(q), k)
	if err != nil {
		return nil, &Error{Op: "search", Err: err}
	}

	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Row < 0 || h.Row >= len(idx.Meta) {
			continue
		}
		out = append(out, Result{Chunk: idx.Meta[h.Row], Score: h.Score})
	}
	r.log.Debug("retrieved", zap.Int("k", k), zap.Int("results", len(out)))
	return out, nil
}

func (r *Retriever) load(indexPath, metaPath string) (*vectorindex.Index, error) {
	is, err := statFile(indexPath)
	if err != nil {
		return nil, &Error{Op: "load", Err: err}
	}
	ms, err := statFile(metaPath)
	if err != nil {
		return nil, &Error{Op: "load", Err: err}
	}

	key := indexPath + "\x00" + metaPath
	if v, ok := r.cache.Get(key); ok {
		if e := v.(*entry); e.index == is && e.meta == ms {
			return e.idx, nil
		}
	}

	idx, err := vectorindex.Load(indexPath, metaPath)
	if err != nil {
		return nil, &Error{Op: "load", Err: err}
	}
	r.cache.SetDefault(key, &entry{idx: idx, index: is, meta: ms})
	r.log.Info("index loaded", zap.String("index", indexPath), zap.Int("rows", idx.Size()))
	return idx, nil
}

func statFile(p string) (stamp, error) {
	st, err := os.Stat(p)
	if err != nil {
		return stamp{}, err
	}
	return stamp{size: st.Size(), modTime: st.ModTime()}, nil
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// IsNotBuilt reports whether err means the index files do not exist.
func IsNotBuilt(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

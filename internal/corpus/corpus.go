// Package corpus walks a project tree and returns the text documents that
// feed the retrieval index.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultExtensions are the file types indexed when Reader.Extensions is empty.
var DefaultExtensions = []string{".py", ".go", ".md", ".txt", ".rst", ".json"}

// DefaultExcludeDirs are directory names never descended into.
var DefaultExcludeDirs = []string{
	"venv", ".venv", ".venv_rag", "env", ".git", "node_modules", "__pycache__", "vendor",
}

// Document is one source file. Path is relative to the walk root and
// slash-separated.
type Document struct {
	Path string
	Text string
}

// IngestError reports a file that could not be read. It is logged and the
// file is skipped.
type IngestError struct {
	Path string
	Err  error
}

func (e *IngestError) Error() string { return fmt.Sprintf("ingest %s: %v", e.Path, e.Err) }
func (e *IngestError) Unwrap() error { return e.Err }

// Reader enumerates documents under a root directory.
type Reader struct {
	Extensions   []string
	ExcludeDirs  []string
	ExcludeGlobs []string
	Logger       *zap.Logger
}

// Read walks root in lexical order and returns every eligible document.
// Only an unusable root fails the whole read.
func (r *Reader) Read(root string) ([]Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	exts := make(map[string]bool)
	for _, e := range orDefault(r.Extensions, DefaultExtensions) {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	skipDirs := make(map[string]bool)
	for _, d := range orDefault(r.ExcludeDirs, DefaultExcludeDirs) {
		skipDirs[d] = true
	}
	log := r.logger()

	var docs []Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			log.Debug("skipping unreadable entry", zap.Error(&IngestError{Path: filepath.ToSlash(rel), Err: walkErr}))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if skipDirs[d.Name()] || matchesExclude(rel, r.ExcludeGlobs) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] || matchesExclude(rel, r.ExcludeGlobs) {
			return nil
		}

		b, err := os.ReadFile(path)
		if err != nil {
			log.Debug("skipping unreadable file", zap.Error(&IngestError{Path: filepath.ToSlash(rel), Err: err}))
			return nil
		}
		docs = append(docs, Document{
			Path: filepath.ToSlash(rel),
			Text: strings.ToValidUTF8(string(b), ""),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *Reader) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// matchesExclude reports whether relPath matches any of the given glob patterns.
func matchesExclude(relPath string, patterns []string) bool {
	name := filepath.Base(relPath)
	slashed := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		// Match against the full relative path AND just the basename.
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, slashed); matched {
			return true
		}
	}
	return false
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

// Package fsutil holds the file locking and atomic write helpers shared by
// the index builder and the QA cache.
package fsutil

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 200 * time.Millisecond

// AcquireLock obtains an exclusive lock on lockPath, retrying until timeout
// elapses or ctx is done. The returned func releases the lock.
func AcquireLock(ctx context.Context, lockPath string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock dir: %w", err)
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire lock %s: %w", lockPath, err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another process holds the lock (lock: %s)", lockPath)
		}
		select {
		case <-ctx.Done():
			return func() {}, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

// Staged is a fully written and synced temp file waiting to be renamed over
// its target.
type Staged struct {
	tmp    string
	target string
}

// StageFile writes a temp file next to path through write, syncs it and
// applies perm. Nothing at path changes until Commit.
func StageFile(path string, perm os.FileMode, write func(w io.Writer) error) (*Staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		cleanup()
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return nil, fmt.Errorf("cannot write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return nil, fmt.Errorf("cannot sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("cannot close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("cannot chmod %s: %w", tmpName, err)
	}
	return &Staged{tmp: tmpName, target: path}, nil
}

// Commit renames the temp file into place.
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.target); err != nil {
		_ = os.Remove(s.tmp)
		return fmt.Errorf("cannot rename into %s: %w", s.target, err)
	}
	return nil
}

// Abort removes the temp file. It is safe to call on a nil Staged.
func (s *Staged) Abort() {
	if s != nil {
		_ = os.Remove(s.tmp)
	}
}

// WriteFileAtomic writes a temp file next to path through write and renames
// it into place, so readers see either the old or the new content.
func WriteFileAtomic(path string, perm os.FileMode, write func(w io.Writer) error) error {
	st, err := StageFile(path, perm, write)
	if err != nil {
		return err
	}
	return st.Commit()
}

package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kamusis/askrepo/internal/fsutil"
)

// Write persists idx to indexPath and its metadata to metaPath. Each file is
// written and synced to a temp file first; renames happen only once both
// temp files are complete.
func Write(indexPath, metaPath string, idx *Index) error {
	h := idx.Header
	if h.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d", h.Dim)
	}
	if len(idx.Meta) == 0 {
		return fmt.Errorf("no chunks to write")
	}
	if len(idx.Vectors) != len(idx.Meta)*h.Dim {
		return fmt.Errorf("%w: got %d floats want %d", ErrVectorLengthMismatch, len(idx.Vectors), len(idx.Meta)*h.Dim)
	}
	h.Version = FormatVersion
	h.Count = len(idx.Meta)

	// Both files are staged before either is renamed, so a failed write
	// leaves the previous pairing in place.
	idxFile, err := fsutil.StageFile(indexPath, 0o644, func(w io.Writer) error {
		return writeIndex(w, h, idx.Vectors)
	})
	if err != nil {
		return fmt.Errorf("cannot write index %s: %w", indexPath, err)
	}
	metaFile, err := fsutil.StageFile(metaPath, 0o644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(idx.Meta)
	})
	if err != nil {
		idxFile.Abort()
		return fmt.Errorf("cannot write metadata %s: %w", metaPath, err)
	}

	prev := keepPrevious(indexPath)
	defer func() { _ = os.Remove(prev) }()
	if err := idxFile.Commit(); err != nil {
		metaFile.Abort()
		return fmt.Errorf("cannot write index %s: %w", indexPath, err)
	}
	if err := metaFile.Commit(); err != nil {
		if prev != "" {
			_ = os.Rename(prev, indexPath)
		}
		return fmt.Errorf("cannot write metadata %s: %w", metaPath, err)
	}
	return nil
}

// keepPrevious hard-links the current index to a sibling path so it can be
// put back if the metadata rename fails. It returns "" when there is nothing
// to keep or the link cannot be made.
func keepPrevious(indexPath string) string {
	prev := indexPath + ".prev"
	_ = os.Remove(prev)
	if err := os.Link(indexPath, prev); err != nil {
		return ""
	}
	return prev
}

func writeIndex(w io.Writer, h Header, vectors []float32) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	fields := []uint32{uint32(h.Version), uint32(h.Dim), uint32(h.Count), uint32(len(h.ModelID))}
	if err := binary.Write(w, binary.LittleEndian, fields); err != nil {
		return err
	}
	if _, err := io.WriteString(w, h.ModelID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, vectors); err != nil {
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	return nil
}

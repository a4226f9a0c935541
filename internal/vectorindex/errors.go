package vectorindex

import (
	"errors"
	"fmt"
)

var (
	// ErrVectorLengthMismatch indicates two vectors have different dimensions.
	ErrVectorLengthMismatch = errors.New("vector length mismatch")
	// ErrNoDocuments means the corpus had nothing to index. No file is written.
	ErrNoDocuments = errors.New("no documents found to index")
	// ErrNoChunks means every document chunked to nothing. No file is written.
	ErrNoChunks = errors.New("no chunks produced")
	// ErrIndexMismatch means the index file and the metadata disagree.
	ErrIndexMismatch = errors.New("index and metadata are not aligned")
)

// BuildError is a hard failure while embedding or persisting an index.
// Any previously written index is left untouched.
type BuildError struct {
	Stage string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("index build failed at %s: %v", e.Stage, e.Err)
}
func (e *BuildError) Unwrap() error { return e.Err }

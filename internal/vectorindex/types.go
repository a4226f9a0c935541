// Package vectorindex builds, persists and searches the flat inner-product
// index over chunk embeddings.
package vectorindex

// FormatVersion is the current on-disk index version.
const FormatVersion = 1

const magic = "ARVX"

// Header describes an index file and how to interpret its payload.
type Header struct {
	Version int
	Dim     int
	Count   int
	ModelID string
}

// Chunk is one metadata row, aligned with the vector row of the same position.
type Chunk struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Index is a loaded index: Count rows of Dim L2-normalized float32 values.
type Index struct {
	Header  Header
	Meta    []Chunk
	Vectors []float32
}

// Hit is one search result.
type Hit struct {
	Row   int
	Score float32
}

// Size returns the number of indexed rows.
func (idx *Index) Size() int {
	if idx == nil || idx.Header.Dim == 0 {
		return 0
	}
	return len(idx.Vectors) / idx.Header.Dim
}

// Row returns the vector stored at row i.
func (idx *Index) Row(i int) []float32 {
	d := idx.Header.Dim
	return idx.Vectors[i*d : (i+1)*d]
}

package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const maxModelIDLen = 1024

// Load reads an index file and its metadata and checks that they agree.
func Load(indexPath, metaPath string) (*Index, error) {
	h, vectors, err := loadIndexFile(indexPath)
	if err != nil {
		return nil, err
	}
	meta, err := LoadMeta(metaPath)
	if err != nil {
		return nil, err
	}
	if len(meta) != h.Count {
		return nil, fmt.Errorf("%w: index has %d rows, metadata has %d", ErrIndexMismatch, h.Count, len(meta))
	}
	return &Index{Header: h, Meta: meta, Vectors: vectors}, nil
}

// ReadHeader reads only the header of an index file.
func ReadHeader(indexPath string) (Header, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return Header{}, fmt.Errorf("cannot open index %s: %w", indexPath, err)
	}
	defer f.Close()
	h, err := readHeader(bufio.NewReader(f))
	if err != nil {
		return Header{}, fmt.Errorf("invalid index %s: %w", indexPath, err)
	}
	return h, nil
}

func loadIndexFile(path string) (Header, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("cannot open index %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Header{}, nil, fmt.Errorf("cannot stat index %s: %w", path, err)
	}
	r := bufio.NewReader(f)
	h, err := readHeader(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("invalid index %s: %w", path, err)
	}

	headerSize := int64(len(magic) + 4*4 + len(h.ModelID))
	expected := int64(h.Count) * int64(h.Dim) * 4
	if st.Size()-headerSize != expected {
		return Header{}, nil, fmt.Errorf("index payload size mismatch in %s: got %d want %d (rows=%d dim=%d)",
			path, st.Size()-headerSize, expected, h.Count, h.Dim)
	}

	vectors := make([]float32, h.Count*h.Dim)
	if err := binary.Read(io.LimitReader(r, expected), binary.LittleEndian, vectors); err != nil {
		return Header{}, nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return h, vectors, nil
}

func readHeader(r io.Reader) (Header, error) {
	m := make([]byte, len(magic))
	if _, err := io.ReadFull(r, m); err != nil {
		return Header{}, err
	}
	if string(m) != magic {
		return Header{}, fmt.Errorf("bad magic %q", m)
	}
	var fields [4]uint32
	if err := binary.Read(r, binary.LittleEndian, &fields); err != nil {
		return Header{}, err
	}
	h := Header{Version: int(fields[0]), Dim: int(fields[1]), Count: int(fields[2])}
	if h.Version != FormatVersion {
		return Header{}, fmt.Errorf("unsupported index version %d", h.Version)
	}
	if h.Dim <= 0 {
		return Header{}, fmt.Errorf("invalid dim %d", h.Dim)
	}
	if fields[3] > maxModelIDLen {
		return Header{}, fmt.Errorf("model id too long (%d bytes)", fields[3])
	}
	id := make([]byte, fields[3])
	if _, err := io.ReadFull(r, id); err != nil {
		return Header{}, err
	}
	h.ModelID = string(id)
	return h, nil
}

// LoadMeta reads only the chunk metadata.
func LoadMeta(path string) ([]Chunk, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read metadata %s: %w", path, err)
	}
	var meta []Chunk
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("invalid metadata JSON %s: %w", path, err)
	}
	return meta, nil
}

// Package vector provides an append-only flat vector index with
// inner-product similarity search.
package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrCorruptSnapshot marks a snapshot file whose contents are unusable:
// truncated data or a dimension that does not match the index. Other Load
// errors mean the file could not be read, not that it is bad.
var ErrCorruptSnapshot = errors.New("corrupt index snapshot")

// Hit is a single search result: the 0-based position of a stored vector and
// its inner-product score against the query.
type Hit struct {
	Position int
	Score    float64
}

// FlatIndex stores normalized vectors in insertion order and answers top-k
// queries by brute-force inner product. Positions are assigned monotonically
// from 0 and never reused; there is no update or delete.
type FlatIndex struct {
	dimension int
	vectors   [][]float32
	mu        sync.RWMutex
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dimension int) (*FlatIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &FlatIndex{
		dimension: dimension,
		vectors:   make([][]float32, 0),
	}, nil
}

// Dimension returns the vector dimension the index was created with.
func (x *FlatIndex) Dimension() int {
	return x.dimension
}

// Append copies vec into the index and returns its assigned position.
func (x *FlatIndex) Append(vec []float32) (int, error) {
	if len(vec) != x.dimension {
		return 0, fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), x.dimension)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	v := make([]float32, x.dimension)
	copy(v, vec)
	x.vectors = append(x.vectors, v)
	return len(x.vectors) - 1, nil
}

// Search returns up to k hits ordered by descending score. Ties are broken by
// lower position so results are deterministic. Hits with non-positive scores
// are treated as non-matches and excluded. An empty index returns no hits.
func (x *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dimension)
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil
	}
	hits := make([]Hit, 0, len(x.vectors))
	for pos, vec := range x.vectors {
		score := InnerProduct(query, vec)
		if score > 0 {
			hits = append(hits, Hit{Position: pos, Score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Size returns the number of vectors in the index.
func (x *FlatIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Save writes the index to path, overwriting any prior snapshot.
// Format: dimension (uint32), count (uint32), then count vectors of
// dimension*4 little-endian float32 bytes. The file is written to a temp
// path and renamed so a crash never leaves a torn snapshot.
func (x *FlatIndex) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := x.writeTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

func (x *FlatIndex) writeTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(x.dimension)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(x.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, vec := range x.vectors {
		if _, err := w.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads a snapshot from path and replaces the in-memory contents.
// The stored dimension must match. A missing file leaves the index unchanged
// and returns no error; unusable contents return ErrCorruptSnapshot.
func (x *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimension: %w", classifyReadErr(err))
	}
	if int(dim) != x.dimension {
		return fmt.Errorf("%w: file has dimension %d, index expects %d", ErrCorruptSnapshot, dim, x.dimension)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", classifyReadErr(err))
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, x.dimension*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, classifyReadErr(err))
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = vectors
	return nil
}

// classifyReadErr marks truncation as corruption; other read errors mean the
// file could not be read and pass through unchanged.
func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return err
}

// Reset discards all vectors, returning the index to its freshly-created state.
func (x *FlatIndex) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = x.vectors[:0]
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Package vectorindex loads the pre-built vector index artifact and serves
// nearest-neighbor queries over it.
// Clean Architecture: Adapter implementing ports.VectorIndex.
//
// Artifact layout (v1):
//
//	0..7   magic "RAGIDX01"
//	8..15  dim (uint64, little-endian)
//	16..23 count (uint64, little-endian)
//	24..   count*dim float32 vectors, row-major, little-endian
//
// The artifact is produced by the offline ingestion run. It is loaded once
// at startup and never written by this process; picking up a new artifact
// means restarting.
package vectorindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
)

const (
	headerSize  = 24
	float32Size = 4
)

var fileMagic = [8]byte{'R', 'A', 'G', 'I', 'D', 'X', '0', '1'}

// FlatIndex is a read-only brute-force inner-product index. Vectors are
// unit-normalized at ingestion, so inner product equals cosine similarity.
// Concurrent reads are safe without locking.
type FlatIndex struct {
	dim     int
	count   int
	vectors []float32 // count*dim values, row-major
}

// Load reads the whole artifact into memory and validates its header.
func Load(path string) (*FlatIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index artifact: %w", err)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("index artifact too small for header: %d bytes", len(data))
	}

	var magic [8]byte
	copy(magic[:], data[:8])
	if magic != fileMagic {
		return nil, fmt.Errorf("index artifact %s has an invalid header (magic mismatch)", path)
	}

	dim := binary.LittleEndian.Uint64(data[8:16])
	count := binary.LittleEndian.Uint64(data[16:24])
	if dim == 0 {
		return nil, fmt.Errorf("index artifact declares zero dimension")
	}

	want := headerSize + int(count)*int(dim)*float32Size
	if len(data) != want {
		return nil, fmt.Errorf("index artifact size mismatch: have %d bytes, header implies %d", len(data), want)
	}

	vectors := make([]float32, int(count)*int(dim))
	for i := range vectors {
		off := headerSize + i*float32Size
		vectors[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+float32Size]))
	}

	return &FlatIndex{dim: int(dim), count: int(count), vectors: vectors}, nil
}

// Len reports the number of stored vectors.
func (ix *FlatIndex) Len() int { return ix.count }

// Dim reports the embedding dimension.
func (ix *FlatIndex) Dim() int { return ix.dim }

// Search scores every stored vector against the query by inner product and
// returns the top k hits, scores non-increasing. When fewer than k vectors
// exist the tail is padded with sentinel hits, so the result always has
// exactly k entries for k >= 0.
func (ix *FlatIndex) Search(query []float32, k int) ([]entities.SearchHit, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]entities.SearchHit, 0, ix.count)
	for i := 0; i < ix.count; i++ {
		row := ix.vectors[i*ix.dim : (i+1)*ix.dim]
		var score float32
		for j, q := range query {
			score += q * row[j]
		}
		hits = append(hits, entities.SearchHit{ID: int64(i), Score: score})
	}

	sort.Slice(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })

	if len(hits) > k {
		hits = hits[:k]
	}
	for len(hits) < k {
		hits = append(hits, entities.SearchHit{ID: entities.SentinelID})
	}
	return hits, nil
}

package index

import (
	"container/heap"
	"fmt"
	"sort"
)

// Neighbor is a single search hit: the identifier of a stored embedding and
// its squared L2 distance to the query.
type Neighbor struct {
	ID       int
	Distance float32
}

// SearchResult is an ordered list of neighbors, nearest first.
type SearchResult []Neighbor

// IDs returns the identifiers in result order.
func (r SearchResult) IDs() []int {
	ids := make([]int, len(r))
	for i, n := range r {
		ids[i] = n.ID
	}
	return ids
}

// Distances returns the distances in result order.
func (r SearchResult) Distances() []float32 {
	ds := make([]float32, len(r))
	for i, n := range r {
		ds[i] = n.Distance
	}
	return ds
}

// EmbeddingIndex is an immutable, exact (brute-force) L2 index.
type EmbeddingIndex struct {
	dim  int
	vecs [][]float32
}

// Build creates an index over embeddings. The identifier of each embedding is
// its position in the slice. The vectors are copied.
func Build(embeddings [][]float32) (*EmbeddingIndex, error) {
	if len(embeddings) == 0 {
		return nil, ErrEmptyCorpus
	}
	dim := len(embeddings[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: embedding 0 has zero length", ErrDimensionMismatch)
	}
	for i, v := range embeddings {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: embedding %d has dim %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}

	// one backing array keeps the scan cache friendly
	flat := make([]float32, len(embeddings)*dim)
	vecs := make([][]float32, len(embeddings))
	for i, v := range embeddings {
		row := flat[i*dim : (i+1)*dim : (i+1)*dim]
		copy(row, v)
		vecs[i] = row
	}

	return &EmbeddingIndex{dim: dim, vecs: vecs}, nil
}

// Len returns the number of stored embeddings.
func (x *EmbeddingIndex) Len() int {
	return len(x.vecs)
}

// Dim returns the embedding dimension.
func (x *EmbeddingIndex) Dim() int {
	return x.dim
}

// Vector returns a copy of the embedding stored under id.
func (x *EmbeddingIndex) Vector(id int) ([]float32, bool) {
	if id < 0 || id >= len(x.vecs) {
		return nil, false
	}
	return append([]float32(nil), x.vecs[id]...), true
}

// Search returns the k stored embeddings nearest to query under squared L2
// distance. k must be in 1..Len().
func (x *EmbeddingIndex) Search(query []float32, k int) (SearchResult, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query dim %d, index dim %d", ErrDimensionMismatch, len(query), x.dim)
	}
	if k < 1 || k > len(x.vecs) {
		return nil, fmt.Errorf("%w: k=%d, index size %d", ErrInvalidK, k, len(x.vecs))
	}

	h := make(worstFirst, 0, k)
	for id, v := range x.vecs {
		n := Neighbor{ID: id, Distance: SquaredL2(query, v)}
		if len(h) < k {
			heap.Push(&h, n)
			continue
		}
		if before(n, h[0]) {
			h[0] = n
			heap.Fix(&h, 0)
		}
	}

	res := SearchResult(h)
	sort.Slice(res, func(i, j int) bool { return before(res[i], res[j]) })
	return res, nil
}

// SquaredL2 returns the sum of squared differences of a and b. The vectors
// must have the same length.
func SquaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}

// before reports whether a ranks ahead of b: smaller distance first, then
// lower id. NaN distances rank after everything else.
func before(a, b Neighbor) bool {
	aNaN := a.Distance != a.Distance
	bNaN := b.Distance != b.Distance
	if aNaN != bNaN {
		return bNaN
	}
	if !aNaN && a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// worstFirst is a max-heap on rank: the root is the neighbor to evict next.
type worstFirst []Neighbor

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return before(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x any) { *h = append(*h, x.(Neighbor)) }

func (h *worstFirst) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

package embedder

import (
	"context"
	"hash/fnv"
	"math"
)

// HashEmbedder is a deterministic embedder based on feature hashing of rune
// unigrams and bigrams. Texts sharing many characters get nearby vectors,
// which is enough for tests and offline demos over Chinese or English text.
// Vectors are L2 normalized; the empty text maps to the zero vector.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a HashEmbedder producing dim-dimensional vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

// EmbedDocument embeds a single text.
func (h *HashEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.embed(text), nil
}

// EmbedDocuments embeds texts.
func (h *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(text)
	}
	return out, nil
}

// GetDimension returns the embedding dimension
func (h *HashEmbedder) GetDimension() int {
	return h.dim
}

func (h *HashEmbedder) embed(text string) []float32 {
	acc := make([]float64, h.dim)
	runes := []rune(text)
	for i, r := range runes {
		h.add(acc, string(r), 1)
		if i+1 < len(runes) {
			h.add(acc, string(runes[i:i+2]), 2)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, h.dim)
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (h *HashEmbedder) add(acc []float64, feature string, weight float64) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	bucket := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}

package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/smallnest/simplerag/cache"
	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
)

// CachedEmbedder serves embeddings from a cache.Store and only sends misses
// to the wrapped embedder. Cache failures are logged and treated as misses.
type CachedEmbedder struct {
	embedder rag.Embedder
	store    cache.Store
	model    string
}

// NewCachedEmbedder wraps embedder. model namespaces the cache keys so that
// vectors of different models never mix.
func NewCachedEmbedder(embedder rag.Embedder, store cache.Store, model string) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		store:    store,
		model:    model,
	}
}

// Key returns the cache key of text: the hex sha256 of model and text.
func (c *CachedEmbedder) Key(text string) string {
	sum := sha256.Sum256([]byte(c.model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// EmbedDocument embeds a single text.
func (c *CachedEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments embeds texts, batching all misses into one backend call.
func (c *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, text := range texts {
		vec, ok, err := c.store.Get(ctx, c.Key(text))
		if err != nil {
			log.Warn("embedding cache get failed: %v", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	log.Debug("embedding cache: %d hits, %d misses", len(texts)-len(missIdx), len(missIdx))
	if len(missIdx) == 0 {
		return out, nil
	}

	vecs, err := c.embedder.EmbedDocuments(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d texts", len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := c.store.Set(ctx, c.Key(missTexts[j]), vecs[j]); err != nil {
			log.Warn("embedding cache set failed: %v", err)
		}
	}
	return out, nil
}

// GetDimension returns the dimension of the wrapped embedder.
func (c *CachedEmbedder) GetDimension() int {
	return c.embedder.GetDimension()
}

package embedder

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/smallnest/simplerag/rag"
)

// RateLimitedEmbedder waits on a token bucket before each backend call.
type RateLimitedEmbedder struct {
	embedder rag.Embedder
	limiter  *rate.Limiter
}

// NewRateLimitedEmbedder allows rps calls per second with bursts of burst.
// A non-positive rps disables limiting.
func NewRateLimitedEmbedder(embedder rag.Embedder, rps float64, burst int) *RateLimitedEmbedder {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimitedEmbedder{
		embedder: embedder,
		limiter:  rate.NewLimiter(limit, max(burst, 1)),
	}
}

// EmbedDocument embeds a single text.
func (r *RateLimitedEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.embedder.EmbedDocument(ctx, text)
}

// EmbedDocuments embeds texts as one call.
func (r *RateLimitedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.embedder.EmbedDocuments(ctx, texts)
}

// GetDimension returns the dimension of the wrapped embedder.
func (r *RateLimitedEmbedder) GetDimension() int {
	return r.embedder.GetDimension()
}

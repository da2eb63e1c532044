package embedder

import (
	"context"
	"sync/atomic"

	"github.com/tmc/langchaingo/embeddings"
)

// LangChainEmbedder adapts langchaingo's embeddings.Embedder.
type LangChainEmbedder struct {
	embedder  embeddings.Embedder
	dimension atomic.Int64
}

// NewLangChainEmbedder creates a new adapter for langchaingo embedders
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{embedder: embedder}
}

// EmbedDocument embeds text as a query.
func (l *LangChainEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vec, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	l.dimension.Store(int64(len(vec)))
	return vec, nil
}

// EmbedDocuments embeds texts as documents.
func (l *LangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) > 0 {
		l.dimension.Store(int64(len(vecs[0])))
	}
	return vecs, nil
}

// GetDimension returns the dimension of the last embedding produced. When
// nothing was embedded yet it embeds a probe text to find out, returning 0
// if that fails.
func (l *LangChainEmbedder) GetDimension() int {
	if d := l.dimension.Load(); d > 0 {
		return int(d)
	}
	vec, err := l.EmbedDocument(context.Background(), "dimension probe")
	if err != nil {
		return 0
	}
	return len(vec)
}

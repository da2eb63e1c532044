package retriever

import (
	"context"
	"fmt"

	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
)

// DefaultK is the number of documents returned when no K is configured.
const DefaultK = 3

// VectorRetriever embeds the query with the embedder that embedded the corpus
// and returns the nearest documents of a vector store.
type VectorRetriever struct {
	vectorStore rag.VectorStore
	embedder    rag.Embedder
	config      rag.RetrievalConfig
}

// NewVectorRetriever creates a new vector retriever
func NewVectorRetriever(vectorStore rag.VectorStore, embedder rag.Embedder, config rag.RetrievalConfig) *VectorRetriever {
	if config.K <= 0 {
		config.K = DefaultK
	}

	return &VectorRetriever{
		vectorStore: vectorStore,
		embedder:    embedder,
		config:      config,
	}
}

// Retrieve retrieves documents based on a query
func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]rag.Document, error) {
	return r.RetrieveWithK(ctx, query, r.config.K)
}

// RetrieveWithK retrieves at most k documents
func (r *VectorRetriever) RetrieveWithK(ctx context.Context, query string, k int) ([]rag.Document, error) {
	config := r.config
	config.K = k
	results, err := r.RetrieveWithConfig(ctx, query, &config)
	if err != nil {
		return nil, err
	}

	docs := make([]rag.Document, len(results))
	for i, result := range results {
		docs[i] = result.Document
	}

	return docs, nil
}

// RetrieveWithConfig retrieves documents with custom configuration. Results
// scoring below config.ScoreThreshold are dropped.
func (r *VectorRetriever) RetrieveWithConfig(ctx context.Context, query string, config *rag.RetrievalConfig) ([]rag.DocumentSearchResult, error) {
	if config == nil {
		config = &r.config
	}

	queryEmbedding, err := r.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var results []rag.DocumentSearchResult
	if len(config.Filter) > 0 {
		results, err = r.vectorStore.SearchWithFilter(ctx, queryEmbedding, config.K, config.Filter)
	} else {
		results, err = r.vectorStore.Search(ctx, queryEmbedding, config.K)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	if config.ScoreThreshold > 0 {
		filtered := make([]rag.DocumentSearchResult, 0, len(results))
		for _, result := range results {
			if result.Score >= config.ScoreThreshold {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	log.Debug("retrieved %d documents for %q", len(results), query)
	return results, nil
}

package rag

import (
	"context"
	"time"
)

// Document is a unit of text handled by loaders, splitters and stores.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Source returns the "source" metadata value, or "Unknown".
func (d Document) Source() string {
	if s, ok := d.Metadata["source"].(string); ok && s != "" {
		return s
	}
	return "Unknown"
}

// DocumentSearchResult is a document returned by a vector search.
// Distance is the squared L2 distance to the query; Score is a similarity in
// (0, 1] derived from it, higher meaning closer.
type DocumentSearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
	Distance float32  `json:"distance"`
}

// DocumentLoader loads documents from a source.
type DocumentLoader interface {
	Load(ctx context.Context) ([]Document, error)
	LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]Document, error)
}

// TextSplitter splits documents into smaller chunks.
type TextSplitter interface {
	SplitText(text string) []string
	SplitDocuments(docs []Document) []Document
	JoinText(chunks []string) string
}

// Embedder turns text into embeddings. The same embedder must be used for
// the corpus and the queries searched against it.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	GetDimension() int
}

// VectorStore answers nearest-neighbor queries over stored documents.
type VectorStore interface {
	Search(ctx context.Context, query []float32, k int) ([]DocumentSearchResult, error)
	SearchWithFilter(ctx context.Context, query []float32, k int, filter map[string]any) ([]DocumentSearchResult, error)
	GetStats(ctx context.Context) (*VectorStoreStats, error)
}

// Retriever returns the documents relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
	RetrieveWithK(ctx context.Context, query string, k int) ([]Document, error)
	RetrieveWithConfig(ctx context.Context, query string, config *RetrievalConfig) ([]DocumentSearchResult, error)
}

// Generator produces an answer for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RetrievalConfig configures a retrieval call.
type RetrievalConfig struct {
	K              int            `json:"k" yaml:"k"`
	ScoreThreshold float64        `json:"score_threshold" yaml:"score_threshold"`
	Filter         map[string]any `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// VectorStoreStats describes the contents of a vector store.
type VectorStoreStats struct {
	TotalDocuments int       `json:"total_documents"`
	TotalVectors   int       `json:"total_vectors"`
	Dimension      int       `json:"dimension"`
	LastUpdated    time.Time `json:"last_updated"`
}

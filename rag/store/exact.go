package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/smallnest/simplerag/index"
	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
)

// ErrLengthMismatch is returned when documents and embeddings differ in count.
var ErrLengthMismatch = errors.New("store: documents and embeddings must have same length")

// ExactVectorStore is an immutable vector store answering queries with an
// exact L2 scan over an index.EmbeddingIndex. The position of a document in
// the slice it was built from is its index id.
type ExactVectorStore struct {
	documents []rag.Document
	index     *index.EmbeddingIndex
	builtAt   time.Time
}

// NewExactVectorStore embeds every document that has no embedding yet and
// builds the store. Documents that already carry an embedding are not sent
// to the embedder.
func NewExactVectorStore(ctx context.Context, embedder rag.Embedder, docs []rag.Document) (*ExactVectorStore, error) {
	embeddings := make([][]float32, len(docs))
	var (
		pending []int
		texts   []string
	)
	for i, doc := range docs {
		if len(doc.Embedding) > 0 {
			embeddings[i] = doc.Embedding
			continue
		}
		pending = append(pending, i)
		texts = append(texts, doc.Content)
	}

	if len(pending) > 0 {
		if embedder == nil {
			return nil, fmt.Errorf("no embedder configured and %d documents have no embedding", len(pending))
		}
		vecs, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(vecs) != len(pending) {
			return nil, fmt.Errorf("embedder returned %d embeddings for %d documents", len(vecs), len(pending))
		}
		for j, i := range pending {
			embeddings[i] = vecs[j]
		}
		log.Debug("embedded %d documents", len(pending))
	}

	return NewExactVectorStoreWithEmbeddings(docs, embeddings)
}

// NewExactVectorStoreWithEmbeddings builds the store from precomputed
// embeddings; embeddings[i] belongs to docs[i].
func NewExactVectorStoreWithEmbeddings(docs []rag.Document, embeddings [][]float32) (*ExactVectorStore, error) {
	if len(docs) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d documents, %d embeddings", ErrLengthMismatch, len(docs), len(embeddings))
	}

	idx, err := index.Build(embeddings)
	if err != nil {
		return nil, err
	}

	documents := make([]rag.Document, len(docs))
	for i, doc := range docs {
		doc.Embedding, _ = idx.Vector(i)
		doc.Metadata = maps.Clone(doc.Metadata)
		documents[i] = doc
	}

	log.Info("built exact vector store: %d documents, dim %d", idx.Len(), idx.Dim())
	return &ExactVectorStore{
		documents: documents,
		index:     idx,
		builtAt:   time.Now(),
	}, nil
}

// Search returns the k documents nearest to query. k larger than the corpus
// is clamped to the corpus size.
func (s *ExactVectorStore) Search(ctx context.Context, query []float32, k int) ([]rag.DocumentSearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	k = min(k, s.index.Len())

	res, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}
	return s.results(res, k), nil
}

// SearchWithFilter searches the whole corpus and keeps the k nearest
// documents whose metadata matches every filter entry.
func (s *ExactVectorStore) SearchWithFilter(ctx context.Context, query []float32, k int, filter map[string]any) ([]rag.DocumentSearchResult, error) {
	if len(filter) == 0 {
		return s.Search(ctx, query, k)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	res, err := s.index.Search(query, s.index.Len())
	if err != nil {
		return nil, err
	}

	results := make([]rag.DocumentSearchResult, 0, k)
	for _, n := range res {
		if len(results) == k {
			break
		}
		if !matchesFilter(s.documents[n.ID], filter) {
			continue
		}
		results = append(results, s.result(n))
	}
	return results, nil
}

// Document returns a copy of the document stored under id.
func (s *ExactVectorStore) Document(id int) (rag.Document, bool) {
	if id < 0 || id >= len(s.documents) {
		return rag.Document{}, false
	}
	return s.document(id), true
}

// Len returns the number of stored documents.
func (s *ExactVectorStore) Len() int {
	return len(s.documents)
}

// Index returns the underlying embedding index.
func (s *ExactVectorStore) Index() *index.EmbeddingIndex {
	return s.index
}

// GetStats returns statistics about the vector store
func (s *ExactVectorStore) GetStats(ctx context.Context) (*rag.VectorStoreStats, error) {
	return &rag.VectorStoreStats{
		TotalDocuments: len(s.documents),
		TotalVectors:   s.index.Len(),
		Dimension:      s.index.Dim(),
		LastUpdated:    s.builtAt,
	}, nil
}

func (s *ExactVectorStore) results(res index.SearchResult, k int) []rag.DocumentSearchResult {
	out := make([]rag.DocumentSearchResult, 0, k)
	for _, n := range res {
		out = append(out, s.result(n))
	}
	return out
}

func (s *ExactVectorStore) result(n index.Neighbor) rag.DocumentSearchResult {
	return rag.DocumentSearchResult{
		Document: s.document(n.ID),
		Score:    Score(n.Distance),
		Distance: n.Distance,
	}
}

// document copies the metadata and embedding so callers cannot change the
// stored document.
func (s *ExactVectorStore) document(id int) rag.Document {
	doc := s.documents[id]
	doc.Metadata = maps.Clone(doc.Metadata)
	doc.Embedding = slices.Clone(doc.Embedding)
	return doc
}

// Score maps a squared L2 distance to a similarity in (0, 1].
func Score(distance float32) float64 {
	d := float64(distance)
	if d != d {
		return 0
	}
	return 1 / (1 + d)
}

func matchesFilter(doc rag.Document, filter map[string]any) bool {
	for key, value := range filter {
		docValue, exists := doc.Metadata[key]
		if !exists || !reflect.DeepEqual(docValue, value) {
			return false
		}
	}
	return true
}

package loader

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/smallnest/simplerag/rag"
)

// StaticDocumentLoader loads documents from a fixed list.
type StaticDocumentLoader struct {
	Documents []rag.Document
}

// NewStaticDocumentLoader creates a new StaticDocumentLoader
func NewStaticDocumentLoader(documents []rag.Document) *StaticDocumentLoader {
	return &StaticDocumentLoader{
		Documents: documents,
	}
}

// NewStaticTextLoader wraps plain strings as documents with IDs "<prefix>_<i>"
// and a "source" metadata entry naming the same ID.
func NewStaticTextLoader(prefix string, texts ...string) *StaticDocumentLoader {
	now := time.Now()
	docs := make([]rag.Document, len(texts))
	for i, text := range texts {
		id := fmt.Sprintf("%s_%d", prefix, i)
		docs[i] = rag.Document{
			ID:        id,
			Content:   text,
			Metadata:  map[string]any{"source": id, "type": "static"},
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return NewStaticDocumentLoader(docs)
}

// Load returns the static list of documents
func (l *StaticDocumentLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata returns copies of the documents with metadata merged into
// each one. The loader's own documents are never modified.
func (l *StaticDocumentLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	docs := make([]rag.Document, len(l.Documents))
	for i, doc := range l.Documents {
		merged := make(map[string]any, len(doc.Metadata)+len(metadata))
		maps.Copy(merged, doc.Metadata)
		maps.Copy(merged, metadata)
		doc.Metadata = merged
		docs[i] = doc
	}
	return docs, nil
}

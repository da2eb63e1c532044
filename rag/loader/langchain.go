package loader

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/smallnest/simplerag/rag"
)

// LangChainDocumentLoader adapts a langchaingo documentloaders.Loader.
type LangChainDocumentLoader struct {
	loader documentloaders.Loader
	prefix string
}

// NewLangChainDocumentLoader creates a new adapter for langchaingo document
// loaders. Loaded documents get IDs "<prefix>_<i>".
func NewLangChainDocumentLoader(loader documentloaders.Loader, prefix string) *LangChainDocumentLoader {
	if prefix == "" {
		prefix = "langchain"
	}
	return &LangChainDocumentLoader{loader: loader, prefix: prefix}
}

// Load loads documents using the underlying langchaingo loader
func (l *LangChainDocumentLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata loads documents and merges metadata into each one.
func (l *LangChainDocumentLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	schemaDocs, err := l.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	docs := make([]rag.Document, len(schemaDocs))
	for i, sd := range schemaDocs {
		meta := make(map[string]any, len(sd.Metadata)+len(metadata))
		maps.Copy(meta, sd.Metadata)
		maps.Copy(meta, metadata)
		docs[i] = rag.Document{
			ID:        fmt.Sprintf("%s_%d", l.prefix, i),
			Content:   sd.PageContent,
			Metadata:  meta,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return docs, nil
}

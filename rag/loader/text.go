package loader

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/smallnest/simplerag/rag"
)

// TextLoader loads a text file as a single document.
type TextLoader struct {
	filePath string
	metadata map[string]any
}

// TextLoaderOption configures the TextLoader
type TextLoaderOption func(*TextLoader)

// WithMetadata sets additional metadata for loaded documents
func WithMetadata(metadata map[string]any) TextLoaderOption {
	return func(l *TextLoader) {
		maps.Copy(l.metadata, metadata)
	}
}

// NewTextLoader creates a new TextLoader
func NewTextLoader(filePath string, opts ...TextLoaderOption) *TextLoader {
	l := &TextLoader{
		filePath: filePath,
		metadata: map[string]any{
			"source": filePath,
			"type":   "text",
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load loads the file.
func (l *TextLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata loads the file, merging metadata over the loader defaults.
func (l *TextLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", l.filePath, err)
	}

	combined := make(map[string]any, len(l.metadata)+len(metadata))
	maps.Copy(combined, l.metadata)
	maps.Copy(combined, metadata)

	now := time.Now()
	doc := rag.Document{
		ID:        "text_" + l.filePath,
		Content:   string(content),
		Metadata:  combined,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return []rag.Document{doc}, nil
}

// ParagraphLoader loads a text file as one document per paragraph.
type ParagraphLoader struct {
	filePath string
	marker   string
}

// NewParagraphLoader creates a ParagraphLoader splitting on blank lines.
func NewParagraphLoader(filePath string) *ParagraphLoader {
	return &ParagraphLoader{filePath: filePath, marker: "\n\n"}
}

// Load loads the paragraphs.
func (l *ParagraphLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata loads the paragraphs. Blank paragraphs are skipped; the
// "paragraph" metadata entry counts only the kept ones.
func (l *ParagraphLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	content, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", l.filePath, err)
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	now := time.Now()

	var docs []rag.Document
	for _, p := range strings.Split(text, l.marker) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n := len(docs)
		meta := map[string]any{
			"source":    l.filePath,
			"type":      "text_paragraphs",
			"paragraph": n,
		}
		maps.Copy(meta, metadata)

		docs = append(docs, rag.Document{
			ID:        fmt.Sprintf("%s_paragraph_%d", l.filePath, n),
			Content:   p,
			Metadata:  meta,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return docs, nil
}

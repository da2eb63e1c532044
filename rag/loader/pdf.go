package loader

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/smallnest/simplerag/rag"
)

// PDFLoader extracts the plain text of a PDF, one document per page.
type PDFLoader struct {
	filePath string
}

// NewPDFLoader creates a new PDFLoader
func NewPDFLoader(filePath string) *PDFLoader {
	return &PDFLoader{filePath: filePath}
}

// Load loads the pages.
func (l *PDFLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata loads the pages; pages without text are skipped.
func (l *PDFLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	f, r, err := pdf.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", l.filePath, err)
	}
	defer f.Close()

	now := time.Now()
	var docs []rag.Document
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d of %s: %w", i, l.filePath, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		meta := map[string]any{
			"source": l.filePath,
			"type":   "pdf",
			"page":   i,
		}
		maps.Copy(meta, metadata)
		docs = append(docs, rag.Document{
			ID:        fmt.Sprintf("%s_page_%d", l.filePath, i),
			Content:   text,
			Metadata:  meta,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return docs, nil
}

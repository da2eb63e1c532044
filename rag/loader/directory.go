package loader

import (
	"context"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
)

// DirectoryLoader walks a directory tree and loads every file whose
// extension is accepted. Text files go through TextLoader and PDFs through
// PDFLoader.
type DirectoryLoader struct {
	root       string
	extensions []string
}

// NewDirectoryLoader creates a DirectoryLoader. With no extensions it
// accepts ".txt" and ".md".
func NewDirectoryLoader(root string, extensions ...string) *DirectoryLoader {
	if len(extensions) == 0 {
		extensions = []string{".txt", ".md"}
	}
	exts := make([]string, len(extensions))
	for i, ext := range extensions {
		exts[i] = strings.ToLower(ext)
	}
	return &DirectoryLoader{root: root, extensions: exts}
}

// Load loads the directory.
func (l *DirectoryLoader) Load(ctx context.Context) ([]rag.Document, error) {
	return l.LoadWithMetadata(ctx, nil)
}

// LoadWithMetadata loads every accepted file in lexical path order.
func (l *DirectoryLoader) LoadWithMetadata(ctx context.Context, metadata map[string]any) ([]rag.Document, error) {
	var docs []rag.Document
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !slices.Contains(l.extensions, ext) {
			return nil
		}

		var loader rag.DocumentLoader
		if ext == ".pdf" {
			loader = NewPDFLoader(path)
		} else {
			loader = NewTextLoader(path)
		}

		meta := map[string]any{"directory": l.root}
		maps.Copy(meta, metadata)
		loaded, err := loader.LoadWithMetadata(ctx, meta)
		if err != nil {
			return err
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load directory %s: %w", l.root, err)
	}

	log.Debug("loaded %d documents from %s", len(docs), l.root)
	return docs, nil
}

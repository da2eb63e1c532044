package splitter

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
)

// LangChainTextSplitter adapts a langchaingo textsplitter.TextSplitter.
type LangChainTextSplitter struct {
	splitter textsplitter.TextSplitter
}

// NewLangChainTextSplitter creates a new adapter for langchaingo text splitters
func NewLangChainTextSplitter(splitter textsplitter.TextSplitter) *LangChainTextSplitter {
	return &LangChainTextSplitter{splitter: splitter}
}

// SplitText splits text with the wrapped splitter. If it fails the text is
// returned as a single chunk.
func (l *LangChainTextSplitter) SplitText(text string) []string {
	chunks, err := l.splitter.SplitText(text)
	if err != nil {
		log.Warn("langchain splitter failed, keeping text whole: %v", err)
		return []string{text}
	}
	return chunks
}

// SplitDocuments splits documents into chunks
func (l *LangChainTextSplitter) SplitDocuments(docs []rag.Document) []rag.Document {
	return splitDocuments(docs, l.SplitText)
}

// JoinText joins text chunks back together
func (l *LangChainTextSplitter) JoinText(chunks []string) string {
	return strings.Join(chunks, "\n")
}

package splitter

import (
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/smallnest/simplerag/rag"
)

// DefaultSeparators are tried in order, from paragraph breaks down to single
// characters. "。" keeps Chinese sentences together.
var DefaultSeparators = []string{"\n\n", "\n", "。", " ", ""}

// RecursiveCharacterTextSplitter splits text on the first separator present,
// recursing with the next separators into pieces that are still too long,
// then merges adjacent pieces into chunks of at most chunkSize. Consecutive
// chunks share up to chunkOverlap of trailing text.
type RecursiveCharacterTextSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
	lengthFunc   func(string) int
}

// RecursiveCharacterTextSplitterOption configures the RecursiveCharacterTextSplitter
type RecursiveCharacterTextSplitterOption func(*RecursiveCharacterTextSplitter)

// WithChunkSize sets the chunk size for the splitter
func WithChunkSize(size int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the chunk overlap for the splitter
func WithChunkOverlap(overlap int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators sets the custom separators for the splitter
func WithSeparators(separators []string) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.separators = separators
	}
}

// WithLengthFunction sets a custom length function. The default counts runes.
func WithLengthFunction(fn func(string) int) RecursiveCharacterTextSplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.lengthFunc = fn
	}
}

// NewRecursiveCharacterTextSplitter creates a splitter with chunk size 1000
// and overlap 200. An overlap that is not smaller than the chunk size is
// reduced to chunkSize-1.
func NewRecursiveCharacterTextSplitter(opts ...RecursiveCharacterTextSplitterOption) *RecursiveCharacterTextSplitter {
	s := &RecursiveCharacterTextSplitter{
		separators:   DefaultSeparators,
		chunkSize:    1000,
		chunkOverlap: 200,
		lengthFunc:   utf8.RuneCountInString,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.chunkSize = max(s.chunkSize, 1)
	s.chunkOverlap = max(min(s.chunkOverlap, s.chunkSize-1), 0)

	return s
}

// SplitText splits text into chunks
func (s *RecursiveCharacterTextSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

// SplitDocuments splits documents into chunks
func (s *RecursiveCharacterTextSplitter) SplitDocuments(docs []rag.Document) []rag.Document {
	return splitDocuments(docs, s.SplitText)
}

// JoinText joins chunks, dropping the text each chunk repeats from the
// previous one.
func (s *RecursiveCharacterTextSplitter) JoinText(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		n := sharedOverlap(chunks[i-1], chunks[i], s.chunkOverlap)
		if n == 0 {
			b.WriteString(" ")
		}
		b.WriteString(chunks[i][n:])
	}
	return b.String()
}

func (s *RecursiveCharacterTextSplitter) split(text string, separators []string) []string {
	separator := ""
	var next []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var (
		chunks []string
		good   []string
	)
	// separators stay attached to the end of the piece they terminate
	for _, piece := range strings.SplitAfter(text, separator) {
		if s.lengthFunc(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			if chunk := strings.TrimSpace(piece); chunk != "" {
				chunks = append(chunks, chunk)
			}
		} else {
			chunks = append(chunks, s.split(piece, next)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good)...)
	}
	return chunks
}

// merge packs pieces into chunks no longer than chunkSize. When a chunk is
// emitted, pieces are dropped from the front of the window until what
// remains fits in the overlap, so the next chunk starts with that tail.
func (s *RecursiveCharacterTextSplitter) merge(pieces []string) []string {
	var (
		chunks []string
		window []string
		total  int
	)

	for _, piece := range pieces {
		n := s.lengthFunc(piece)
		if total+n > s.chunkSize && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= s.lengthFunc(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// sharedOverlap returns the byte length of the longest prefix of b, at most
// limit runes long, that is also a suffix of a.
func sharedOverlap(a, b string, limit int) int {
	best := 0
	for i, runes := 0, 0; i < len(b) && runes < limit; runes++ {
		_, w := utf8.DecodeRuneInString(b[i:])
		i += w
		if strings.HasSuffix(a, b[:i]) {
			best = i
		}
	}
	return best
}

func splitDocuments(docs []rag.Document, splitText func(string) []string) []rag.Document {
	chunks := make([]rag.Document, 0, len(docs))

	for _, doc := range docs {
		textChunks := splitText(doc.Content)

		for i, chunk := range textChunks {
			metadata := make(map[string]any, len(doc.Metadata)+3)
			maps.Copy(metadata, doc.Metadata)
			metadata["chunk_index"] = i
			metadata["chunk_total"] = len(textChunks)
			metadata["parent_id"] = doc.ID

			chunks = append(chunks, rag.Document{
				ID:        fmt.Sprintf("%s_chunk_%d", doc.ID, i),
				Content:   chunk,
				Metadata:  metadata,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
			})
		}
	}

	return chunks
}

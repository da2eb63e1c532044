package splitter

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/smallnest/simplerag/rag"
)

func TestRecursiveCharacterTextSplitter(t *testing.T) {
	t.Run("Short text is one chunk", func(t *testing.T) {
		s := NewRecursiveCharacterTextSplitter()
		text := "黑神话悟空的战斗如同武侠小说活过来一般。\n\n72变神通不只是变化形态。"
		assert.Equal(t, []string{text}, s.SplitText(text))
	})

	t.Run("Chinese sentences", func(t *testing.T) {
		s := NewRecursiveCharacterTextSplitter(WithChunkSize(5), WithChunkOverlap(0))
		chunks := s.SplitText("一二三。四五六。七八九。")
		assert.Equal(t, []string{"一二三。", "四五六。", "七八九。"}, chunks)
	})

	t.Run("Overlap carries the previous tail", func(t *testing.T) {
		s := NewRecursiveCharacterTextSplitter(WithChunkSize(5), WithChunkOverlap(2))
		chunks := s.SplitText("a b c d e f")
		assert.Equal(t, []string{"a b", "b c", "c d", "d e f"}, chunks)
		assert.Equal(t, "a b c d e f", s.JoinText(chunks))
	})

	t.Run("Falls back to characters", func(t *testing.T) {
		s := NewRecursiveCharacterTextSplitter(WithChunkSize(10), WithChunkOverlap(3))
		text := "abcdefghijklmnopqrstuvwxy"
		chunks := s.SplitText(text)
		assert.Equal(t, []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxy"}, chunks)
		assert.Equal(t, text, s.JoinText(chunks))
	})

	t.Run("Chunks respect the size in runes", func(t *testing.T) {
		s := NewRecursiveCharacterTextSplitter(WithChunkSize(20), WithChunkOverlap(5))
		text := strings.Repeat("驾着筋斗云翱翔在这片神话世界，瑰丽的场景令人屏息。", 10)
		chunks := s.SplitText(text)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), 20)
		}
	})

	t.Run("Empty text", func(t *testing.T) {
		s := NewRecursiveCharacterTextSplitter()
		assert.Empty(t, s.SplitText(""))
		assert.Equal(t, "", s.JoinText(nil))
	})

	t.Run("Overlap is bounded by chunk size", func(t *testing.T) {
		s := NewRecursiveCharacterTextSplitter(WithChunkSize(4), WithChunkOverlap(10))
		assert.Equal(t, 3, s.chunkOverlap)
	})

	t.Run("Custom length function", func(t *testing.T) {
		words := func(s string) int { return len(strings.Fields(s)) }
		s := NewRecursiveCharacterTextSplitter(
			WithSeparators([]string{" "}),
			WithChunkSize(3),
			WithChunkOverlap(0),
			WithLengthFunction(words),
		)
		assert.Equal(t, []string{"one two three", "four five"}, s.SplitText("one two three four five"))
	})
}

func TestSplitDocuments(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter(WithChunkSize(5), WithChunkOverlap(0))
	docs := []rag.Document{
		{ID: "doc1", Content: "一二三。四五六。", Metadata: map[string]any{"source": "wukong.txt"}},
		{ID: "doc2", Content: "短文"},
	}

	chunks := s.SplitDocuments(docs)
	require.Len(t, chunks, 3)

	assert.Equal(t, "doc1_chunk_1", chunks[1].ID)
	assert.Equal(t, "四五六。", chunks[1].Content)
	assert.Equal(t, 1, chunks[1].Metadata["chunk_index"])
	assert.Equal(t, 2, chunks[1].Metadata["chunk_total"])
	assert.Equal(t, "doc1", chunks[1].Metadata["parent_id"])
	assert.Equal(t, "wukong.txt", chunks[1].Metadata["source"])

	assert.Equal(t, "doc2_chunk_0", chunks[2].ID)
	assert.NotContains(t, docs[0].Metadata, "chunk_index")
}

func TestSplitTextSkipsBlankChunks(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter(WithChunkSize(1), WithChunkOverlap(0))
	assert.Equal(t, []string{"a", "b"}, s.SplitText("a b"))
	assert.Equal(t, []string{"a", "b"}, s.SplitText("a \n\n  b"))

	for _, chunk := range s.SplitText("x  y\t z") {
		assert.NotEmpty(t, chunk)
	}
}

func TestTokenLength(t *testing.T) {
	tokenLen, err := TokenLength("cl100k_base")
	if err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}

	assert.Equal(t, 0, tokenLen(""))
	assert.Equal(t, 2, tokenLen("hello world"))
	assert.Greater(t, tokenLen("黑神话悟空的战斗系统"), 1)

	s := NewRecursiveCharacterTextSplitter(
		WithChunkSize(4),
		WithChunkOverlap(0),
		WithLengthFunction(tokenLen),
	)
	text := "one two three four five six seven eight nine ten"
	chunks := s.SplitText(text)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, tokenLen(c), 4, "chunk %q", c)
	}
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, " ")))
}

func TestTokenLengthUnknownEncoding(t *testing.T) {
	_, err := TokenLength("no_such_encoding")
	assert.Error(t, err)
}

type failingSplitter struct{}

func (failingSplitter) SplitText(string) ([]string, error) {
	return nil, errors.New("boom")
}

func TestLangChainTextSplitter(t *testing.T) {
	lc := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(10),
		textsplitter.WithChunkOverlap(0),
	)
	s := NewLangChainTextSplitter(lc)

	chunks := s.SplitText("alpha beta gamma delta epsilon")
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}

	docs := s.SplitDocuments([]rag.Document{{ID: "x", Content: "alpha beta gamma delta epsilon"}})
	require.Len(t, docs, len(chunks))
	assert.Equal(t, "x", docs[0].Metadata["parent_id"])

	assert.Equal(t, []string{"keep me"}, NewLangChainTextSplitter(failingSplitter{}).SplitText("keep me"))
	assert.Equal(t, "a\nb", s.JoinText([]string{"a", "b"}))
}

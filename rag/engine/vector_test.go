package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/simplerag/index"
	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
	"github.com/smallnest/simplerag/rag/embedder"
	"github.com/smallnest/simplerag/rag/loader"
	"github.com/smallnest/simplerag/rag/splitter"
)

type echoGenerator struct {
	prompt string
	err    error
}

func (g *echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return "answer", nil
}

var corpus = []string{
	"黑神话悟空的战斗如同武侠小说活过来一般，悟空可随心切换狂猛或灵动的战斗风格。",
	"72变神通不只是变化形态，更是开启新世界的钥匙。",
	"游戏的音乐如同一首跨越千年的史诗，古琴与管弦交织出战斗的激昂。",
	"故事发生在大唐之前的蛮荒世界，各路妖王割据称雄。",
}

func newEngine(t *testing.T, gen rag.Generator) *VectorEngine {
	t.Helper()
	pc := rag.DefaultPipelineConfig()
	pc.TopK = 2
	e, err := NewVectorEngine(Config{
		Embedder:  embedder.NewHashEmbedder(256),
		Generator: gen,
		Splitter:  splitter.NewRecursiveCharacterTextSplitter(splitter.WithChunkSize(100), splitter.WithChunkOverlap(20)),
		Pipeline:  pc,
		Logger:    &log.NoOpLogger{},
	})
	require.NoError(t, err)
	return e
}

func TestVectorEngine(t *testing.T) {
	ctx := context.Background()
	gen := &echoGenerator{}
	e := newEngine(t, gen)

	_, err := e.Query(ctx, "q")
	assert.ErrorIs(t, err, ErrNotBuilt)
	_, err = e.SimilaritySearch(ctx, "q", 1)
	assert.ErrorIs(t, err, ErrNotBuilt)

	require.NoError(t, e.Ingest(ctx, loader.NewStaticTextLoader("wukong", corpus...)))
	require.NoError(t, e.Build(ctx))
	assert.Equal(t, 4, e.GetMetrics().IndexedDocuments)

	t.Run("Query", func(t *testing.T) {
		state, err := e.Query(ctx, "悟空的战斗风格")
		require.NoError(t, err)
		assert.Equal(t, "answer", state.Answer)
		require.Len(t, state.Context, 2)
		assert.Equal(t, "wukong_0_chunk_0", state.Context[0].ID)
		assert.Contains(t, gen.prompt, "[1] "+corpus[0])
		assert.Equal(t, "[1] wukong_0", state.Citations[0])
	})

	t.Run("SimilaritySearch", func(t *testing.T) {
		results, err := e.SimilaritySearch(ctx, "游戏的音乐", 10)
		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.Equal(t, "wukong_2_chunk_0", results[0].Document.ID)
	})

	t.Run("Immutable after build", func(t *testing.T) {
		assert.ErrorIs(t, e.AddDocuments(ctx, []rag.Document{{ID: "x", Content: "x"}}), ErrAlreadyBuilt)
		assert.ErrorIs(t, e.Build(ctx), ErrAlreadyBuilt)
	})

	t.Run("Metrics", func(t *testing.T) {
		m := e.GetMetrics()
		assert.Equal(t, int64(1), m.TotalQueries)
		assert.Equal(t, int64(0), m.FailedQueries)
		assert.False(t, m.LastQueryTime.IsZero())
	})
}

func TestVectorEngineErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing components", func(t *testing.T) {
		_, err := NewVectorEngine(Config{Generator: &echoGenerator{}})
		assert.Error(t, err)
		_, err = NewVectorEngine(Config{Embedder: embedder.NewHashEmbedder(8)})
		assert.Error(t, err)
	})

	t.Run("Empty corpus", func(t *testing.T) {
		e := newEngine(t, &echoGenerator{})
		assert.ErrorIs(t, e.Build(ctx), index.ErrEmptyCorpus)
	})

	t.Run("Generation failure is counted", func(t *testing.T) {
		boom := errors.New("llm down")
		e := newEngine(t, &echoGenerator{err: boom})
		require.NoError(t, e.AddDocuments(ctx, []rag.Document{{ID: "a", Content: "内容"}}))
		require.NoError(t, e.Build(ctx))

		_, err := e.Query(ctx, "q")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(1), e.GetMetrics().FailedQueries)
	})
}

// blockingEmbedder holds EmbedDocuments until release is closed.
type blockingEmbedder struct {
	*embedder.HashEmbedder
	started chan struct{}
	release chan struct{}
}

func (b *blockingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	close(b.started)
	<-b.release
	return b.HashEmbedder.EmbedDocuments(ctx, texts)
}

func TestVectorEngineBuildDoesNotBlockQueries(t *testing.T) {
	ctx := context.Background()
	emb := &blockingEmbedder{
		HashEmbedder: embedder.NewHashEmbedder(64),
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	e, err := NewVectorEngine(Config{
		Embedder:  emb,
		Generator: &echoGenerator{},
		Logger:    &log.NoOpLogger{},
	})
	require.NoError(t, err)
	require.NoError(t, e.Ingest(ctx, loader.NewStaticTextLoader("wukong", corpus...)))

	done := make(chan error, 1)
	go func() { done <- e.Build(ctx) }()
	<-emb.started

	queried := make(chan error, 1)
	go func() {
		_, err := e.Query(ctx, "q")
		queried <- err
	}()
	select {
	case err := <-queried:
		assert.ErrorIs(t, err, ErrNotBuilt)
	case <-time.After(2 * time.Second):
		t.Fatal("Query blocked while Build was embedding")
	}

	assert.Nil(t, e.Store())
	assert.Equal(t, 0, e.GetMetrics().IndexedDocuments)
	assert.ErrorIs(t, e.Build(ctx), ErrBuildInProgress)
	assert.ErrorIs(t, e.AddDocuments(ctx, []rag.Document{{ID: "x", Content: "x"}}), ErrBuildInProgress)

	close(emb.release)
	require.NoError(t, <-done)
	assert.Equal(t, len(corpus), e.GetMetrics().IndexedDocuments)

	_, err = e.Query(ctx, "悟空")
	assert.NoError(t, err)
}

func TestVectorEngineBuildFailureCanRetry(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, &echoGenerator{})
	assert.ErrorIs(t, e.Build(ctx), index.ErrEmptyCorpus)

	require.NoError(t, e.AddDocuments(ctx, []rag.Document{{ID: "a", Content: "内容"}}))
	require.NoError(t, e.Build(ctx))
	assert.Equal(t, 1, e.GetMetrics().IndexedDocuments)
}

// Package engine ties ingestion and question answering together: documents
// are loaded, split and embedded into an exact vector store, which then
// backs a retrieve and generate pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smallnest/simplerag/log"
	"github.com/smallnest/simplerag/rag"
	"github.com/smallnest/simplerag/rag/retriever"
	"github.com/smallnest/simplerag/rag/store"
)

var (
	// ErrNotBuilt is returned by queries issued before Build.
	ErrNotBuilt = errors.New("engine: index not built")
	// ErrAlreadyBuilt is returned when documents are added after Build.
	ErrAlreadyBuilt = errors.New("engine: index already built")
	// ErrBuildInProgress is returned by Build and AddDocuments while another
	// Build is embedding.
	ErrBuildInProgress = errors.New("engine: build in progress")
)

// Config configures a VectorEngine.
type Config struct {
	Embedder  rag.Embedder
	Generator rag.Generator
	// Splitter chunks added documents; nil keeps them whole.
	Splitter rag.TextSplitter
	// Pipeline holds prompt and citation settings. Retriever and Generator
	// are filled in by the engine.
	Pipeline *rag.PipelineConfig
	// Retrieval configures the vector retriever.
	Retrieval rag.RetrievalConfig
	Logger    log.Logger
}

// Metrics counts engine activity.
type Metrics struct {
	IndexedDocuments int
	TotalQueries     int64
	FailedQueries    int64
	AverageLatency   time.Duration
	LastQueryTime    time.Time
}

// VectorEngine collects documents, builds an ExactVectorStore over them
// once, and answers questions through a Pipeline.
type VectorEngine struct {
	config Config
	logger log.Logger

	mu       sync.Mutex
	building bool
	pending  []rag.Document
	store    *store.ExactVectorStore
	pipeline *rag.Pipeline
	metrics  Metrics
	latency  time.Duration
}

// NewVectorEngine creates an engine. Embedder and Generator are required.
func NewVectorEngine(config Config) (*VectorEngine, error) {
	if config.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if config.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if config.Pipeline == nil {
		config.Pipeline = rag.DefaultPipelineConfig()
	}
	return &VectorEngine{
		config: config,
		logger: log.OrDefault(config.Logger),
	}, nil
}

// AddDocuments splits docs and queues the chunks for Build.
func (e *VectorEngine) AddDocuments(ctx context.Context, docs []rag.Document) error {
	if e.config.Splitter != nil {
		docs = e.config.Splitter.SplitDocuments(docs)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store != nil {
		return ErrAlreadyBuilt
	}
	if e.building {
		return ErrBuildInProgress
	}
	e.pending = append(e.pending, docs...)
	e.logger.Debug("queued %d chunks (%d total)", len(docs), len(e.pending))
	return nil
}

// Ingest loads every loader in order and adds the documents.
func (e *VectorEngine) Ingest(ctx context.Context, loaders ...rag.DocumentLoader) error {
	for i, l := range loaders {
		docs, err := l.Load(ctx)
		if err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
		if err := e.AddDocuments(ctx, docs); err != nil {
			return err
		}
	}
	return nil
}

// Build embeds the queued documents and builds the store and pipeline.
// Embedding runs without holding the engine lock; queries issued meanwhile
// return ErrNotBuilt.
func (e *VectorEngine) Build(ctx context.Context) error {
	e.mu.Lock()
	if e.store != nil {
		e.mu.Unlock()
		return ErrAlreadyBuilt
	}
	if e.building {
		e.mu.Unlock()
		return ErrBuildInProgress
	}
	docs := e.pending
	e.building = true
	e.mu.Unlock()

	start := time.Now()
	s, p, err := e.build(ctx, docs)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.building = false
	if err != nil {
		return err
	}
	e.store = s
	e.pipeline = p
	e.metrics.IndexedDocuments = s.Len()
	e.pending = nil
	e.logger.Info("indexed %d chunks in %s", s.Len(), time.Since(start))
	return nil
}

func (e *VectorEngine) build(ctx context.Context, docs []rag.Document) (*store.ExactVectorStore, *rag.Pipeline, error) {
	s, err := store.NewExactVectorStore(ctx, e.config.Embedder, docs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build vector store: %w", err)
	}

	pc := *e.config.Pipeline
	pc.Retriever = retriever.NewVectorRetriever(s, e.config.Embedder, e.config.Retrieval)
	pc.Generator = e.config.Generator
	if pc.Logger == nil {
		pc.Logger = e.logger
	}
	p, err := rag.NewPipeline(&pc)
	if err != nil {
		return nil, nil, err
	}
	return s, p, nil
}

// Query answers question.
func (e *VectorEngine) Query(ctx context.Context, question string) (rag.State, error) {
	e.mu.Lock()
	p := e.pipeline
	e.mu.Unlock()
	if p == nil {
		return rag.State{}, ErrNotBuilt
	}

	start := time.Now()
	state, err := p.Run(ctx, question)
	e.record(time.Since(start), err)
	return state, err
}

// SimilaritySearch returns the k chunks nearest to query with their scores.
func (e *VectorEngine) SimilaritySearch(ctx context.Context, query string, k int) ([]rag.DocumentSearchResult, error) {
	s := e.Store()
	if s == nil {
		return nil, ErrNotBuilt
	}
	vec, err := e.config.Embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.Search(ctx, vec, k)
}

// Store returns the built store, or nil before Build.
func (e *VectorEngine) Store() *store.ExactVectorStore {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store
}

// GetMetrics returns a snapshot of the engine metrics.
func (e *VectorEngine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

func (e *VectorEngine) record(d time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics.TotalQueries++
	if err != nil {
		e.metrics.FailedQueries++
	}
	e.latency += d
	e.metrics.AverageLatency = e.latency / time.Duration(e.metrics.TotalQueries)
	e.metrics.LastQueryTime = time.Now()
}

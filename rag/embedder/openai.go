package embedder

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/sashabaranov/go-openai"

	"github.com/smallnest/simplerag/log"
)

// DefaultBatchSize is the number of texts sent per embeddings request.
const DefaultBatchSize = 64

// OpenAIOptions configures an OpenAIEmbedder.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string // Default "https://api.openai.com/v1"
	Model   string // Default "text-embedding-3-small"
	// Dimension asks the endpoint for shorter vectors when non-zero.
	Dimension  int
	BatchSize  int
	HTTPClient *http.Client
}

// OpenAIEmbedder calls an OpenAI compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
	learned   atomic.Int64
}

// NewOpenAIEmbedder creates a new OpenAIEmbedder
func NewOpenAIEmbedder(opts OpenAIOptions) *OpenAIEmbedder {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	}

	model := opts.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		dimension: opts.Dimension,
		batchSize: batchSize,
	}
}

// Model returns the embedding model name.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// EmbedDocument embeds a single text.
func (e *OpenAIEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments embeds texts in batches of at most BatchSize. The result is
// in input order regardless of the order the endpoint answers in.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      batch,
			Model:      openai.EmbeddingModel(e.model),
			Dimensions: e.dimension,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embeddings endpoint returned %d vectors for %d texts", len(resp.Data), len(batch))
		}

		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) || out[start+d.Index] != nil {
				return nil, fmt.Errorf("embeddings endpoint returned invalid index %d", d.Index)
			}
			out[start+d.Index] = d.Embedding
		}
		log.Debug("embedded batch %d-%d with %s", start, end, e.model)
	}

	if len(out) > 0 {
		e.learned.Store(int64(len(out[0])))
	}
	return out, nil
}

// GetDimension returns the configured dimension, or the dimension of the
// last response when none was configured. It is zero before the first call.
func (e *OpenAIEmbedder) GetDimension() int {
	if e.dimension > 0 {
		return e.dimension
	}
	return int(e.learned.Load())
}

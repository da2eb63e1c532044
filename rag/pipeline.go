package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/simplerag/graph"
	"github.com/smallnest/simplerag/log"
)

// State is the record passed between the pipeline nodes.
type State struct {
	Question  string
	Context   []Document
	Prompt    string
	Answer    string
	Citations []string
}

// PipelineConfig configures a RAG pipeline
type PipelineConfig struct {
	// TopK is the number of documents to retrieve. Zero uses the retriever default.
	TopK int

	// Template is the prompt template; see ReferencePromptTemplate.
	Template string

	// IncludeCitations adds a citation formatting node after generation.
	IncludeCitations bool

	Retriever Retriever
	Generator Generator
	Logger    log.Logger
}

// DefaultPipelineConfig returns a default RAG configuration
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		TopK:             3,
		Template:         ReferencePromptTemplate,
		IncludeCitations: true,
	}
}

// Pipeline is a compiled retrieve -> generate graph.
type Pipeline struct {
	config   *PipelineConfig
	prompt   *PromptBuilder
	logger   log.Logger
	graph    *graph.StateGraph[State]
	runnable *graph.StateRunnable[State]
}

// NewPipeline builds and compiles the pipeline graph.
func NewPipeline(config *PipelineConfig) (*Pipeline, error) {
	if config == nil {
		config = DefaultPipelineConfig()
	}
	if config.Retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if config.Generator == nil {
		return nil, errors.New("generator is required")
	}
	template := config.Template
	if template == "" {
		template = ReferencePromptTemplate
	}

	p := &Pipeline{
		config: config,
		prompt: NewPromptBuilder(template),
		logger: log.OrDefault(config.Logger),
		graph:  graph.NewStateGraph[State](),
	}

	p.graph.AddNode("retrieve", "Document retrieval node", p.retrieveNode)
	p.graph.AddNode("generate", "Answer generation node", p.generateNode)
	p.graph.SetEntryPoint("retrieve")
	p.graph.AddEdge("retrieve", "generate")

	if config.IncludeCitations {
		p.graph.AddNode("format_citations", "Citation formatting node", p.formatCitationsNode)
		p.graph.AddEdge("generate", "format_citations")
		p.graph.AddEdge("format_citations", graph.END)
	} else {
		p.graph.AddEdge("generate", graph.END)
	}

	runnable, err := p.graph.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile pipeline: %w", err)
	}
	runnable.AddListener(graph.NodeListenerFunc(func(ctx context.Context, event graph.NodeEvent, node string, err error) {
		if err != nil {
			p.logger.Error("node %s: %v", node, err)
			return
		}
		p.logger.Debug("node %s: %s", node, event)
	}))
	p.runnable = runnable

	return p, nil
}

// Run answers question and returns the final state.
func (p *Pipeline) Run(ctx context.Context, question string) (State, error) {
	return p.runnable.Invoke(ctx, State{Question: question})
}

// Answer answers question and returns the answer with the documents it was grounded on.
func (p *Pipeline) Answer(ctx context.Context, question string) (string, []Document, error) {
	state, err := p.Run(ctx, question)
	if err != nil {
		return "", nil, err
	}
	return state.Answer, state.Context, nil
}

// Graph returns the underlying graph.
func (p *Pipeline) Graph() *graph.StateGraph[State] {
	return p.graph
}

func (p *Pipeline) retrieveNode(ctx context.Context, state State) (State, error) {
	var (
		docs []Document
		err  error
	)
	if p.config.TopK > 0 {
		docs, err = p.config.Retriever.RetrieveWithK(ctx, state.Question, p.config.TopK)
	} else {
		docs, err = p.config.Retriever.Retrieve(ctx, state.Question)
	}
	if err != nil {
		return state, fmt.Errorf("retrieval failed: %w", err)
	}
	p.logger.Info("retrieved %d documents", len(docs))

	state.Context = docs
	return state, nil
}

func (p *Pipeline) generateNode(ctx context.Context, state State) (State, error) {
	prompt, err := p.prompt.Build(state.Question, state.Context)
	if err != nil {
		return state, err
	}

	answer, err := p.config.Generator.Generate(ctx, prompt)
	if err != nil {
		return state, fmt.Errorf("generation failed: %w", err)
	}

	state.Prompt = prompt
	state.Answer = answer
	return state, nil
}

func (p *Pipeline) formatCitationsNode(ctx context.Context, state State) (State, error) {
	state.Citations = Citations(state.Context)
	return state, nil
}

// Package rag defines the document model and the retrieve-then-generate
// pipeline of simplerag.
//
// The shared types live here: Document, DocumentSearchResult and the
// interfaces implemented by the sub-packages.
//
//   - loader: static texts, text files, paragraphs, directories, PDFs, web pages and langchaingo loaders
//   - splitter: a recursive character splitter, a token counter and a langchaingo adapter
//   - embedder: OpenAI, langchaingo and hash embedders plus caching and rate limiting wrappers
//   - store: ExactVectorStore, documents over an exact L2 index
//   - retriever: VectorRetriever with k, score threshold and metadata filters
//   - generator: OpenAI and langchaingo answer generators
//   - engine: VectorEngine, which ties ingestion, indexing and querying together
//
// # Pipeline
//
// A Pipeline is a compiled graph with a retrieve node, a generate node and,
// optionally, a citation node:
//
//	cfg := rag.DefaultPipelineConfig()
//	cfg.Retriever = retriever.NewVectorRetriever(vectorStore, embedder, rag.RetrievalConfig{K: 3})
//	cfg.Generator = generator.NewOpenAIGenerator(generator.OpenAIOptions{APIKey: key})
//
//	p, err := rag.NewPipeline(cfg)
//	if err != nil {
//		return err
//	}
//	state, err := p.Run(ctx, "黑神话悟空的战斗系统有什么特点?")
//
// The prompt lists the retrieved documents as numbered references so the
// model can cite them; see ReferencePromptTemplate.
//
// # Scores
//
// Stores rank by squared L2 distance, smaller meaning closer. Score maps a
// distance d to 1/(1+d) so that thresholds can be written as "higher is
// better".
package rag

// Package simplerag is a small retrieval-augmented generation toolkit.
//
// Documents are loaded, split into chunks and embedded once. The embeddings
// go into an exact, immutable L2 index (package index) that answers k
// nearest neighbor queries by brute force. At question time the question is
// embedded with the same model, the nearest chunks are retrieved and a
// prompt listing them as numbered references is sent to a language model.
//
// Packages:
//
//   - index: the exact EmbeddingIndex
//   - rag and its sub-packages: loaders, splitters, embedders, the vector store, retriever, generators and the pipeline
//   - graph: the typed state graph the pipeline runs on
//   - cache: embedding caches in memory, Redis, SQLite or PostgreSQL
//   - config: YAML, .env and environment configuration plus component factories
//   - render: HTML and terminal output for answers
//   - log: leveled logging backed by golog
//
// A minimal end-to-end run:
//
//	cfg, _ := config.Load("")
//	engine, closeCache, err := config.NewEngine(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer closeCache()
//
//	_ = engine.Ingest(ctx, loader.NewDirectoryLoader("./data"))
//	_ = engine.Build(ctx)
//	state, _ := engine.Query(ctx, "黑神话悟空的战斗系统有什么特点?")
//	fmt.Println(render.Terminal(state))
//
// See the examples directory for complete programs.
package simplerag

// Package embedder provides rag.Embedder implementations and decorators.
//
// OpenAIEmbedder talks to any OpenAI compatible embeddings endpoint and
// LangChainEmbedder wraps a langchaingo embedder. HashEmbedder needs no
// network and is meant for tests and offline demos. CachedEmbedder and
// RateLimitedEmbedder wrap another embedder.
//
// The same embedder must embed the corpus and the queries searched against
// it; vectors from different models are not comparable.
package embedder

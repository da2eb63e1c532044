// Package index provides an exact nearest-neighbor index over a fixed batch
// of embeddings.
//
// An EmbeddingIndex is built once from an ordered batch of equal-length
// vectors. The position of each vector in that batch is its identifier, so a
// caller keeps its own corpus (chunks, metadata) in a slice with the same
// order and dereferences the identifiers returned by Search.
//
//	idx, err := index.Build(embeddings)
//	if err != nil {
//		return err
//	}
//	res, err := idx.Search(queryEmbedding, 3)
//	for _, n := range res {
//		fmt.Println(chunks[n.ID], n.Distance)
//	}
//
// Search computes the squared Euclidean distance to every stored vector and
// returns the k smallest, nearest first. Equal distances are ordered by the
// lower identifier. The index never changes after Build, so any number of
// goroutines may call Search on the same index at once.
package index

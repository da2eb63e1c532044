package index

import "errors"

var (
	// ErrEmptyCorpus is returned when Build is called with no embeddings.
	ErrEmptyCorpus = errors.New("index: empty corpus")

	// ErrDimensionMismatch is returned when an embedding or a query does not
	// have the dimension of the index.
	ErrDimensionMismatch = errors.New("index: dimension mismatch")

	// ErrInvalidK is returned when k is outside 1..Len().
	ErrInvalidK = errors.New("index: invalid k")
)

// Package cache stores embedding vectors by key so that texts already
// embedded are not sent to the embedding backend again.
//
// Backends live in subpackages: memory, redis, sqlite and postgres. They all
// store vectors with EncodeVector, so an entry written by one process can be
// read by any other using the same backend.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrCorruptEntry is returned when a stored value is not a valid vector.
var ErrCorruptEntry = errors.New("cache: corrupt vector entry")

// Store is a key/value store for embedding vectors.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the vector stored under key. ok is false on a miss.
	Get(ctx context.Context, key string) (vec []float32, ok bool, err error)
	// Set stores vec under key, replacing any previous value.
	Set(ctx context.Context, key string, vec []float32) error
	Close() error
}

// EncodeVector serializes vec as little-endian float32 values.
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector parses the output of EncodeVector.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptEntry, len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}

package splitter

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenLength returns a length function counting tokens of a tiktoken
// encoding such as "cl100k_base". Use it with WithLengthFunction to size
// chunks in model tokens instead of runes.
func TokenLength(encoding string) (func(string) int, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return func(text string) int {
		return len(tke.Encode(text, nil, nil))
	}, nil
}

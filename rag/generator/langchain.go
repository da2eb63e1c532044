package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainGenerator generates answers with any langchaingo llms.Model.
type LangChainGenerator struct {
	model   llms.Model
	options []llms.CallOption
}

// NewLangChainGenerator wraps model; options are passed on every call.
func NewLangChainGenerator(model llms.Model, options ...llms.CallOption) *LangChainGenerator {
	return &LangChainGenerator{model: model, options: options}
}

// Generate returns the model's answer to prompt.
func (g *LangChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, g.options...)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// NewOpenAIModel creates a langchaingo model for an OpenAI compatible
// endpoint. Empty arguments keep the langchaingo defaults, which read
// OPENAI_API_KEY and OPENAI_MODEL from the environment.
func NewOpenAIModel(token, baseURL, model string) (llms.Model, error) {
	var opts []openai.Option
	if token != "" {
		opts = append(opts, openai.WithToken(token))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}
	return openai.New(opts...)
}

// NewOllamaModel creates a langchaingo model for an Ollama server.
func NewOllamaModel(serverURL, model string) (llms.Model, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	return ollama.New(opts...)
}

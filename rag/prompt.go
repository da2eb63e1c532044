package rag

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// ReferencePromptTemplate asks the model to answer from numbered references
// and to cite the reference numbers it used.
const ReferencePromptTemplate = `根据以下参考信息回答问题，并给出信息源编号。
如果无法从参考信息中找到答案，请说明无法回答。
参考信息:
{{.context}}
问题: {{.question}}
答案:`

// ContextPromptTemplate asks the model to answer from the context only.
const ContextPromptTemplate = `基于以下上下文，回答问题。如果上下文中没有相关信息，
请说"我无法从提供的上下文中找到相关信息"。
上下文: {{.context}}
问题: {{.question}}
回答:`

// PromptBuilder renders a question and retrieved documents into a prompt.
type PromptBuilder struct {
	template prompts.PromptTemplate
}

// NewPromptBuilder creates a PromptBuilder from a Go template that uses the
// {{.context}} and {{.question}} variables.
func NewPromptBuilder(template string) *PromptBuilder {
	return &PromptBuilder{
		template: prompts.NewPromptTemplate(template, []string{"context", "question"}),
	}
}

// Build renders the prompt.
func (b *PromptBuilder) Build(question string, docs []Document) (string, error) {
	out, err := b.template.Format(map[string]any{
		"context":  FormatContext(docs),
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}
	return out, nil
}

// FormatContext renders documents as a numbered reference block:
//
//	[1] first document
//	[2] second document
func FormatContext(docs []Document) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, doc.Content)
	}
	return strings.Join(parts, "\n")
}

// Citations lists the source of every document, numbered like FormatContext.
func Citations(docs []Document) []string {
	citations := make([]string, len(docs))
	for i, doc := range docs {
		citations[i] = fmt.Sprintf("[%d] %s", i+1, doc.Source())
	}
	return citations
}

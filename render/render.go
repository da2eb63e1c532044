// Package render formats pipeline answers for a browser or a terminal.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/simplerag/rag"
)

// SourcesHeading titles the citation list.
const SourcesHeading = "参考来源"

// MarkdownToHTML converts model output to sanitized HTML.
func MarkdownToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := markdown.Render(doc, renderer)

	return string(bluemonday.UGCPolicy().SanitizeBytes(out))
}

// Markdown returns the answer followed by the source list.
func Markdown(state rag.State) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(state.Answer))
	if len(state.Citations) > 0 {
		sb.WriteString("\n\n## " + SourcesHeading + "\n\n")
		for _, c := range state.Citations {
			sb.WriteString("- " + c + "\n")
		}
	}
	return sb.String()
}

// HTML renders state as an HTML fragment.
func HTML(state rag.State) string {
	return MarkdownToHTML(Markdown(state))
}

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	answerStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	sourceStyle = lipgloss.NewStyle().Faint(true)
)

// Terminal renders state for a terminal: the question, the answer in a box,
// then the sources.
func Terminal(state rag.State) string {
	parts := []string{
		questionStyle.Render("Q: " + state.Question),
		answerStyle.Render(strings.TrimSpace(state.Answer)),
	}
	for _, c := range state.Citations {
		parts = append(parts, sourceStyle.Render(c))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

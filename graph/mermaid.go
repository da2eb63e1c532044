package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Mermaid returns a Mermaid flowchart of the graph. direction is a Mermaid
// direction such as "TD" or "LR"; empty means "TD".
func (g *StateGraph[S]) Mermaid(direction string) string {
	if direction == "" {
		direction = "TD"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	if g.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		fmt.Fprintf(&sb, "    START --> %s\n", g.entryPoint)
	}
	for _, n := range g.Nodes() {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", n.Name, n.Name)
	}

	hasEnd := false
	for _, e := range g.edges {
		if e.To == END {
			hasEnd = true
		}
	}
	if hasEnd {
		sb.WriteString("    END([\"END\"])\n")
	}

	for _, e := range g.edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", e.From, e.To)
	}

	conditional := make([]string, 0, len(g.conditionalEdges))
	for from := range g.conditionalEdges {
		conditional = append(conditional, from)
	}
	sort.Strings(conditional)
	for _, from := range conditional {
		fmt.Fprintf(&sb, "    %s -.-> %s_route{\"?\"}\n", from, from)
	}

	return sb.String()
}

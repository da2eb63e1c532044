// Package graph runs small workflows as directed graphs of typed nodes.
//
// A StateGraph[S] holds named nodes, each a function from S to S, joined by
// plain or conditional edges. Compile checks that the entry point and every
// edge endpoint exist and returns a StateRunnable whose Invoke walks the
// graph from the entry point until it reaches END:
//
//	g := graph.NewStateGraph[State]()
//	g.AddNode("retrieve", "Document retrieval", retrieve)
//	g.AddNode("generate", "Answer generation", generate)
//	g.SetEntryPoint("retrieve")
//	g.AddEdge("retrieve", "generate")
//	g.AddEdge("generate", graph.END)
//
//	runnable, err := g.Compile()
//	final, err := runnable.Invoke(ctx, State{Question: q})
//
// Nodes receive the state by value and return the next state, so a node
// error leaves the caller's initial state untouched. Listeners added with
// AddListener see start, complete and error events for every node, and
// SetRecursionLimit bounds runs through cyclic conditional edges.
//
// Mermaid renders the graph as a Mermaid flowchart for documentation.
package graph

package graph

import (
	"context"
	"fmt"
	"sort"
)

// StateGraph is a directed graph of nodes that pass a typed state record from
// one to the next. Each node receives the current state and returns the
// updated state; there is no shared mutable state between nodes.
//
//	type QA struct {
//	    Question string
//	    Answer   string
//	}
//
//	g := graph.NewStateGraph[QA]()
//	g.AddNode("answer", "Answer the question", func(ctx context.Context, s QA) (QA, error) {
//	    s.Answer = "42"
//	    return s, nil
//	})
//	g.SetEntryPoint("answer")
//	g.AddEdge("answer", graph.END)
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]TypedNode[S]

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges maps a "From" node to a function choosing the next node
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string
}

// NewStateGraph creates a new instance of StateGraph for state type S.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]TypedNode[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = TypedNode[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds an edge whose target is chosen at runtime from the state.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// Nodes returns the registered nodes sorted by name.
func (g *StateGraph[S]) Nodes() []TypedNode[S] {
	out := make([]TypedNode[S], 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StateRunnable is a compiled state graph.
type StateRunnable[S any] struct {
	graph          *StateGraph[S]
	listeners      []NodeListener
	recursionLimit int
}

// Compile validates the graph and returns a StateRunnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, e.To)
		}
	}

	return &StateRunnable[S]{
		graph:          g,
		recursionLimit: DefaultRecursionLimit,
	}, nil
}

// AddListener registers a listener notified around every node execution.
func (r *StateRunnable[S]) AddListener(l NodeListener) {
	r.listeners = append(r.listeners, l)
}

// SetRecursionLimit bounds the number of node executions per Invoke.
func (r *StateRunnable[S]) SetRecursionLimit(limit int) {
	if limit > 0 {
		r.recursionLimit = limit
	}
}

// Invoke runs the graph from the entry point until END and returns the final state.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	state := initialState
	current := r.graph.entryPoint

	for steps := 0; current != END; steps++ {
		if steps >= r.recursionLimit {
			return state, fmt.Errorf("%w: %d", ErrRecursionLimit, r.recursionLimit)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		r.notify(ctx, NodeEventStart, current, nil)
		next, err := node.Function(ctx, state)
		if err != nil {
			r.notify(ctx, NodeEventError, current, err)
			return state, fmt.Errorf("error in node %s: %w", current, err)
		}
		r.notify(ctx, NodeEventComplete, current, nil)
		state = next

		current, err = r.nextNode(ctx, current, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

func (r *StateRunnable[S]) nextNode(ctx context.Context, from string, state S) (string, error) {
	if cond, ok := r.graph.conditionalEdges[from]; ok {
		next := cond(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", from)
		}
		return next, nil
	}
	for _, e := range r.graph.edges {
		if e.From == from {
			return e.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}

func (r *StateRunnable[S]) notify(ctx context.Context, event NodeEvent, node string, err error) {
	for _, l := range r.listeners {
		l.OnNodeEvent(ctx, event, node, err)
	}
}

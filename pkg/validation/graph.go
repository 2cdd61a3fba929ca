package validation

import (
	"fmt"

	"github.com/dukex/flowgate/pkg/models"
	"github.com/dukex/flowgate/pkg/schema"
)

const (
	MessageIteratorRequired    = "Schema contains recipients array but no Iterator node found before Send nodes"
	MessageCorrelationRequired = "Correlation field required when flow contains async nodes (Timer, Webhook, DLR)"
	portNotConnected           = "Port '%s' is enabled but not connected to any node"
)

// Context is the snapshot a validation run works on. InputSchema holds the
// resolved text of the start node's inputSchemaRef.
type Context struct {
	Nodes       []*models.Node
	Edges       []*models.Edge
	StartNode   *models.Node
	Environment models.Environment
	InputSchema string
}

// NewContext builds a validation snapshot of a stored flow.
func NewContext(flow *models.Flow, inputSchema string) Context {
	return Context{
		Nodes:       flow.Nodes,
		Edges:       flow.Edges,
		StartNode:   flow.StartNode(),
		Environment: flow.Environment,
		InputSchema: inputSchema,
	}
}

func (c Context) startNode() *models.Node {
	if c.StartNode != nil {
		return c.StartNode
	}

	for _, node := range c.Nodes {
		if node != nil && node.Type == models.NodeTypeStart {
			return node
		}
	}

	return nil
}

// graph is an index-addressed arena of the flow's nodes with incoming
// adjacency lists.
type graph struct {
	nodes    []*models.Node
	index    map[string]int
	incoming [][]int
}

func newGraph(nodes []*models.Node, edges []*models.Edge) *graph {
	g := &graph{
		nodes: make([]*models.Node, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}

		if _, dup := g.index[node.ID]; dup {
			continue
		}

		g.index[node.ID] = len(g.nodes)
		g.nodes = append(g.nodes, node)
	}

	g.incoming = make([][]int, len(g.nodes))

	for _, edge := range edges {
		if edge == nil {
			continue
		}

		source, okSource := g.index[edge.Source]
		target, okTarget := g.index[edge.Target]

		if !okSource || !okTarget {
			continue
		}

		g.incoming[target] = append(g.incoming[target], source)
	}

	return g
}

// hasIteratorAncestor walks incoming edges depth-first from start and returns
// true as soon as an iterator is found, start itself included. The visited
// set is fresh per call.
func (g *graph) hasIteratorAncestor(start int) bool {
	visited := make([]bool, len(g.nodes))
	stack := []int{start}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}

		visited[current] = true

		if g.nodes[current].Iterates() {
			return true
		}

		for _, parent := range g.incoming[current] {
			if !visited[parent] {
				stack = append(stack, parent)
			}
		}
	}

	return false
}

func (g *graph) hasIterator() bool {
	for _, node := range g.nodes {
		if node.Iterates() {
			return true
		}
	}

	return false
}

// ValidateFlowGraph runs the structural checks that need the whole graph.
func ValidateFlowGraph(ctx Context) []models.ValidationError {
	issues := []models.ValidationError{}

	g := newGraph(ctx.Nodes, ctx.Edges)
	start := ctx.startNode()

	if ctx.InputSchema != "" && schema.HasRecipientsArray(ctx.InputSchema) && !sendNodesIterated(g) {
		issues = append(issues, issue("iterator", MessageIteratorRequired, models.SeverityError))
	}

	if hasAsyncNode(g) && !hasCorrelationField(start) {
		issues = append(issues, issue("correlation.field", MessageCorrelationRequired, models.SeverityError))
	}

	if props := start.StartProps(); props != nil {
		for _, port := range props.Ports.Enabled() {
			if !portConnected(ctx.Edges, start.ID, port) {
				issues = append(issues, issue("ports."+port, fmt.Sprintf(portNotConnected, port), models.SeverityError))
			}
		}
	}

	return issues
}

// sendNodesIterated reports whether every send node has an iterator ancestor.
func sendNodesIterated(g *graph) bool {
	hasIterator := g.hasIterator()

	for i, node := range g.nodes {
		if !node.Type.IsSend() {
			continue
		}

		if !hasIterator || !g.hasIteratorAncestor(i) {
			return false
		}
	}

	return true
}

func hasAsyncNode(g *graph) bool {
	for _, node := range g.nodes {
		if node.Type.IsAsync() {
			return true
		}
	}

	return false
}

func hasCorrelationField(start *models.Node) bool {
	props := start.StartProps()

	return props != nil && props.Correlation != nil && props.Correlation.Field != ""
}

func portConnected(edges []*models.Edge, startID, port string) bool {
	for _, edge := range edges {
		if edge != nil && edge.Source == startID && edge.SourceHandle == port {
			return true
		}
	}

	return false
}

// ValidateFlow runs the start-node rules followed by the graph checks.
func ValidateFlow(ctx Context) []models.ValidationError {
	issues := []models.ValidationError{}

	if props := ctx.startNode().StartProps(); props != nil {
		issues = append(issues, ValidateStartNode(props, ctx.Environment)...)
	}

	return append(issues, ValidateFlowGraph(ctx)...)
}

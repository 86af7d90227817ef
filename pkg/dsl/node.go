package dsl

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	id        string
	produces  []string
	consumes  []string
	clears    []string
	next      []string
	aggregate bool
	builder   *Builder
}

// Produces adds fields the node writes on EXECUTE.
func (n *NodeBuilder) Produces(fields ...string) *NodeBuilder {
	n.produces = append(n.produces, fields...)
	return n
}

// Consumes adds fields the node may be clarified with.
func (n *NodeBuilder) Consumes(fields ...string) *NodeBuilder {
	n.consumes = append(n.consumes, fields...)
	return n
}

// Clears sets the explicit rollback rule of the node.
func (n *NodeBuilder) Clears(fields ...string) *NodeBuilder {
	n.clears = append([]string{}, fields...)
	return n
}

// Aggregate marks the node as rolling up several upstreams.
func (n *NodeBuilder) Aggregate() *NodeBuilder {
	n.aggregate = true
	return n
}

// Go adds edges to downstream nodes.
func (n *NodeBuilder) Go(targets ...string) *NodeBuilder {
	n.next = append(n.next, targets...)
	return n
}

// Add returns to the parent builder to declare the next node.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}

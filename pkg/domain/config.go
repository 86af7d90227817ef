package domain

import (
	"maps"
	"slices"
)

// NodeSpec is the static registry entry of a node.
type NodeSpec struct {
	// Produces lists the fields the node writes on EXECUTE. Disjoint across nodes.
	Produces []string `json:"produces" yaml:"produces" mapstructure:"produces"`

	// Consumes lists the fields the node may be clarified with.
	Consumes []string `json:"consumes,omitempty" yaml:"consumes,omitempty" mapstructure:"consumes"`
}

// Registry maps node names to their specs.
type Registry map[string]NodeSpec

// Graph maps a node to its direct downstream nodes.
type Graph map[string][]string

// RollbackRules holds the explicit per-node clear sets and the always-cleared report fields.
type RollbackRules struct {
	Clears       map[string][]string `json:"clears" yaml:"clears"`
	ReportsFixed []string            `json:"reports_fixed" yaml:"reports_fixed"`
}

// RollbackPolicies identifies aggregate nodes and the allowed policy names.
type RollbackPolicies struct {
	AggregateNodes []string `json:"aggregate_nodes" yaml:"aggregate_nodes"`
	Policies       []string `json:"policies" yaml:"policies"`
}

// Config is the canonical, already-normalized workflow configuration.
// It is read-only after construction and safe to share across simulators.
type Config struct {
	Registry Registry         `json:"registry"`
	Graph    Graph            `json:"graph"`
	Rules    RollbackRules    `json:"rules"`
	Policies RollbackPolicies `json:"policies"`
}

// Produces returns the write set of a node; unknown nodes produce nothing.
func (c *Config) Produces(node string) []string {
	return c.Registry[node].Produces
}

// IsAggregate reports whether node is flagged as an aggregate node.
func (c *Config) IsAggregate(node string) bool {
	return slices.Contains(c.Policies.AggregateNodes, node)
}

// Nodes returns every registered node name in sorted order.
func (c *Config) Nodes() []string {
	return slices.Sorted(maps.Keys(c.Registry))
}

// Producer returns the node owning a field, if any.
func (c *Config) Producer(field string) (string, bool) {
	for _, name := range c.Nodes() {
		if slices.Contains(c.Registry[name].Produces, field) {
			return name, true
		}
	}
	return "", false
}

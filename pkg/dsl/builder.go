package dsl

import (
	"fmt"
	"slices"

	"github.com/aretw0/rewind/pkg/domain"
)

// Builder manages the rule set construction.
type Builder struct {
	nodes        map[string]*NodeBuilder
	order        []string
	reportsFixed []string
	policies     []string
}

// New creates a new rule set builder allowing the three built-in policies.
func New() *Builder {
	return &Builder{
		nodes:    make(map[string]*NodeBuilder),
		policies: []string{domain.PolicyFullDownstream, domain.PolicyAggregateOnly, domain.PolicyCustom},
	}
}

// Add creates a new node in the rule set.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{id: id, builder: b}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// ReportsFixed adds fields every rollback clears.
func (b *Builder) ReportsFixed(fields ...string) *Builder {
	b.reportsFixed = append(b.reportsFixed, fields...)
	return b
}

// Policies replaces the allowed policy names.
func (b *Builder) Policies(names ...string) *Builder {
	b.policies = slices.Clone(names)
	return b
}

// Build compiles the rule set into a configuration. Edges must point at declared nodes and a
// field may have only one producer; deeper coherence checks are left to the validator.
func (b *Builder) Build() (*domain.Config, error) {
	cfg := &domain.Config{
		Registry: domain.Registry{},
		Graph:    domain.Graph{},
		Rules: domain.RollbackRules{
			Clears:       map[string][]string{},
			ReportsFixed: slices.Clone(b.reportsFixed),
		},
		Policies: domain.RollbackPolicies{
			Policies: slices.Clone(b.policies),
		},
	}

	owner := map[string]string{}
	for _, id := range b.order {
		nb := b.nodes[id]
		for _, f := range nb.produces {
			if prev, ok := owner[f]; ok {
				return nil, fmt.Errorf("%w: field %s produced by both %s and %s", domain.ErrInvalidConfig, f, prev, id)
			}
			owner[f] = id
		}
		for _, to := range nb.next {
			if _, ok := b.nodes[to]; !ok {
				return nil, fmt.Errorf("%w: edge %s -> %s targets an undeclared node", domain.ErrInvalidConfig, id, to)
			}
		}

		cfg.Registry[id] = domain.NodeSpec{
			Produces: slices.Clone(nb.produces),
			Consumes: slices.Clone(nb.consumes),
		}
		if len(nb.next) > 0 {
			cfg.Graph[id] = slices.Clone(nb.next)
		}
		if nb.clears != nil {
			cfg.Rules.Clears[id] = slices.Clone(nb.clears)
		}
		if nb.aggregate {
			cfg.Policies.AggregateNodes = append(cfg.Policies.AggregateNodes, id)
		}
	}
	return cfg, nil
}

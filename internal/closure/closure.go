package closure

import (
	"slices"

	"github.com/aretw0/rewind/pkg/domain"
)

// Set is an unordered set of names.
type Set map[string]struct{}

// NewSet builds a set from the given names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	s.Add(names...)
	return s
}

// Add inserts names into the set.
func (s Set) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// Has reports membership.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Engine answers reachability and rollback-scope queries for a Config.
type Engine struct {
	cfg       *domain.Config
	aggregate Set
	fixed     []string
}

// New creates an Engine over a read-only configuration.
func New(cfg *domain.Config) *Engine {
	return &Engine{
		cfg:       cfg,
		aggregate: NewSet(cfg.Policies.AggregateNodes...),
		fixed:     cfg.Rules.ReportsFixed,
	}
}

// Config returns the configuration the engine reads.
func (e *Engine) Config() *domain.Config {
	return e.cfg
}

// Downstream returns every node transitively reachable from node, excluding node itself.
// The seen-set guarantees termination on malformed (cyclic) graphs.
func (e *Engine) Downstream(node string) Set {
	seen := make(Set)
	stack := []string{node}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range e.cfg.Graph[cur] {
			if seen.Has(next) {
				continue
			}
			seen.Add(next)
			stack = append(stack, next)
		}
	}
	delete(seen, node)
	return seen
}

// ClearsFullDownstream returns the fields a full_downstream rollback of node erases:
// for node and every downstream node, its explicit clears set or, when that is empty, its
// produces set; plus the always-cleared report fields.
func (e *Engine) ClearsFullDownstream(node string) []string {
	fields := make(Set)
	for n := range e.AffectedFullDownstream(node) {
		if clears := e.cfg.Rules.Clears[n]; len(clears) > 0 {
			fields.Add(clears...)
		} else {
			fields.Add(e.cfg.Produces(n)...)
		}
	}
	fields.Add(e.fixed...)
	return fields.Sorted()
}

// ClearsAggregateOnly returns the fields an aggregate_only rollback of node erases:
// node's own produces, the produces of every reachable aggregate node, and the
// always-cleared report fields.
func (e *Engine) ClearsAggregateOnly(node string) []string {
	fields := NewSet(e.cfg.Produces(node)...)
	for n := range e.Downstream(node) {
		if e.aggregate.Has(n) {
			fields.Add(e.cfg.Produces(n)...)
		}
	}
	fields.Add(e.fixed...)
	return fields.Sorted()
}

// ClearsCustom returns the fields a custom rollback erases: the explicit fields, the
// produces of every included node, and the always-cleared set unless reportsFixed is false.
func (e *Engine) ClearsCustom(fields, includeNodes []string, reportsFixed bool) []string {
	out := NewSet(fields...)
	for _, n := range includeNodes {
		out.Add(e.cfg.Produces(n)...)
	}
	if reportsFixed {
		out.Add(e.fixed...)
	}
	return out.Sorted()
}

// AffectedFullDownstream returns {node} ∪ Downstream(node).
func (e *Engine) AffectedFullDownstream(node string) Set {
	affected := e.Downstream(node)
	affected.Add(node)
	return affected
}

// AffectedAggregateOnly returns {node} ∪ (Downstream(node) ∩ aggregate nodes).
func (e *Engine) AffectedAggregateOnly(node string) Set {
	affected := NewSet(node)
	for n := range e.Downstream(node) {
		if e.aggregate.Has(n) {
			affected.Add(n)
		}
	}
	return affected
}

// Scope is the full effect of a rollback policy, computed without touching any state.
type Scope struct {
	Node   string   `json:"node"`
	Policy string   `json:"policy"`
	Fields []string `json:"fields"`
	Nodes  []string `json:"nodes"`
}

// Preview computes the scope of a rollback action. It reports false for unknown policies.
func (e *Engine) Preview(rb domain.Rollback) (Scope, bool) {
	scope := Scope{Node: rb.Node, Policy: rb.Policy}
	switch rb.Policy {
	case domain.PolicyFullDownstream:
		scope.Fields = e.ClearsFullDownstream(rb.Node)
		scope.Nodes = e.AffectedFullDownstream(rb.Node).Sorted()
	case domain.PolicyAggregateOnly:
		scope.Fields = e.ClearsAggregateOnly(rb.Node)
		scope.Nodes = e.AffectedAggregateOnly(rb.Node).Sorted()
	case domain.PolicyCustom:
		scope.Fields = e.ClearsCustom(rb.Fields, rb.IncludeNodes, rb.ReportsFixed())
		scope.Nodes = NewSet(rb.IncludeNodes...).Sorted()
	default:
		return scope, false
	}
	return scope, true
}

package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/rewind/internal/closure"
	"github.com/aretw0/rewind/pkg/domain"
)

// CoverageRow records whether a field is cleared by some rollback under each policy.
type CoverageRow struct {
	Field            string `json:"field"`
	Producer         string `json:"producer_node"`
	CoveredFull      bool   `json:"covered_full"`
	CoveredAggregate bool   `json:"covered_aggregate_only"`
}

// Report is the outcome of a coherence check.
type Report struct {
	Errors   []string      `json:"errors"`
	Warnings []string      `json:"warnings"`
	Order    []string      `json:"topological_order,omitempty"`
	Coverage []CoverageRow `json:"coverage"`
}

// OK reports whether no errors were found. Warnings do not count.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the errors joined into one error, or nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(r.Errors, "; "))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks a configuration for structural and semantic coherence: referenced nodes
// exist, the graph is acyclic, clears name real fields, policies are allowed, ownership is
// unique, and every rollback policy covers what it must without leaking.
func Validate(cfg *domain.Config) *Report {
	r := &Report{Errors: []string{}, Warnings: []string{}}
	nodes := cfg.Nodes()
	known := closure.NewSet(nodes...)

	owner := make(map[string]string)
	for _, n := range nodes {
		for _, f := range cfg.Produces(n) {
			if prev, dup := owner[f]; dup {
				r.errorf("field %q produced by multiple nodes: %s and %s", f, prev, n)
				continue
			}
			owner[f] = n
		}
	}

	checkReferences(r, cfg, known)

	order, acyclic := topoSort(nodes, cfg.Graph)
	if acyclic {
		r.Order = order
	} else {
		r.errorf("node_graph contains cycles")
	}

	fixed := closure.NewSet(cfg.Rules.ReportsFixed...)
	for _, n := range sortedKeys(cfg.Rules.Clears) {
		var unknown []string
		for _, f := range cfg.Rules.Clears[n] {
			if _, ok := owner[f]; !ok && !fixed.Has(f) {
				unknown = append(unknown, f)
			}
		}
		if len(unknown) > 0 {
			r.errorf("rollback_rules[%s]: unknown fields not produced by any node or reports_fixed: %v", n, unknown)
		}
	}

	allowed := closure.NewSet(domain.AllowedPolicies...)
	for _, p := range cfg.Policies.Policies {
		if !allowed.Has(p) {
			r.errorf("rollback_policies: policy %q not in allowed %v", p, allowed.Sorted())
		}
	}

	// Semantic checks walk reachability; skip them on a cyclic graph.
	if !acyclic {
		return r
	}
	checkSemantics(r, cfg, owner)
	return r
}

func checkReferences(r *Report, cfg *domain.Config, known closure.Set) {
	for _, from := range sortedKeys(cfg.Graph) {
		if !known.Has(from) {
			r.errorf("node_graph: node %q not found in nodes.yaml", from)
		}
		for _, to := range cfg.Graph[from] {
			if !known.Has(to) {
				r.errorf("node_graph: node %q not found in nodes.yaml", to)
			}
		}
	}
	for _, n := range cfg.Policies.AggregateNodes {
		if !known.Has(n) {
			r.errorf("aggregate_nodes: %q not found in nodes.yaml", n)
		}
	}
	if len(cfg.Policies.AggregateNodes) == 0 {
		r.warnf("rollback_policies: no aggregate_nodes; aggregate_only checks will be shallow")
	}
	for _, n := range sortedKeys(cfg.Rules.Clears) {
		if !known.Has(n) {
			r.errorf("rollback_rules: node %q not found in nodes.yaml", n)
		}
	}
}

func checkSemantics(r *Report, cfg *domain.Config, owner map[string]string) {
	e := closure.New(cfg)
	nodes := cfg.Nodes()
	unionFull := closure.NewSet()
	unionAggregate := closure.NewSet()

	for _, n := range nodes {
		down := e.Downstream(n)
		produced := closure.NewSet(cfg.Produces(n)...)

		for _, d := range down.Sorted() {
			var shared []string
			for _, f := range cfg.Produces(d) {
				if produced.Has(f) {
					shared = append(shared, f)
				}
			}
			if len(shared) > 0 {
				slices.Sort(shared)
				r.errorf("write conflict: fields %v produced by both %s and downstream %s", shared, n, d)
			}
		}

		required := closure.NewSet(cfg.Produces(n)...)
		for d := range down {
			required.Add(cfg.Produces(d)...)
		}
		required.Add(cfg.Rules.ReportsFixed...)
		unionFull.Add(required.Sorted()...)

		effective := closure.NewSet(e.ClearsFullDownstream(n)...)
		if gaps := missing(required, effective); len(gaps) > 0 {
			r.errorf("full_downstream gap: rollback of %s leaves %v", n, gaps)
		}
		if explicit, ok := cfg.Rules.Clears[n]; ok && len(explicit) > 0 {
			if gaps := missing(required, closure.NewSet(explicit...)); len(gaps) > 0 {
				r.warnf("rollback_rules[%s]: clears omit downstream fields %v; relying on downstream rules", n, gaps)
			}
		}

		aggregateOnly := e.ClearsAggregateOnly(n)
		unionAggregate.Add(aggregateOnly...)
		if len(cfg.Policies.AggregateNodes) == 0 {
			continue
		}
		nonAggregate := closure.NewSet()
		for d := range down {
			if !cfg.IsAggregate(d) {
				nonAggregate.Add(cfg.Produces(d)...)
			}
		}
		var leak []string
		for _, f := range aggregateOnly {
			if nonAggregate.Has(f) {
				leak = append(leak, f)
			}
		}
		if len(leak) > 0 {
			r.errorf("aggregate_only leakage: rollback of %s would clear non-aggregate fields %v", n, leak)
		}
	}

	all := closure.NewSet(cfg.Rules.ReportsFixed...)
	for f := range owner {
		all.Add(f)
	}
	var uncovered []string
	for _, f := range all.Sorted() {
		producer, ok := owner[f]
		if !ok {
			producer = "reports_fixed"
		}
		row := CoverageRow{
			Field:            f,
			Producer:         producer,
			CoveredFull:      unionFull.Has(f),
			CoveredAggregate: unionAggregate.Has(f),
		}
		if !row.CoveredFull && !row.CoveredAggregate {
			uncovered = append(uncovered, f)
		}
		r.Coverage = append(r.Coverage, row)
	}
	if len(uncovered) > 0 {
		r.errorf("fields not covered by any policy: %v", uncovered)
	}
}

// topoSort orders nodes with Kahn's algorithm, considering only edges between known nodes.
// It reports false when a cycle prevents a complete order.
func topoSort(nodes []string, graph domain.Graph) ([]string, bool) {
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n] = 0
	}
	for _, from := range sortedKeys(graph) {
		if _, ok := inDegree[from]; !ok {
			continue
		}
		for _, to := range graph[from] {
			if _, ok := inDegree[to]; ok {
				inDegree[to]++
			}
		}
	}

	var queue, order []string
	for _, n := range nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)
		for _, v := range graph[u] {
			if _, ok := inDegree[v]; !ok {
				continue
			}
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}
	return order, len(order) == len(nodes)
}

func missing(required, provided closure.Set) []string {
	var out []string
	for _, f := range required.Sorted() {
		if !provided.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

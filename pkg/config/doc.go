// Package config loads a workflow rule directory into the canonical domain.Config.
//
// The directory layout is:
//
//	mappings/nodes.yaml            node registry (produces / consumes)
//	rules/node_graph.yaml          dependency edges, optional aggregate_nodes
//	rules/rollback_rules.yaml      per-node clears, reports_fixed
//	rules/rollback_policies.yaml   aggregate_nodes, declared policies
//	rules/readiness.yaml           optional readiness profile overrides
//
// Historical shapes (reset_set instead of clears, policy tables nested under
// policy.definitions, aggregate nodes declared in the graph file) are normalized here so the
// simulator only ever sees one shape. Files ending in .json are parsed as JSON.
package config

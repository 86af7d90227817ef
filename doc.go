/*
Package rewind simulates a staged diagnostic workflow and the controlled rollback of its
decisions.

A workflow is a directed acyclic graph of named nodes, each owning the fields of shared state
it produces. A trajectory is driven by four actions: EXECUTE writes a node's fields,
ROLLBACK invalidates a node and what depends on it under one of three policies
(full_downstream, aggregate_only, custom), CLARIFY records a slot awaiting the user, and
GENERATE_REPORT asks the readiness gates whether a final report may be produced.

# Usage

	eng, err := rewind.New("./rules")
	if err != nil {
		log.Fatal(err)
	}

	traj := domain.NewTrajectory("t-1")
	res := eng.Step(ctx, traj, map[string]any{"type": "EXECUTE", "node": "INTAKE"})
	fmt.Println(res.OK, res.Events)

Step never returns a Go error: malformed actions come back with a single "SchemaError: ..."
event, unknown policies with "Unknown policy <name>", and failed readiness checks with
itemized "ERROR: " and "WARNING: " events.

# Packages

  - pkg/domain: state, history, actions and configuration types.
  - pkg/config: loads a rule directory into a Config.
  - pkg/dsl: builds a Config in Go instead of YAML.
  - pkg/schema: the JSON Schema gate in front of Step.
  - pkg/readiness: the grading and report readiness gates.
  - pkg/session: per-trajectory locking and persistence around Step.
  - pkg/adapters: HTTP, MCP, Redis, file and in-memory adapters.
  - pkg/persistence/middleware: encryption and redaction around any trajectory store.
  - pkg/observability: Prometheus metrics and structured logging fed by lifecycle hooks.

The rewind command (cmd/rewind) exposes the same operations from the shell.
*/
package rewind

// Package schema is the structural gate in front of the simulator.
//
// Actions arrive as loosely-typed JSON objects. A Gate validates them against the embedded
// action schema (JSON Schema draft 2020-12), optionally constraining node names to a
// registry, and Decode turns a validated object into a typed domain.Action.
//
// Basic usage:
//
//	gate, err := schema.NewGate(cfg.Nodes())
//	if err != nil {
//	    return err
//	}
//	if err := gate.Validate(raw); err != nil {
//	    // err is a *schema.ViolationError; its Error() is the "SchemaError: ..." event
//	}
//	action, err := schema.Decode(raw)
//
// The package also generates the companion documents the gate and tooling rely on:
// NodesSchema (the node-id enumeration) and PayloadSchema (per-node clarification payloads).
package schema

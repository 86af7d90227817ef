/*
Package domain contains the core domain models of the rewind simulator.

It defines the entities a trajectory is made of: the shared field State, the ordered
execution History, the closed set of Actions a caller may issue, and the StepResult
returned by every transition. It also carries the already-parsed workflow configuration
(node registry, dependency graph, rollback rules and policies). The package is kept pure
and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Fields: The mutable field map. A cleared field is an absent key, never a nil value.
  - History: Ordered, duplicate-free list of nodes currently considered done.
  - Action: EXECUTE, ROLLBACK, CLARIFY or GENERATE_REPORT.
  - Config: Registry, Graph, RollbackRules and RollbackPolicies in canonical shape.
  - Trajectory: One independently-owned Fields/History pair, the unit of persistence.
*/
package domain

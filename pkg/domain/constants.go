package domain

// PendingSlotsKey is the reserved state key holding slots awaiting clarification.
const PendingSlotsKey = "_pending_slots"

// Rollback policy names.
const (
	PolicyFullDownstream = "full_downstream"
	PolicyAggregateOnly  = "aggregate_only"
	PolicyCustom         = "custom"

	// PolicyDiagnosticTiers is accepted by the rule tables but has no simulator semantics.
	PolicyDiagnosticTiers = "diagnostic_tiers"
)

// AllowedPolicies is the closed set of policy names a rollback policy table may declare.
var AllowedPolicies = []string{
	PolicyAggregateOnly,
	PolicyCustom,
	PolicyDiagnosticTiers,
	PolicyFullDownstream,
}

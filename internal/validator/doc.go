// Package validator checks a workflow configuration for coherence before it is simulated.
//
// The checks mirror the invariants the simulator assumes but does not enforce: an acyclic
// graph, unique field ownership, clears that name real fields, and rollback policies whose
// clear sets cover every downstream write without leaking into non-aggregate siblings.
// A Report can be rendered as markdown for people or as a coverage CSV for spreadsheets.
package validator

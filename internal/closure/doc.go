// Package closure computes forward reachability over the node dependency graph and derives
// the field and node sets each rollback policy invalidates.
//
// Every function is pure: the Engine only reads its Config, so one Engine may be shared by
// any number of simulators. Unknown node names contribute empty produces and clears sets.
package closure

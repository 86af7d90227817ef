// Package readiness implements the gates that decide whether a grading node may be considered
// complete and whether the workflow may produce its final report.
//
// Every check is a pure function of the trajectory state. Field names, legacy aliases,
// mutually-exclusive pairs and per-item locations are configuration data carried by a Profile;
// DefaultProfile reproduces the thyroid ultrasound (TI-RADS) workflow.
package readiness

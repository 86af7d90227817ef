package domain

import (
	"reflect"
	"slices"
)

// TrajectoryDiff represents the changes a step made to a trajectory.
// It is designed to be serialized to JSON for partial updates on the client.
type TrajectoryDiff struct {
	TrajectoryID string `json:"trajectory_id"`

	// Written contains added or modified fields. A nil value means "written without a value".
	Written map[string]any `json:"written,omitempty"`

	// Cleared lists fields that were removed.
	Cleared []string `json:"cleared,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the execution history.
type HistoryDelta struct {
	Appended []string `json:"appended,omitempty"`
	Removed  []string `json:"removed,omitempty"`
}

// Diff calculates the difference between two snapshots of a trajectory.
// If before is nil, it returns a diff representing the entire after (initial load).
// Returns nil when nothing changed.
func Diff(before, after *Trajectory) *TrajectoryDiff {
	if after == nil {
		return nil
	}

	diff := &TrajectoryDiff{TrajectoryID: after.ID}

	var oldFields Fields
	var oldHistory History
	if before != nil {
		oldFields = before.State
		oldHistory = before.Executed
	}

	diff.Written, diff.Cleared = diffFields(oldFields, after.State)
	diff.History = diffHistory(oldHistory, after.Executed)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFields(old, new Fields) (map[string]any, []string) {
	written := make(map[string]any)
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			written[k] = newVal
		}
	}

	var cleared []string
	for k := range old {
		if _, exists := new[k]; !exists {
			cleared = append(cleared, k)
		}
	}
	slices.Sort(cleared)

	if len(written) == 0 {
		written = nil
	}
	return written, cleared
}

// diffHistory compares membership only; History never reorders surviving nodes.
func diffHistory(old, new History) *HistoryDelta {
	delta := &HistoryDelta{}
	for _, n := range new {
		if !old.Contains(n) {
			delta.Appended = append(delta.Appended, n)
		}
	}
	for _, n := range old {
		if !new.Contains(n) {
			delta.Removed = append(delta.Removed, n)
		}
	}
	if len(delta.Appended) == 0 && len(delta.Removed) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *TrajectoryDiff) IsEmpty() bool {
	return len(d.Written) == 0 && len(d.Cleared) == 0 && d.History == nil
}

package domain

import (
	"bytes"
	"encoding/json"
)

// Trajectory is one independently-owned State/History pair.
// Exactly one caller steps a given trajectory at a time.
type Trajectory struct {
	ID       string  `json:"id"`
	State    Fields  `json:"state"`
	Executed History `json:"executed_nodes"`

	// Steps counts the transitions applied, including rejected ones.
	Steps int `json:"steps"`
}

// NewTrajectory creates an empty trajectory.
func NewTrajectory(id string) *Trajectory {
	return &Trajectory{
		ID:       id,
		State:    NewFields(),
		Executed: History{},
	}
}

// Clone returns a deep-enough copy for store isolation (top-level maps and slices).
func (t *Trajectory) Clone() *Trajectory {
	return &Trajectory{
		ID:       t.ID,
		State:    t.State.Clone(),
		Executed: t.Executed.Clone(),
		Steps:    t.Steps,
	}
}

// DecodeTrajectory parses a stored trajectory, keeping numbers as json.Number so counts and
// grades survive a round trip without float conversion.
func DecodeTrajectory(data []byte) (*Trajectory, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var t Trajectory
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}
	if t.State == nil {
		t.State = NewFields()
	}
	if t.Executed == nil {
		t.Executed = History{}
	}
	return &t, nil
}

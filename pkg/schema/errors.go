package schema

import (
	"errors"
	"strings"
)

// EventPrefix starts the single event a rejected action produces.
const EventPrefix = "SchemaError: "

// Violation is a single schema failure at a location of the instance.
type Violation struct {
	Path    string `json:"path"`    // JSON pointer into the action; "/" is the root
	Message string `json:"message"` // Human-readable reason for failure
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// ViolationError carries every violation found in one action.
type ViolationError struct {
	Violations []Violation
}

// Error renders the violations as the event a rejected step reports.
func (e *ViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return EventPrefix + strings.Join(parts, " | ")
}

// Violations returns the violations carried by err, or nil if err is not a ViolationError.
func Violations(err error) []Violation {
	var ve *ViolationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}

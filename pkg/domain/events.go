package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventStep     EventType = "step"
	EventRollback EventType = "rollback"
	EventReport   EventType = "report"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StepEvent is emitted after every transition, accepted or not.
type StepEvent struct {
	EventBase
	Action  ActionType `json:"action"`
	Subject string     `json:"subject,omitempty"`
	OK      bool       `json:"ok"`
	Events  []string   `json:"events"`
}

// RollbackEvent describes what a successful rollback invalidated.
type RollbackEvent struct {
	EventBase
	Node          string   `json:"node"`
	Policy        string   `json:"policy"`
	ClearedFields []string `json:"cleared_fields"`
	RemovedNodes  []string `json:"removed_nodes"`
}

// ReportEvent carries the verdict of a GENERATE_REPORT check.
type ReportEvent struct {
	EventBase
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// LifecycleHooks defines callbacks for simulator observability.
type LifecycleHooks struct {
	OnStep     func(context.Context, *StepEvent)
	OnRollback func(context.Context, *RollbackEvent)
	OnReport   func(context.Context, *ReportEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStep:     chain(h.OnStep, other.OnStep),
		OnRollback: chain(h.OnRollback, other.OnRollback),
		OnReport:   chain(h.OnReport, other.OnReport),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

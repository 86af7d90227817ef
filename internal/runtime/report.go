package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/rewind/pkg/domain"
)

// Gate is the verdict of one readiness gate checked by GENERATE_REPORT.
type Gate struct {
	Node string `json:"node"`
	domain.Readiness
}

// Gates runs the grading gate and the report gate against state.
func (s *Simulator) Gates(state domain.Fields) []Gate {
	p := s.validator.Profile()
	return []Gate{
		{Node: p.GradingNode, Readiness: s.validator.NodeReady(p.GradingNode, state)},
		{Node: p.ReportNode, Readiness: s.validator.NodeReady(p.ReportNode, state)},
	}
}

// generateReport never mutates state. It passes only when every gate passes; warnings do
// not block.
func (s *Simulator) generateReport(ctx context.Context, state domain.Fields, executed *domain.History) domain.StepResult {
	gates := s.Gates(state)

	passed := true
	var errs, warns []string
	for _, g := range gates {
		passed = passed && g.Passed
		for _, e := range g.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", g.Node, e))
		}
		for _, w := range g.Warnings {
			warns = append(warns, fmt.Sprintf("%s: %s", g.Node, w))
		}
	}

	events := []string{fmt.Sprintf("GENERATE_REPORT validated: passed=%t", passed)}
	for _, e := range errs {
		events = append(events, "ERROR: "+e)
	}
	for _, w := range warns {
		events = append(events, "WARNING: "+w)
	}

	if s.hooks.OnReport != nil {
		s.hooks.OnReport(ctx, &domain.ReportEvent{
			EventBase: domain.EventBase{Timestamp: s.now(), Type: domain.EventReport},
			Passed:    passed,
			Errors:    errs,
			Warnings:  warns,
		})
	}

	res := accept(state, executed, events...)
	res.OK = passed
	return res
}

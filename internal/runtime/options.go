package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/readiness"
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Simulator) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithValidator replaces the readiness validator used by GENERATE_REPORT.
func WithValidator(v *readiness.Validator) Option {
	return func(s *Simulator) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithClock overrides the time source stamped on lifecycle events.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/rewind/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			level := slog.LevelInfo
			if !e.OK {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "step",
				"action", e.Action,
				"subject", e.Subject,
				"ok", e.OK,
			)
		},
		OnRollback: func(ctx context.Context, e *domain.RollbackEvent) {
			logger.InfoContext(ctx, "rollback",
				"node", e.Node,
				"policy", e.Policy,
				"cleared", len(e.ClearedFields),
				"removed_nodes", e.RemovedNodes,
			)
		},
		OnReport: func(ctx context.Context, e *domain.ReportEvent) {
			logger.InfoContext(ctx, "report",
				"passed", e.Passed,
				"errors", len(e.Errors),
				"warnings", len(e.Warnings),
			)
		},
	}
}

/*
Package observability turns simulator lifecycle events into metrics and structured logs.

Both Metrics.Hooks and LoggingHooks return domain.LifecycleHooks, so they compose with each
other and with caller hooks through LifecycleHooks.Merge or rewind.WithLifecycleHooks.
*/
package observability

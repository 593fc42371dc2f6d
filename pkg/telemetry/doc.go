// Package telemetry provides structured logging and harness metrics.
//
// Logging is built on zerolog; every harness component receives a child
// logger tagged with a component field. Metrics are Prometheus counters for
// deployments, teardowns, workflow polls, and assertions; a nil *Metrics is
// a valid no-op recorder so callers never need to guard.
package telemetry

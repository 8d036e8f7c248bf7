// Package observability records task lifecycle events for doer in an
// append-only JSON Lines file and derives usage metrics from it on demand.
// Stale-task alerts are evaluated against the stored tasks, with the log
// dating when each status began.
package observability

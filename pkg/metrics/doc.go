// Package metrics aggregates router activity: invocations, attempts,
// fallback substitutions by reason, failures and call latency.
//
// All counters are safe for concurrent use and may be read at any time via
// Snapshot without pausing the router.
package metrics

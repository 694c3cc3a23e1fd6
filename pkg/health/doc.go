// Package health tracks per-endpoint call statistics and classifies each
// endpoint as healthy (circuit closed) or unhealthy (circuit open).
//
// Tracker is fed by every transport attempt the router makes. ProbeScheduler
// feeds it independently on a fixed interval by calling a set of critical
// endpoints, which is how an open circuit closes again without user traffic.
package health

// Package types defines the shared data model of the edge function kit: request
// and response envelopes, the router policy record, per-endpoint health
// statistics, the Caller seam to a real backend, and the error taxonomy.
package types

// Package retry provides the retry policy and linear backoff used by the
// invocation router. Attempts are strictly sequential and every wait between
// them honors context cancellation.
package retry

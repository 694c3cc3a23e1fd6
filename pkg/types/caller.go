package types

import "context"

// Caller performs a single call to a named remote endpoint. It is the only
// seam between the router and a real backend.
type Caller interface {
	Call(ctx context.Context, endpoint string, req Envelope) (*Response, error)
}

// CallerFunc adapts an ordinary function to the Caller interface
type CallerFunc func(ctx context.Context, endpoint string, req Envelope) (*Response, error)

// Call implements Caller
func (f CallerFunc) Call(ctx context.Context, endpoint string, req Envelope) (*Response, error) {
	return f(ctx, endpoint, req)
}

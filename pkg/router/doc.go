// Package router orchestrates calls to named edge functions.
//
// A Router sits between application code and a types.Caller. For every
// Invoke it decides whether to fail fast to a synthetic response (mock mode
// or an endpoint whose circuit is open), otherwise attempts the real call up
// to maxRetries times with linear backoff, and finally substitutes a fallback
// response when all attempts fail and auto-fallback is enabled.
//
// Each endpoint is either CLOSED (healthy) or OPEN (three consecutive
// failures). An OPEN endpoint returns to CLOSED on the next success, which
// may come from a direct invocation or from the background probe scheduler
// the router owns while status tracking is enabled.
//
// Basic usage:
//
//	r, err := router.New(ctx, transport.NewHTTPCaller(baseURL, tokens))
//	if err != nil {
//		return err
//	}
//	if err := r.Start(ctx); err != nil {
//		return err
//	}
//	defer r.Stop()
//
//	resp, err := r.Invoke(ctx, "create-order", types.Envelope{Method: "POST", Body: order})
//	if err != nil {
//		return err
//	}
//	if resp.FallbackUsed() {
//		log.Printf("served by fallback: %s", resp.Fallback.Reason)
//	}
package router

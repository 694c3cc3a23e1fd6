// Package transport provides an HTTP implementation of types.Caller for edge
// functions served at <baseURL>/functions/v1/<endpoint>.
//
// Requests are JSON encoded, tagged with an x-request-id, authenticated with
// an apikey header and a bearer token from an oauth2.TokenSource, and
// optionally throttled by a client-side rate limiter. A non-2xx status is
// reported as a Response carrying an error with code http_<status>, which the
// router treats as a failed attempt.
package transport

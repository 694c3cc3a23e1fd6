package types

import "time"

// Envelope is the request passed to a named edge function
type Envelope struct {
	Method  string            `json:"method,omitempty" yaml:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    any               `json:"body,omitempty" yaml:"body,omitempty"`
}

// Header returns the value of a request header, or "" if it is not set
func (e Envelope) Header(key string) string {
	if e.Headers == nil {
		return ""
	}
	return e.Headers[key]
}

// BodyMap returns the body as a generic object when it is one
func (e Envelope) BodyMap() map[string]any {
	if m, ok := e.Body.(map[string]any); ok {
		return m
	}
	return nil
}

// ResponseError is the logical error an edge function reports in its response
type ResponseError struct {
	Message string `json:"message" yaml:"message"`
	Code    string `json:"code" yaml:"code"`
}

// Error implements the error interface
func (e *ResponseError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// FallbackReason explains why a synthetic response was substituted
type FallbackReason string

const (
	FallbackReasonMockMode       FallbackReason = "mock_mode_enabled"
	FallbackReasonUnhealthy      FallbackReason = "unhealthy_function"
	FallbackReasonAttemptsFailed FallbackReason = "all_attempts_failed"
)

// FallbackMetadata is attached to a response only when it was substituted
type FallbackMetadata struct {
	Used      bool           `json:"fallbackUsed" yaml:"fallback_used"`
	Reason    FallbackReason `json:"fallbackReason" yaml:"fallback_reason"`
	Timestamp time.Time      `json:"fallbackTimestamp" yaml:"fallback_timestamp"`
}

// Response is what an edge function (real or synthetic) returns
type Response struct {
	Data     any               `json:"data,omitempty" yaml:"data,omitempty"`
	Error    *ResponseError    `json:"error,omitempty" yaml:"error,omitempty"`
	Fallback *FallbackMetadata `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// FallbackUsed reports whether the response came from the fallback provider
func (r *Response) FallbackUsed() bool {
	return r != nil && r.Fallback != nil && r.Fallback.Used
}

// Failed reports whether the response carries a logical error
func (r *Response) Failed() bool {
	return r != nil && r.Error != nil
}

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below
var (
	ErrTransport         = errors.New("transport failure")
	ErrMockNotConfigured = errors.New("mock not configured")
	ErrTotalFailure      = errors.New("transport and fallback both failed")
)

// TransportError reports that every Caller attempt for an endpoint failed
type TransportError struct {
	Endpoint string // Endpoint that was called
	Attempts int    // Number of attempts made
	Err      error  // Last attempt's error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("edge function %q failed after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) match
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// MockNotConfiguredError reports that no fallback template exists for an endpoint
type MockNotConfiguredError struct {
	Endpoint string
}

// Error implements the error interface
func (e *MockNotConfiguredError) Error() string {
	return fmt.Sprintf("no mock configured for edge function %q", e.Endpoint)
}

// Is makes errors.Is(err, ErrMockNotConfigured) match
func (e *MockNotConfiguredError) Is(target error) bool {
	return target == ErrMockNotConfigured
}

// TotalFailureError carries both the last transport error and the fallback
// error, so either side can be diagnosed.
type TotalFailureError struct {
	Endpoint     string
	TransportErr error
	FallbackErr  error
}

// Error implements the error interface
func (e *TotalFailureError) Error() string {
	return fmt.Sprintf("edge function %q unavailable: transport: %v; fallback: %v", e.Endpoint, e.TransportErr, e.FallbackErr)
}

// Unwrap exposes both causes to errors.Is and errors.As
func (e *TotalFailureError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.TransportErr != nil {
		errs = append(errs, e.TransportErr)
	}
	if e.FallbackErr != nil {
		errs = append(errs, e.FallbackErr)
	}
	return errs
}

// Is makes errors.Is(err, ErrTotalFailure) match
func (e *TotalFailureError) Is(target error) bool {
	return target == ErrTotalFailure
}

// Package testutil provides shared testing utilities and mocks for use across
// the edge-function-kit test suite.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cecil-the-coder/edge-function-kit/pkg/types"
)

// ErrScripted is the default failure returned by a ScriptedCaller
var ErrScripted = errors.New("scripted transport failure")

// Outcome is one scripted Caller result
type Outcome struct {
	Response *types.Response
	Err      error
	Panic    any
	Delay    time.Duration
}

// Succeed returns an outcome with the given data
func Succeed(data any) Outcome {
	return Outcome{Response: &types.Response{Data: data}}
}

// Fail returns an outcome that fails with ErrScripted
func Fail() Outcome {
	return Outcome{Err: ErrScripted}
}

// FailWith returns an outcome that fails with err
func FailWith(err error) Outcome {
	return Outcome{Err: err}
}

// LogicalError returns an outcome whose response carries an edge function error
func LogicalError(code, message string) Outcome {
	return Outcome{Response: &types.Response{Error: &types.ResponseError{Code: code, Message: message}}}
}

// Panic returns an outcome that panics with v
func Panic(v any) Outcome {
	return Outcome{Panic: v}
}

// CallRecord captures one invocation of a ScriptedCaller
type CallRecord struct {
	Endpoint string
	Request  types.Envelope
	At       time.Time
}

// ScriptedCaller is a types.Caller whose results are scripted per endpoint.
// Once an endpoint's script is exhausted the default outcome is used.
type ScriptedCaller struct {
	mu sync.Mutex

	scripts        map[string][]Outcome
	defaultOutcome Outcome

	calls []CallRecord
}

// NewScriptedCaller creates a caller that succeeds by default
func NewScriptedCaller() *ScriptedCaller {
	return &ScriptedCaller{
		scripts:        make(map[string][]Outcome),
		defaultOutcome: Succeed(map[string]any{"ok": true}),
	}
}

// NewFailingCaller creates a caller that always fails
func NewFailingCaller() *ScriptedCaller {
	c := NewScriptedCaller()
	c.SetDefault(Fail())
	return c
}

// Script appends outcomes for an endpoint
func (c *ScriptedCaller) Script(endpoint string, outcomes ...Outcome) *ScriptedCaller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[endpoint] = append(c.scripts[endpoint], outcomes...)
	return c
}

// SetDefault sets the outcome used when no script entry remains
func (c *ScriptedCaller) SetDefault(outcome Outcome) *ScriptedCaller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultOutcome = outcome
	return c
}

// Call implements types.Caller
func (c *ScriptedCaller) Call(ctx context.Context, endpoint string, req types.Envelope) (*types.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, CallRecord{Endpoint: endpoint, Request: req, At: time.Now()})
	outcome := c.defaultOutcome
	if script := c.scripts[endpoint]; len(script) > 0 {
		outcome = script[0]
		c.scripts[endpoint] = script[1:]
	}
	c.mu.Unlock()

	if outcome.Delay > 0 {
		timer := time.NewTimer(outcome.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if outcome.Panic != nil {
		panic(outcome.Panic)
	}
	return outcome.Response, outcome.Err
}

// CallCount returns the total number of calls
func (c *ScriptedCaller) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// CallsTo returns the number of calls made to an endpoint
func (c *ScriptedCaller) CallsTo(endpoint string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Endpoint == endpoint {
			n++
		}
	}
	return n
}

// Calls returns a copy of every recorded call
func (c *ScriptedCaller) Calls() []CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CallRecord(nil), c.calls...)
}

// Reset clears recorded calls and scripts
func (c *ScriptedCaller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
	c.scripts = make(map[string][]Outcome)
}

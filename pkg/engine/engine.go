// pkg/engine/engine.go
package engine

import (
	"context"
	"encoding/json"
)

// Invocation is the envelope handed to the invocation engine. The ID is the
// correlation identifier issued by the gateway; the engine must present it
// back, unchanged, on the completion channel.
type Invocation struct {
	ID       string            `json:"id"`
	Function string            `json:"function"`
	Runtime  string            `json:"runtime,omitempty"`
	Topic    string            `json:"topic"`
	Body     json.RawMessage   `json:"body,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}

// Completion is the engine's report for one invocation: identifier plus either
// a result or an error, never both.
type Completion struct {
	ID     string           `json:"id"`
	Result json.RawMessage  `json:"result,omitempty"`
	Error  *CompletionError `json:"error,omitempty"`
}

type CompletionError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Failed reports whether the completion carries a failure outcome.
func (c Completion) Failed() bool { return c.Error != nil }

// Dispatcher is the outbound half of the engine boundary. Implementations do
// not wait for the function to run; completion arrives out of band.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv Invocation) error
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, Invocation) error { return ErrNoDispatcher }

// NewNoopDispatcher returns a Dispatcher that rejects every call. Used when no
// engine target is configured, so misconfiguration surfaces per request
// instead of at startup.
func NewNoopDispatcher() Dispatcher { return noopDispatcher{} }

var ErrNoDispatcher = errorString("engine: no dispatcher configured")

type errorString string

func (e errorString) Error() string { return string(e) }

package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joeydtaylor/polygate/pkg/correlation"
	"github.com/joeydtaylor/polygate/pkg/engine"
	manifest "github.com/joeydtaylor/polygate/pkg/manifest"
)

// fakeDispatcher records invocations and optionally settles them through the
// completion deliverer, like the engine would out of band.
type fakeDispatcher struct {
	err      error
	complete func(engine.Invocation)
	last     engine.Invocation
}

func (f *fakeDispatcher) Dispatch(_ context.Context, inv engine.Invocation) error {
	f.last = inv
	if f.err != nil {
		return f.err
	}
	if f.complete != nil {
		go f.complete(inv)
	}
	return nil
}

func bytesReader(s string) *strings.Reader { return strings.NewReader(s) }

func invokeRoute(deadlineMS int) manifest.Route {
	return manifest.Route{
		Path:   "/invoke/echo",
		Method: http.MethodPost,
		Handler: manifest.HSpec{
			Type: manifest.HandlerInvoke,
			Invoke: &manifest.InvokeSpec{
				Function:   "echo",
				Runtime:    "node",
				Topic:      "fn.echo",
				DeadlineMS: deadlineMS,
			},
		},
	}
}

func TestInvokeRoundTrip(t *testing.T) {
	reg := correlation.New()
	deliver := NewCompletionDeliverer(reg, nil, zap.NewNop())

	fd := &fakeDispatcher{complete: func(inv engine.Invocation) {
		deliver(engine.Completion{ID: inv.ID, Result: json.RawMessage(`{"echoed":true}`)})
	}}
	d := BuildDeps{Dispatch: fd, Registry: reg, Log: zap.NewNop()}
	h := Wrap(invokeHandler(invokeRoute(1000), d), NewErrorSink(zap.NewNop()))

	rec := httptest.NewRecorder()
	body := `{"msg":"hi"}`
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoke/echo", bytesReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"echoed":true}`, rec.Body.String())
	assert.Equal(t, "fn.echo", fd.last.Topic)
	assert.Equal(t, "echo", fd.last.Function)
	assert.JSONEq(t, body, string(fd.last.Body))
	assert.Zero(t, reg.Len())
}

func TestInvokeFunctionFailureIsOperational(t *testing.T) {
	reg := correlation.New()
	deliver := NewCompletionDeliverer(reg, nil, zap.NewNop())

	fd := &fakeDispatcher{complete: func(inv engine.Invocation) {
		deliver(engine.Completion{ID: inv.ID, Error: &engine.CompletionError{
			Message: "payload rejected", StatusCode: http.StatusUnprocessableEntity,
		}})
	}}
	d := BuildDeps{Dispatch: fd, Registry: reg}
	h := Wrap(invokeHandler(invokeRoute(1000), d), NewErrorSink(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoke/echo", bytesReader(`{}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var b errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "fail", b.Status)
	assert.Equal(t, "payload rejected", b.Message)
	assert.Zero(t, reg.Len())
}

func TestInvokeDispatchErrorIsBadGateway(t *testing.T) {
	reg := correlation.New()
	fd := &fakeDispatcher{err: errors.New("relay down")}
	d := BuildDeps{Dispatch: fd, Registry: reg}
	h := Wrap(invokeHandler(invokeRoute(1000), d), NewErrorSink(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoke/echo", bytesReader(`{}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relay down")
	assert.Zero(t, reg.Len(), "failed dispatch must not leak a pending entry")
}

func TestInvokeDeadlineExceeded(t *testing.T) {
	reg := correlation.New()
	fd := &fakeDispatcher{} // never completes
	d := BuildDeps{Dispatch: fd, Registry: reg}
	h := Wrap(invokeHandler(invokeRoute(20), d), NewErrorSink(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoke/echo", bytesReader(`{}`)))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Zero(t, reg.Len(), "timed-out entry must be disposed")
}

func TestLateCompletionAfterTimeoutIsDropped(t *testing.T) {
	reg := correlation.New()
	deliver := NewCompletionDeliverer(reg, nil, zap.NewNop())

	fd := &fakeDispatcher{}
	d := BuildDeps{Dispatch: fd, Registry: reg}
	h := Wrap(invokeHandler(invokeRoute(20), d), NewErrorSink(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoke/echo", bytesReader(`{}`)))
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	delivered := deliver(engine.Completion{ID: fd.last.ID, Result: json.RawMessage(`{}`)})
	assert.False(t, delivered)
}

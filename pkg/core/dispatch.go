// pkg/core/dispatch.go
package core

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/polygate/pkg/codec"
	"github.com/joeydtaylor/polygate/pkg/core/transform"
	"github.com/joeydtaylor/polygate/pkg/engine"
	manifest "github.com/joeydtaylor/polygate/pkg/manifest"
	hmetrics "github.com/joeydtaylor/polygate/pkg/middleware/metrics"
	"github.com/joeydtaylor/polygate/pkg/operr"
)

// outcome carries whichever continuation fired for a pending invocation.
type outcome struct {
	result any
	err    error
}

// invokeHandler builds the request handler for an invoke route: canonicalize
// the payload, register continuations, dispatch to the engine, then block on
// the settled channel or the request deadline. Whoever consumes the
// correlation entry owns delivery; the buffered channel means a continuation
// never blocks even if the request has already given up.
func invokeHandler(rt manifest.Route, d BuildDeps) Handler {
	spec := rt.Handler.Invoke
	return func(w http.ResponseWriter, r *http.Request) error {
		if d.Dispatch == nil || d.Registry == nil {
			return operr.New("engine unavailable", http.StatusBadGateway)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			return operr.New("read request body: "+err.Error(), http.StatusBadRequest)
		}

		canon := body
		if typeName := strings.TrimSpace(spec.DataType); typeName != "" {
			_, out, err := ValidateAndCanonicalize(typeName, body)
			if err != nil {
				return operr.New(err.Error(), http.StatusBadRequest)
			}
			canon = out
			if len(spec.Transformers) > 0 {
				canon, err = transform.Apply(typeName, canon, spec.Transformers)
				if err != nil {
					return operr.New("transform: "+err.Error(), http.StatusBadRequest)
				}
			}
		}

		ctx := r.Context()
		if spec.DeadlineMS > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(spec.DeadlineMS)*time.Millisecond)
			defer cancel()
		}

		settledCh := make(chan outcome, 1)
		id := d.Registry.Register(
			func(v any) { settledCh <- outcome{result: v} },
			func(err error) { settledCh <- outcome{err: err} },
		)
		hmetrics.InvocationRegistered()

		hdrs := map[string]string{}
		if rid := chimd.GetReqID(ctx); rid != "" {
			hdrs["X-Request-Id"] = rid
		}
		if creds, err := issueCreds(d, r, rt); err == nil && creds.HeaderName != "" && creds.HeaderValue != "" {
			hdrs[creds.HeaderName] = creds.HeaderValue
			for k, v := range creds.Extra {
				hdrs[k] = v
			}
		}

		start := time.Now()
		inv := engine.Invocation{
			ID:       id,
			Function: spec.Function,
			Runtime:  spec.Runtime,
			Topic:    spec.Topic,
			Body:     canon,
			Headers:  hdrs,
		}
		if err := d.Dispatch.Dispatch(ctx, inv); err != nil {
			if _, ok := d.Registry.Consume(id); ok {
				hmetrics.InvocationSettled()
			}
			_ = d.Audit.Record(context.Background(), engine.AuditRecord{
				ID: id, Function: spec.Function, Outcome: engine.AuditFailure,
				StatusCode: http.StatusBadGateway, DurationMS: time.Since(start).Milliseconds(),
			})
			return operr.New("engine dispatch failed", http.StatusBadGateway)
		}
		hmetrics.InvocationDispatched()

		var out outcome
		select {
		case out = <-settledCh:
		case <-ctx.Done():
			if _, ok := d.Registry.Consume(id); ok {
				// We won the race: nothing will fire the continuations now.
				hmetrics.InvocationSettled()
				_ = d.Audit.Record(context.Background(), engine.AuditRecord{
					ID: id, Function: spec.Function, Outcome: engine.AuditDropped,
					StatusCode: http.StatusGatewayTimeout, DurationMS: time.Since(start).Milliseconds(),
				})
				return operr.New("invocation deadline exceeded", http.StatusGatewayTimeout)
			}
			// The completer consumed the entry first; the outcome is in flight.
			out = <-settledCh
		}
		hmetrics.InvocationSettled()

		if out.err != nil {
			code := http.StatusBadGateway
			if oe, ok := operr.As(out.err); ok {
				code = oe.StatusCode
			}
			_ = d.Audit.Record(context.Background(), engine.AuditRecord{
				ID: id, Function: spec.Function, Outcome: engine.AuditFailure,
				StatusCode: code, DurationMS: time.Since(start).Milliseconds(),
			})
			return out.err
		}

		payload, err := resultBytes(out.result)
		if err != nil {
			return operr.New("encode result: "+err.Error(), http.StatusBadGateway)
		}
		_ = d.Audit.Record(context.Background(), engine.AuditRecord{
			ID: id, Function: spec.Function, Outcome: engine.AuditSuccess,
			StatusCode: http.StatusOK, DurationMS: time.Since(start).Milliseconds(),
		})
		writeJSON(w, payload, http.StatusOK)
		return nil
	}
}

func resultBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return []byte(b), nil
	case []byte:
		return b, nil
	default:
		return codec.JSON.Marshal(v)
	}
}

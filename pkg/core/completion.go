// pkg/core/completion.go
package core

import (
	"context"
	"io"
	"net/http"

	"github.com/joeydtaylor/polygate/pkg/codec"
	"github.com/joeydtaylor/polygate/pkg/correlation"
	"github.com/joeydtaylor/polygate/pkg/engine"
	hmetrics "github.com/joeydtaylor/polygate/pkg/middleware/metrics"
	"github.com/joeydtaylor/polygate/pkg/operr"
	httpx "github.com/joeydtaylor/polygate/pkg/transport/httpx"
	"go.uber.org/zap"
)

// NewCompletionDeliverer binds a completion stream to the correlation
// registry. The returned func reports whether the completion reached a
// waiting caller; a completion for an unknown or already-settled id is
// dropped, never redelivered.
func NewCompletionDeliverer(reg *correlation.Registry, audit *engine.KafkaAudit, log *zap.Logger) func(engine.Completion) bool {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c engine.Completion) bool {
		p, ok := reg.Consume(c.ID)
		if !ok {
			log.Warn("completion for unknown invocation", zap.String("id", c.ID))
			hmetrics.CompletionObserved(engine.AuditDropped)
			_ = audit.Record(context.Background(), engine.AuditRecord{ID: c.ID, Outcome: engine.AuditDropped})
			return false
		}
		if c.Failed() {
			code := c.Error.StatusCode
			if code == 0 {
				code = http.StatusBadGateway
			}
			hmetrics.CompletionObserved(engine.AuditFailure)
			p.Reject(operr.New(c.Error.Message, code))
			return true
		}
		hmetrics.CompletionObserved(engine.AuditSuccess)
		p.Resolve(c.Result)
		return true
	}
}

// CompletionEndpoint accepts engine completions over HTTP, for engines that
// post back instead of (or in addition to) the receiving relay channel.
// Always responds 200 with {"delivered": bool} so the engine can tell a
// settled-late completion from a transport failure.
func CompletionEndpoint(deliver func(engine.Completion) bool) Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return operr.New("read completion body: "+err.Error(), http.StatusBadRequest)
		}
		var c engine.Completion
		if err := codec.JSON.Unmarshal(body, &c); err != nil {
			return operr.New("malformed completion: "+err.Error(), http.StatusBadRequest)
		}
		id := httpx.Param(r, "id")
		if c.ID == "" {
			c.ID = id
		}
		if id != "" && c.ID != id {
			return operr.New("completion id mismatch", http.StatusBadRequest)
		}
		if c.ID == "" {
			return operr.New("completion id required", http.StatusBadRequest)
		}

		delivered := deliver(c)
		out, _ := codec.JSON.Marshal(map[string]bool{"delivered": delivered})
		writeJSON(w, out, http.StatusOK)
		return nil
	}
}

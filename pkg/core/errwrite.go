// pkg/core/errwrite.go
package core

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/joeydtaylor/polygate/pkg/codec"
	"github.com/joeydtaylor/polygate/pkg/operr"
)

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewErrorSink is the default centralized error handler. Operational errors
// render their own message and status code; anything else renders a generic
// message with a 500 and the stack stays in the server log.
func NewErrorSink(log *zap.Logger) ErrorSink {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request, err error) {
		if oe, ok := operr.As(err); ok {
			log.Warn("request failed",
				zap.String("uri", r.URL.Path),
				zap.Int("status", oe.StatusCode),
				zap.String("message", oe.Message),
			)
			writeErrorBody(w, errorBody{Status: oe.Status(), Message: oe.Message}, oe.StatusCode)
			return
		}

		log.Error("unhandled error",
			zap.String("uri", r.URL.Path),
			zap.Error(err),
			zap.Stack("stack"),
		)
		writeErrorBody(w, errorBody{Status: operr.StatusError, Message: "internal server error"}, http.StatusInternalServerError)
	}
}

func writeErrorBody(w http.ResponseWriter, b errorBody, status int) {
	payload, err := codec.JSON.Marshal(b)
	if err != nil {
		http.Error(w, b.Message, status)
		return
	}
	writeJSON(w, payload, status)
}

// pkg/core/bridge.go
package core

import "net/http"

// Handler is route logic that writes its own success response and may fail.
// Returning nil means the response has been produced; returning an error means
// nothing useful was written and the failure belongs to centralized handling.
type Handler func(http.ResponseWriter, *http.Request) error

// ErrorSink is the pipeline's error-propagation channel: one downstream point
// that turns any failure into the final HTTP response.
type ErrorSink func(http.ResponseWriter, *http.Request, error)

// Wrap adapts a fallible Handler to http.HandlerFunc. A failure is forwarded
// to sink exactly once; on success nothing is forwarded and nothing is
// written here.
func Wrap(h Handler, sink ErrorSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			sink(w, r, err)
		}
	}
}

// pkg/operr/operr.go
package operr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Status classes reported alongside the HTTP status code. "fail" covers
// caller mistakes (4xx); everything else is "error".
const (
	StatusFail  = "fail"
	StatusError = "error"
)

// Error is an expected, reportable failure: it carries a message safe to show
// to the caller and the HTTP status code the response should use. Anything
// that is not an *Error is treated as a defect by centralized error handling
// and rendered generically.
//
// Values are immutable after New.
type Error struct {
	Message    string
	StatusCode int

	stack []byte
}

func New(message string, statusCode int) *Error {
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	return &Error{
		Message:    message,
		StatusCode: statusCode,
		stack:      captureStack(2),
	}
}

func Newf(statusCode int, format string, args ...any) *Error {
	e := New(fmt.Sprintf(format, args...), statusCode)
	e.stack = captureStack(2)
	return e
}

func (e *Error) Error() string { return e.Message }

// Status derives the status class from the code: "fail" iff 4xx, else "error".
func (e *Error) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return StatusFail
	}
	return StatusError
}

// Operational always reports true; it distinguishes taxonomy errors from
// unexpected defects when callers only hold an error value.
func (e *Error) Operational() bool { return true }

// Stack is the trace captured at construction. Diagnostics only; it must
// never be written to a response.
func (e *Error) Stack() []byte { return e.stack }

// As unwraps err into an *Error when one is present anywhere in the chain.
func As(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// IsOperational reports whether err is (or wraps) a taxonomy error.
func IsOperational(err error) bool {
	_, ok := As(err)
	return ok
}

func captureStack(skip int) []byte {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pc)
	frames := runtime.CallersFrames(pc[:n])

	var b strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return []byte(b.String())
}

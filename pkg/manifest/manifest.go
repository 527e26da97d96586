// manifest/manifest.go
package manifest

import (
	"github.com/joeydtaylor/polygate/pkg/codec"
)

/* ===========================
   Types / registry
   =========================== */

type HandlerType string

const (
	// HandlerInproc runs a Go handler registered in-process by name.
	HandlerInproc HandlerType = "inproc"
	// HandlerInvoke dispatches to the external invocation engine and suspends
	// until the engine reports a completion for the issued identifier.
	HandlerInvoke HandlerType = "invoke"
)

type TypeBinding struct {
	Name  string
	Codec codec.Codec
	Zero  func() any
}

// TypeReg: register datatypes by name (used to validate InvokeSpec.DataType and
// transformer pipelines).
var TypeReg = make(map[string]TypeBinding)

/* ===========================
   Top-level config
   =========================== */

type Config struct {
	Routes      []Route             `toml:"route"`
	Completions []CompletionChannel `toml:"completion"`
}

/* ===========================
   Completion channels
   =========================== */

// CompletionChannel is a relay listener the invocation engine reports results
// to, out of band of the HTTP request that dispatched the call.
type CompletionChannel struct {
	Address    string         `toml:"address"`     // host:port
	BufferSize int            `toml:"buffer_size"` // default 1024 if 0
	TLS        *CompletionTLS `toml:"tls"`
}

type CompletionTLS struct {
	Enable     bool   `toml:"enable"`
	ServerCert string `toml:"server_cert"`
	ServerKey  string `toml:"server_key"`
	CA         string `toml:"ca"`
	ServerName string `toml:"server_name"`
}

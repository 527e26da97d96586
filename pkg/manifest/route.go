package manifest

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Route describes a single HTTP route.
type Route struct {
	Path    string   `toml:"path"`
	Method  string   `toml:"method"`
	Guard   Guard    `toml:"guard"`
	Policy  Policy   `toml:"policy"`
	Handler HSpec    `toml:"handler"`
	Tags    []string `toml:"tags"`
}

type Guard struct {
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

type DownstreamAuth struct {
	Type     string   `toml:"type"`     // "none" | "passthrough-cookie" | "static-bearer" | "token-exchange"
	Scopes   []string `toml:"scopes"`   // for token-exchange
	Audience string   `toml:"audience"` // for token-exchange
	Header   string   `toml:"header"`   // for static-bearer custom header (default: Authorization)
}

type Policy struct {
	TimeoutMS int             `toml:"timeout_ms"`
	DownAuth  *DownstreamAuth `toml:"downstream_auth"`
}

type HSpec struct {
	Type   HandlerType `toml:"type"`
	Name   string      `toml:"name"`
	Invoke *InvokeSpec `toml:"invoke"`
}

// InvokeSpec binds a route to a deployed function behind the engine.
type InvokeSpec struct {
	Function     string   `toml:"function"`
	Runtime      string   `toml:"runtime"` // informational: "node", "python", ...
	Topic        string   `toml:"topic"`   // relay topic the engine consumes
	DeadlineMS   int      `toml:"deadline_ms"`
	DataType     string   `toml:"datatype,omitempty"`
	Transformers []string `toml:"transformers"` // optional dispatch-side transforms
}

// normalize path/method
func (r *Route) normalize() error {
	if r.Path == "" {
		return errors.New("path is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}
	if r.Path != "/" {
		r.Path = path.Clean(r.Path)
	}
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = "POST"
	}
	return nil
}

// validate fields that are independent of global state.
func (r *Route) validate() error {
	switch r.Handler.Type {
	case HandlerInproc:
		if strings.TrimSpace(r.Handler.Name) == "" {
			return errors.New("handler.name required for inproc")
		}
	case HandlerInvoke:
		if r.Handler.Invoke == nil || strings.TrimSpace(r.Handler.Invoke.Function) == "" {
			return errors.New("handler.invoke.function required for invoke")
		}
		if strings.TrimSpace(r.Handler.Invoke.Topic) == "" {
			return errors.New("handler.invoke.topic required for invoke")
		}
		if r.Handler.Invoke.DeadlineMS < 0 {
			return errors.New("handler.invoke.deadline_ms must be >= 0")
		}
	default:
		return fmt.Errorf("unknown handler type %q", r.Handler.Type)
	}

	if da := r.Policy.DownAuth; da != nil {
		switch da.Type {
		case "none", "passthrough-cookie", "static-bearer", "token-exchange":
		default:
			return fmt.Errorf("policy.downstream_auth.type %q invalid", da.Type)
		}
	}
	if r.Policy.TimeoutMS < 0 {
		return errors.New("policy.timeout_ms must be >= 0")
	}
	return nil
}

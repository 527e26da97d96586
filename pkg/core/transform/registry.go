// core/transform/registry.go
package transform

import (
	"fmt"
	"sync"
)

// Func rewrites a canonical payload before dispatch. Payloads are bytes at
// this point; transformers run after datatype validation, so they may assume
// the input decodes as the datatype they were registered under.
type Func func([]byte) ([]byte, error)

var (
	mu  sync.RWMutex
	reg = map[string]map[string]Func{} // datatype -> name -> Func
)

// Register binds a named transformer for a specific datatype namespace.
// Duplicate registration is a programmer defect.
func Register(datatype, name string, fn Func) {
	if datatype == "" || name == "" || fn == nil {
		panic("transform: datatype, name, fn required")
	}
	mu.Lock()
	defer mu.Unlock()
	m, ok := reg[datatype]
	if !ok {
		m = make(map[string]Func)
		reg[datatype] = m
	}
	if _, dup := m[name]; dup {
		panic("transform: duplicate " + datatype + "/" + name)
	}
	m[name] = fn
}

// Resolve returns the transformers for a datatype in the order requested.
func Resolve(datatype string, names []string) ([]Func, error) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := reg[datatype]
	if !ok {
		return nil, fmt.Errorf("transform: no registry for %q", datatype)
	}
	out := make([]Func, 0, len(names))
	for _, n := range names {
		fn, ok := m[n]
		if !ok {
			return nil, fmt.Errorf("transform: %q not found in %q", n, datatype)
		}
		out = append(out, fn)
	}
	return out, nil
}

// Apply runs the named transformers in order over payload.
func Apply(datatype string, payload []byte, names []string) ([]byte, error) {
	fns, err := Resolve(datatype, names)
	if err != nil {
		return nil, err
	}
	cur := payload
	for i, fn := range fns {
		cur, err = fn(cur)
		if err != nil {
			return nil, fmt.Errorf("transform %q (%d): %w", names[i], i, err)
		}
	}
	return cur, nil
}

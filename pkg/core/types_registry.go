// core/types_registry.go
package core

import (
	"fmt"
	"reflect"

	"github.com/joeydtaylor/polygate/pkg/codec"
	manifest "github.com/joeydtaylor/polygate/pkg/manifest"
)

// RegisterType binds a concrete type to a symbolic name with a codec.
func RegisterType[T any](name string, c codec.Codec) error {
	if name == "" || c == nil {
		return fmt.Errorf("type name and codec required")
	}
	if _, ok := manifest.TypeReg[name]; ok {
		return fmt.Errorf("type %q already registered", name)
	}
	manifest.TypeReg[name] = manifest.TypeBinding{
		Name:  name,
		Codec: c,
		Zero:  func() any { var x T; return &x },
	}
	return nil
}

func MustRegisterType[T any](name string, c codec.Codec) {
	if err := RegisterType[T](name, c); err != nil {
		panic(err)
	}
}

// ValidateAndCanonicalize asserts bytes decode into the registered type,
// then re-encodes canonically via the codec (round-trip).
func ValidateAndCanonicalize(typeName string, data []byte) (contentType string, out []byte, err error) {
	b, ok := manifest.TypeReg[typeName]
	if !ok {
		return "", nil, fmt.Errorf("unregistered type %q", typeName)
	}
	dst := b.Zero() // pointer to T
	if err := b.Codec.Unmarshal(data, dst); err != nil {
		return "", nil, fmt.Errorf("payload type %q invalid: %w", typeName, err)
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return "", nil, fmt.Errorf("internal: zero() did not return pointer")
	}
	raw, err := b.Codec.Marshal(rv.Elem().Interface())
	if err != nil {
		return "", nil, fmt.Errorf("re-encode: %w", err)
	}
	return b.Codec.ContentType(), raw, nil
}

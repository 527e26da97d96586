// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

// JSONStrict rejects unknown fields and trailing content. Use it for payloads
// bound to a registered datatype, where a silently dropped field would defeat
// canonicalization.
var JSONStrict Codec = jsonCodec{strict: true}

// JSON is the permissive variant used for engine envelopes, where forward
// compatibility matters more than strictness.
var JSON Codec = jsonCodec{}

type jsonCodec struct{ strict bool }

func (c jsonCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	// Must be a single JSON document.
	if err := dec.Decode(new(any)); err != io.EOF {
		return fmt.Errorf("json trailing content")
	}
	return nil
}

func (c jsonCodec) ContentType() string { return "application/json" }

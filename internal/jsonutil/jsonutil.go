// Package jsonutil routes JSON encoding through json-iterator with the
// standard library's semantics.
package jsonutil

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

var bufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

func Marshal(v any) ([]byte, error) { return encode(v, "") }

func MarshalIndent(v any, indent string) ([]byte, error) { return encode(v, indent) }

func Unmarshal(data []byte, v any) error { return JSON.Unmarshal(data, v) }

// Decode reads a single JSON document from r into v.
func Decode(r io.Reader, v any) error {
	if err := JSON.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func encode(v any, indent string) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	enc := JSON.NewEncoder(buf)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	b := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

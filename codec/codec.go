// Package codec converts facade values to the bytes stored under a policy.
package codec

import "encoding/json"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// JSONNative is implemented by codecs whose output is always a JSON document.
// Such payloads are embedded in the stored envelope as-is, which keeps them
// readable by other catbox clients of the same partition.
type JSONNative interface {
	JSONNative() bool
}

// IsJSONNative reports whether c produces JSON documents.
func IsJSONNative(c any) bool {
	n, ok := c.(JSONNative)
	return ok && n.JSONNative()
}

// JSON is the default codec. The zero value is ready to use.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) JSONNative() bool { return true }

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

// Bytes stores []byte values unchanged.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores the raw UTF-8 bytes of a string; no quoting.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

package codec

import "fmt"

// Limit guards Decode against oversized payloads read back from a shared
// store. Encode is forwarded unchanged. MaxDecode <= 0 disables the check.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int // bytes
}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}

// JSONNative is forwarded so wrapping a JSON codec keeps envelopes readable.
func (c Limit[V]) JSONNative() bool { return IsJSONNative(c.Inner) }

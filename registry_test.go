package cachewrapper

import (
	"testing"
	"time"
)

func TestRegistryAddIsAdditiveAndIdempotent(t *testing.T) {
	r := newRegistry("app", newFakeClient(), true, time.Now)

	if n := r.add(
		PolicyDef{Segment: "foo", ExpiresIn: 10 * time.Second},
		PolicyDef{Segment: "", ExpiresIn: time.Second},
		PolicyDef{Segment: "noTTL"},
		PolicyDef{Segment: "negative", ExpiresIn: -time.Second},
	); n != 1 {
		t.Fatalf("added %d, want 1", n)
	}
	if n := r.add(PolicyDef{Segment: "foo", ExpiresIn: time.Hour}); n != 0 {
		t.Fatalf("re-adding a segment must be a no-op, added %d", n)
	}

	p, ok := r.get("foo")
	if !ok {
		t.Fatalf("foo not registered")
	}
	if p.Segment() != "foo" || p.ExpiresIn() != 10*time.Second {
		t.Fatalf("policy = %s/%v", p.Segment(), p.ExpiresIn())
	}
	if p.storageKey("k:1") != "app:foo:k%3A1" {
		t.Fatalf("storage key = %q", p.storageKey("k:1"))
	}
	for _, seg := range []string{"noTTL", "negative", "missing"} {
		if _, ok := r.get(seg); ok {
			t.Fatalf("%q should not be registered", seg)
		}
	}
}

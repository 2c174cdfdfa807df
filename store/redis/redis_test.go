package redis

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	goredis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := Dial(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, mr
}

func TestNewRejectsNilClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}

func TestConnectMarksReady(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	if s.IsReady() {
		t.Fatalf("store must start not ready")
	}
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !s.IsReady() {
		t.Fatalf("store should be ready after Connect")
	}
}

func TestGetSetDelWithTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if _, ok, err := s.Get(ctx, "app:foo:k1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "app:foo:k1", []byte("v1"), 10*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("app:foo:k1"); ttl != 10*time.Second {
		t.Fatalf("ttl = %v", ttl)
	}
	b, ok, err := s.Get(ctx, "app:foo:k1")
	if err != nil || !ok || string(b) != "v1" {
		t.Fatalf("Get = %q ok=%v err=%v", b, ok, err)
	}
	if err := s.Del(ctx, "app:foo:k1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if mr.Exists("app:foo:k1") {
		t.Fatalf("key should be gone")
	}
	// deleting a missing key is fine
	if err := s.Del(ctx, "app:foo:k1"); err != nil {
		t.Fatalf("Del missing: %v", err)
	}
}

func TestScanWalksAllPages(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	want := []string{"app:foo:k1", "app:foo:k2", "app:foo:k3"}
	for _, k := range want {
		_ = mr.Set(k, "x")
	}
	_ = mr.Set("app:foo:other", "x")
	_ = mr.Set("app:bar:k1", "x")

	var got []string
	var cursor uint64
	for {
		keys, next, err := s.Scan(ctx, cursor, "app:foo:k*", 1)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		got = append(got, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scan mismatch (-want +got):\n%s", diff)
	}
}

func TestConnectionLossClearsReadiness(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	mr.Close()

	if _, _, err := s.Get(ctx, "app:foo:k1"); err == nil {
		t.Fatalf("expected error with server down")
	}
	if s.IsReady() {
		t.Fatalf("readiness should clear after a connection error")
	}
	if err := s.Connect(ctx); err == nil {
		t.Fatalf("expected Connect to fail with server down")
	}

	if err := mr.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect after restart: %v", err)
	}
	if !s.IsReady() {
		t.Fatalf("store should be ready again")
	}
}

func TestServerErrorKeepsReadiness(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	mr.SetError("ERR boom")
	_, _, err := s.Get(ctx, "k")
	mr.SetError("")
	if err == nil {
		t.Fatalf("expected server error")
	}
	if !s.IsReady() {
		t.Fatalf("a server reply error must not clear readiness")
	}
}

package cachewrapper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/holidayextras/cache-wrapper/store"
	"github.com/holidayextras/cache-wrapper/store/bigcache"
	"github.com/holidayextras/cache-wrapper/store/memory"
)

// ==============================
// Prefix delete over in-process backends
// ==============================

func TestDeleteSpansManyScanPages(t *testing.T) {
	backends := map[string]func(t *testing.T) store.Client{
		"memory": func(*testing.T) store.Client { return memory.New() },
		"bigcache": func(t *testing.T) store.Client {
			s, err := bigcache.New(context.Background(), bigcache.Config{LifeWindow: time.Minute})
			if err != nil {
				t.Fatalf("bigcache.New: %v", err)
			}
			return s
		},
	}
	for name, newClient := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			w, err := Open(ctx, Options[string]{
				Partition: "app",
				Client:    newClient(t),
				Policies:  []PolicyDef{fooPolicy},
				ScanCount: 100,
			})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			t.Cleanup(func() { _ = w.Close(context.Background()) })

			const n = 3000
			for i := 0; i < n; i++ {
				set(t, w, "foo", fmt.Sprintf("k%04d", i), "v")
			}
			set(t, w, "foo", "other", "kept")

			res, err := w.Delete(ctx, DeleteRequest{Segment: "foo", Prefix: "k"})
			if err != nil || res.Err != nil {
				t.Fatalf("Delete: %v / %v", err, res.Err)
			}
			if len(res.Outcomes) != n || res.Failed() != 0 {
				t.Fatalf("outcomes = %d failed = %d, want %d and 0", len(res.Outcomes), res.Failed(), n)
			}
			for i := 0; i < n; i++ {
				k := fmt.Sprintf("k%04d", i)
				if _, err := w.Get(ctx, RetrieveRequest{Segment: "foo", Key: k}); err == nil {
					t.Fatalf("%s survived the prefix delete", k)
				}
			}
			if v, err := w.Get(ctx, RetrieveRequest{Segment: "foo", Key: "other"}); err != nil || v != "kept" {
				t.Fatalf("other = %q, %v", v, err)
			}
		})
	}
}

package store

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func all(string) bool { return true }

func TestCursorsWalkEveryKey(t *testing.T) {
	var c Cursors
	keys := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		keys = append(keys, fmt.Sprintf("k%02d", i))
	}

	var got []string
	var cursor uint64
	trips := 0
	for {
		page, next, err := c.Page(keys, cursor, 10, all)
		if err != nil {
			t.Fatalf("Page: %v", err)
		}
		trips++
		got = append(got, page...)
		if cursor = next; cursor == 0 {
			break
		}
	}
	if trips != 3 {
		t.Fatalf("trips = %d, want 3", trips)
	}
	if diff := cmp.Diff(keys, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorsSurviveRemovalBelowCursor(t *testing.T) {
	var c Cursors
	keys := []string{"a", "b", "c", "d", "e", "f"}

	first, cursor, err := c.Page(keys, 0, 3, all)
	if err != nil || cursor == 0 {
		t.Fatalf("first page: %v cursor=%d", err, cursor)
	}
	// "a" and "b" vanish between pages, "bb" appears behind the cursor
	keys = []string{"bb", "c", "d", "e", "f"}
	rest, next, err := c.Page(keys, cursor, 10, all)
	if err != nil || next != 0 {
		t.Fatalf("second page: %v next=%d", err, next)
	}
	got := append(first, rest...)
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e", "f"}, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorsRejectUnknownOrReused(t *testing.T) {
	var c Cursors
	keys := []string{"a", "b", "c"}
	if _, _, err := c.Page(keys, 42, 1, all); !errors.Is(err, ErrUnknownCursor) {
		t.Fatalf("unknown cursor err = %v", err)
	}
	_, cursor, _ := c.Page(keys, 0, 1, all)
	if _, _, err := c.Page(keys, cursor, 1, all); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, _, err := c.Page(keys, cursor, 1, all); !errors.Is(err, ErrUnknownCursor) {
		t.Fatalf("reused cursor err = %v", err)
	}
}

func TestCursorsForgetOldest(t *testing.T) {
	var c Cursors
	keys := []string{"a", "b"}
	_, oldest, _ := c.Page(keys, 0, 1, all)
	for i := 0; i < maxCursors; i++ {
		c.Page(keys, 0, 1, all)
	}
	if _, _, err := c.Page(keys, oldest, 1, all); !errors.Is(err, ErrUnknownCursor) {
		t.Fatalf("oldest cursor should be forgotten, err = %v", err)
	}
	if !slices.IsSorted(c.order) {
		t.Fatalf("cursor order not monotonic")
	}
}

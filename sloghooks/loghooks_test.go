package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestDropFailedRedactsAndSamples(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := New(l, Options{DropFailEvery: 2})

	for i := 0; i < 4; i++ {
		h.DropFailed("app:foo:secret", errors.New("READONLY"))
	}
	out := buf.String()
	if n := strings.Count(out, "cachewrapper.drop_failed"); n != 2 {
		t.Fatalf("sampled lines = %d, want 2\n%s", n, out)
	}
	if strings.Contains(out, "secret") {
		t.Fatalf("storage key leaked: %s", out)
	}
}

func TestReconnectFinishedLevels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	h := New(l, Options{})

	h.ReconnectFinished(3, nil)
	h.ReconnectFinished(2, errors.New("refused"))

	out := buf.String()
	if !strings.Contains(out, "msg=cachewrapper.reconnected replayed=3") {
		t.Fatalf("missing success line: %s", out)
	}
	if !strings.Contains(out, "level=ERROR msg=cachewrapper.reconnect_failed rejected=2 err=refused") {
		t.Fatalf("missing failure line: %s", out)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.RequestQueued("id", "stash", "foo", 1)
	h.ReconnectStarted()
	h.ScanFailed("app:foo:", errors.New("x"))
	h.DecodeFailed("k", errors.New("x"))
}

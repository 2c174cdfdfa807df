package logrus

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	cachewrapper "github.com/holidayextras/cache-wrapper"
)

func TestFieldsAndComponent(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Warn("cache store call failed", cachewrapper.Fields{"segment": "foo", "err": errors.New("boom")})
	l.Debug("plain", nil)

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	first := entries[0]
	if first.Level != logrus.WarnLevel || first.Message != "cache store call failed" {
		t.Fatalf("unexpected entry: %v %q", first.Level, first.Message)
	}
	if first.Data["component"] != "cachewrapper" || first.Data["segment"] != "foo" {
		t.Fatalf("unexpected data: %v", first.Data)
	}
	if entries[1].Data["component"] != "cachewrapper" {
		t.Fatalf("component missing on field-less entry: %v", entries[1].Data)
	}
}
